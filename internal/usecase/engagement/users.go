package engagement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/event"
	"eventgate/internal/ports"
)

type CreateUserInput struct {
	FirstName   string
	LastName    string
	Email       string
	Gender      string
	DateOfBirth *time.Time
	Attributes  map[string]string
	IsCreator   bool
}

// CreateUser registers a profile. Emails are unique regardless of case.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (ports.User, error) {
	ctx, cancel, err := s.begin(ctx, "users")
	if err != nil {
		return ports.User{}, err
	}
	defer cancel()

	user := ports.User{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Gender:      strings.TrimSpace(input.Gender),
		DateOfBirth: input.DateOfBirth,
		Attributes:  normalizeAttributes(input.Attributes),
		IsCreator:   input.IsCreator,
	}

	violations := make(map[string][]event.Violation)
	if user.FirstName == "" {
		violations["first_name"] = append(violations["first_name"], event.Violation{Kind: event.ViolationMissingRequired})
	}
	if user.LastName == "" {
		violations["last_name"] = append(violations["last_name"], event.Violation{Kind: event.ViolationMissingRequired})
	}
	switch {
	case user.Email == "":
		violations["email"] = append(violations["email"], event.Violation{Kind: event.ViolationMissingRequired})
	case !strings.Contains(user.Email, "@"):
		violations["email"] = append(violations["email"], event.Violation{Kind: event.ViolationPatternMismatch, Detail: "email must contain @"})
	}
	if user.DateOfBirth != nil && user.DateOfBirth.After(s.now()) {
		violations["date_of_birth"] = append(violations["date_of_birth"], event.Violation{Kind: event.ViolationAboveMax, Detail: "date of birth is in the future"})
	}
	if len(violations) > 0 {
		return ports.User{}, &event.ValidationError{Fields: violations}
	}

	var created ports.User
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.users.CreateUser(txCtx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, ports.ErrAlreadyExists) {
			return ports.User{}, &event.ValidationError{Fields: map[string][]event.Violation{
				"email": {{Kind: event.ViolationAlreadyTaken, Detail: "email is already registered"}},
			}}
		}
		err = storageFailure("create user", err)
		s.logFailure(ctx, "create user failed", err)
		return ports.User{}, err
	}

	logging.Info(ctx, "user created", slog.Uint64("user_id", created.UserID), slog.Bool("creator", created.IsCreator))
	return created, nil
}

// GetUser returns a stored profile.
func (s *Service) GetUser(ctx context.Context, userID uint64) (ports.User, error) {
	ctx, cancel, err := s.begin(ctx, "users")
	if err != nil {
		return ports.User{}, err
	}
	defer cancel()
	return s.loadUser(ctx, userID)
}

func normalizeAttributes(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}
