package engagement

import (
	"context"
	"log/slog"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/eligibility"
	"eventgate/internal/domain/event"
	"eventgate/internal/ports"
)

type EligibilityResult struct {
	EventID     uint64             `json:"event_id"`
	UserID      uint64             `json:"user_id"`
	Eligible    bool               `json:"eligible"`
	FailedRules []event.FailedRule `json:"failed_rules"`
}

// Err returns an EligibilityError listing every failed rule, or nil.
func (r EligibilityResult) Err() error {
	if r.Eligible {
		return nil
	}
	return &event.EligibilityError{FailedRules: r.FailedRules}
}

// EvaluateEligibility checks a user's profile against the event's criteria at
// the current clock time. userID defaults to the caller.
func (s *Service) EvaluateEligibility(ctx context.Context, identity ports.Identity, eventID uint64, userID uint64) (EligibilityResult, error) {
	ctx, cancel, err := s.begin(ctx, "eligibility")
	if err != nil {
		return EligibilityResult{}, err
	}
	defer cancel()

	if userID == 0 {
		userID = identity.UserID
	}
	if userID == 0 {
		return EligibilityResult{}, &event.AuthorizationError{EventID: eventID, Action: "evaluate eligibility for"}
	}
	ctx = logging.WithAttrs(logging.WithEvent(ctx, eventID, 0), slog.Uint64("user_id", userID))

	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return EligibilityResult{}, err
	}
	result, err := s.evaluate(ctx, eventID, userID)
	if err != nil {
		s.logFailure(ctx, "evaluate eligibility failed", err)
		return EligibilityResult{}, err
	}

	logging.Debug(ctx, "eligibility evaluated", slog.Bool("eligible", result.Eligible), slog.Int("failed_rules", len(result.FailedRules)))
	return result, nil
}

func (s *Service) evaluate(ctx context.Context, eventID uint64, userID uint64) (EligibilityResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return EligibilityResult{}, err
	}

	stored, err := s.events.ListCriteria(ctx, eventID)
	if err != nil {
		return EligibilityResult{}, storageFailure("list eligibility criteria", err)
	}

	criteria := make([]eligibility.Criterion, 0, len(stored))
	for _, c := range stored {
		criteria = append(criteria, eligibility.Criterion{ID: c.CriterionID, RuleType: c.RuleType, RuleValue: c.RuleValue})
	}

	res := eligibility.EvaluateCriteria(profileOf(user), criteria, s.now())
	return EligibilityResult{
		EventID:     eventID,
		UserID:      userID,
		Eligible:    res.Eligible,
		FailedRules: res.FailedRules,
	}, nil
}

func profileOf(user ports.User) eligibility.Profile {
	return eligibility.Profile{
		UserID:      user.UserID,
		Email:       user.Email,
		Gender:      user.Gender,
		DateOfBirth: user.DateOfBirth,
		Attributes:  user.Attributes,
	}
}
