package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/event"
	"eventgate/internal/errs"
	"eventgate/internal/ports"
)

const defaultStorageTimeout = 5 * time.Second

// Options carries the engine switches. The enforcement flags default off: the
// stored criteria and deadline flag are only consulted when asked to.
type Options struct {
	StorageTimeout             time.Duration
	EnforceEligibilityOnJoin   bool
	EnforceEligibilityOnSubmit bool
	EnforceDeadline            bool
}

type Service struct {
	users     ports.UserRepository
	events    ports.EventRepository
	uow       ports.UnitOfWork
	cache     ports.Cache
	publisher ports.Publisher
	clock     ports.Clock

	mu   sync.RWMutex
	opts Options
}

// NewService wires the engine with its repositories. Cache and publisher are optional.
func NewService(users ports.UserRepository, events ports.EventRepository, uow ports.UnitOfWork, cache ports.Cache, publisher ports.Publisher, clock ports.Clock, opts Options) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = defaultStorageTimeout
	}
	return &Service{
		users:     users,
		events:    events,
		uow:       uow,
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		opts:      opts,
	}
}

// SetOptions swaps the engine switches for subsequent calls. Calls already in
// flight keep the options they started with.
func (s *Service) SetOptions(opts Options) {
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = defaultStorageTimeout
	}
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

func (s *Service) options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// begin checks the service wiring and bounds ctx by the storage timeout.
func (s *Service) begin(ctx context.Context, component string) (context.Context, context.CancelFunc, error) {
	if ctx == nil {
		return nil, nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errs.Wrap(err, "check context")
	}
	if s.users == nil || s.events == nil {
		return nil, nil, errors.New("engagement repositories are required")
	}
	if s.uow == nil {
		return nil, nil, errors.New("engagement unit of work is required")
	}

	ctx = logging.WithAttrs(ctx, slog.String("component", "usecase.engagement."+component))
	bounded, cancel := context.WithTimeout(ctx, s.options().StorageTimeout)
	return bounded, cancel, nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

// loadEvent maps a missing event to NotFoundError.
func (s *Service) loadEvent(ctx context.Context, eventID uint64) (ports.Event, error) {
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ports.Event{}, &event.NotFoundError{Entity: "event", ID: eventID}
		}
		return ports.Event{}, storageFailure("load event", err)
	}
	return ev, nil
}

func (s *Service) loadUser(ctx context.Context, userID uint64) (ports.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ports.User{}, &event.NotFoundError{Entity: "user", ID: userID}
		}
		return ports.User{}, storageFailure("load user", err)
	}
	return user, nil
}

// requireOwner loads the event and fails unless the caller created it.
func (s *Service) requireOwner(ctx context.Context, identity ports.Identity, eventID uint64, action string) (ports.Event, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return ports.Event{}, err
	}
	if event.RoleFor(identity.UserID, ev.CreatorID) != event.RoleOwner {
		return ports.Event{}, &event.AuthorizationError{UserID: identity.UserID, EventID: eventID, Action: action}
	}
	return ev, nil
}

func requireIdentity(identity ports.Identity, eventID uint64, action string) error {
	if identity.Anonymous() {
		return &event.AuthorizationError{EventID: eventID, Action: action}
	}
	return nil
}

// storageFailure passes typed engine errors through and hides everything else
// behind a StorageError that keeps the cause's stack for the log.
func storageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.KindOf(err) != errs.KindInternal {
		return err
	}
	return &event.StorageError{Op: op, Err: errs.WithStack(err)}
}

func (s *Service) logFailure(ctx context.Context, msg string, err error) {
	if errs.IsKind(err, event.KindStorage) {
		logging.Error(ctx, msg, slog.Any("err", errs.Loggable(err)))
		return
	}
	logging.Info(ctx, msg, slog.Any("err", errs.Loggable(err)))
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		logging.Warn(ctx, "cache set failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) deleteCacheBestEffort(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logging.Warn(ctx, "cache delete failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) publishBestEffort(ctx context.Context, eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		logging.Warn(ctx, "publish failed", slog.String("type", eventType), slog.Any("err", errs.Loggable(err)))
	}
}

func cacheSubmissionKey(eventID uint64, participantID uint64) string {
	return fmt.Sprintf("submission:%d:%d", eventID, participantID)
}

func cacheReminderBatchKey(eventID uint64) string {
	return fmt.Sprintf("reminder_batch:%d", eventID)
}
