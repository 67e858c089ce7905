package engagement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/eligibility"
	"eventgate/internal/domain/event"
	"eventgate/internal/domain/form"
	"eventgate/internal/ports"
)

type CreateEventInput struct {
	Name             string
	Place            string
	StartDate        time.Time
	EndDate          time.Time
	DeadlineEnforced bool
	// UniqueSubmissions defaults to true when nil.
	UniqueSubmissions *bool
}

// CreateEvent creates an open event owned by the caller, who must be a creator.
func (s *Service) CreateEvent(ctx context.Context, identity ports.Identity, input CreateEventInput) (ports.Event, error) {
	ctx, cancel, err := s.begin(ctx, "events")
	if err != nil {
		return ports.Event{}, err
	}
	defer cancel()

	if err := requireIdentity(identity, 0, "create"); err != nil {
		return ports.Event{}, err
	}
	creator, err := s.loadUser(ctx, identity.UserID)
	if err != nil {
		return ports.Event{}, err
	}
	if !creator.IsCreator {
		return ports.Event{}, &event.AuthorizationError{UserID: identity.UserID, Action: "create"}
	}

	name := strings.TrimSpace(input.Name)
	violations := make(map[string][]event.Violation)
	if name == "" {
		violations["event_name"] = append(violations["event_name"], event.Violation{Kind: event.ViolationMissingRequired})
	}
	if input.StartDate.IsZero() {
		violations["event_start_date"] = append(violations["event_start_date"], event.Violation{Kind: event.ViolationMissingRequired})
	}
	if input.EndDate.IsZero() {
		violations["event_end_date"] = append(violations["event_end_date"], event.Violation{Kind: event.ViolationMissingRequired})
	} else if input.EndDate.Before(input.StartDate) {
		violations["event_end_date"] = append(violations["event_end_date"], event.Violation{Kind: event.ViolationBelowMin, Detail: "end date is before start date"})
	}
	if len(violations) > 0 {
		return ports.Event{}, &event.ValidationError{Fields: violations}
	}

	unique := true
	if input.UniqueSubmissions != nil {
		unique = *input.UniqueSubmissions
	}

	var created ports.Event
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.events.CreateEvent(txCtx, ports.Event{
			CreatorID:         identity.UserID,
			Name:              name,
			Place:             strings.TrimSpace(input.Place),
			StartDate:         input.StartDate.UTC(),
			EndDate:           input.EndDate.UTC(),
			DeadlineEnforced:  input.DeadlineEnforced,
			UniqueSubmissions: unique,
			Status:            string(event.StatusOpen),
		})
		return err
	})
	if err != nil {
		err = storageFailure("create event", err)
		s.logFailure(ctx, "create event failed", err)
		return ports.Event{}, err
	}

	logging.Info(logging.WithEvent(ctx, created.EventID, 0), "event created", slog.Bool("unique_submissions", unique))
	return created, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID uint64) (ports.Event, error) {
	ctx, cancel, err := s.begin(ctx, "events")
	if err != nil {
		return ports.Event{}, err
	}
	defer cancel()
	return s.loadEvent(ctx, eventID)
}

// ListEvents returns every event, or the events created by creatorID when set.
func (s *Service) ListEvents(ctx context.Context, creatorID uint64) ([]ports.Event, error) {
	ctx, cancel, err := s.begin(ctx, "events")
	if err != nil {
		return nil, err
	}
	defer cancel()

	items, err := s.events.ListEvents(ctx, creatorID)
	if err != nil {
		return nil, storageFailure("list events", err)
	}
	return items, nil
}

// UpdateEventStatus sets the event status. Only the owner may change it.
func (s *Service) UpdateEventStatus(ctx context.Context, identity ports.Identity, eventID uint64, rawStatus string) (event.Status, error) {
	ctx, cancel, err := s.begin(ctx, "events")
	if err != nil {
		return "", err
	}
	defer cancel()
	ctx = logging.WithEvent(ctx, eventID, 0)

	if _, err := s.requireOwner(ctx, identity, eventID, "update"); err != nil {
		return "", err
	}
	status, err := event.NormalizeStatus(rawStatus)
	if err != nil {
		return "", err
	}

	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.events.UpdateEventStatus(txCtx, eventID, string(status))
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", &event.NotFoundError{Entity: "event", ID: eventID}
		}
		err = storageFailure("update event status", err)
		s.logFailure(ctx, "update event status failed", err)
		return "", err
	}

	logging.Info(ctx, "event status updated", slog.String("status", string(status)))
	return status, nil
}

// DeleteEvent removes the event and everything it owns.
func (s *Service) DeleteEvent(ctx context.Context, identity ports.Identity, eventID uint64) error {
	ctx, cancel, err := s.begin(ctx, "events")
	if err != nil {
		return err
	}
	defer cancel()
	ctx = logging.WithEvent(ctx, eventID, 0)

	if _, err := s.requireOwner(ctx, identity, eventID, "delete"); err != nil {
		return err
	}

	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.events.DeleteEvent(txCtx, eventID)
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return &event.NotFoundError{Entity: "event", ID: eventID}
		}
		err = storageFailure("delete event", err)
		s.logFailure(ctx, "delete event failed", err)
		return err
	}

	s.deleteCacheBestEffort(ctx, cacheReminderBatchKey(eventID))
	logging.Info(ctx, "event deleted")
	return nil
}

// AddCriterion stores an eligibility rule after checking that it parses.
func (s *Service) AddCriterion(ctx context.Context, identity ports.Identity, eventID uint64, ruleType string, ruleValue string) (ports.Criterion, error) {
	ctx, cancel, err := s.begin(ctx, "criteria")
	if err != nil {
		return ports.Criterion{}, err
	}
	defer cancel()
	ctx = logging.WithEvent(ctx, eventID, 0)

	if _, err := s.requireOwner(ctx, identity, eventID, "add criteria to"); err != nil {
		return ports.Criterion{}, err
	}

	rule, err := eligibility.ParseRule(eligibility.Criterion{RuleType: ruleType, RuleValue: ruleValue})
	if err != nil {
		var unknown *event.UnknownRuleError
		if errors.As(err, &unknown) {
			return ports.Criterion{}, err
		}
		return ports.Criterion{}, &event.ValidationError{Fields: map[string][]event.Violation{
			"rule_value": {{Kind: event.ViolationInvalidRule, Detail: err.Error()}},
		}}
	}

	var created ports.Criterion
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.events.CreateCriterion(txCtx, ports.Criterion{
			EventID:   eventID,
			RuleType:  rule.Type,
			RuleValue: strings.TrimSpace(ruleValue),
		})
		return err
	})
	if err != nil {
		err = storageFailure("add criterion", err)
		s.logFailure(ctx, "add criterion failed", err)
		return ports.Criterion{}, err
	}

	logging.Info(ctx, "criterion added", slog.Uint64("criterion_id", created.CriterionID), slog.String("rule_type", created.RuleType))
	return created, nil
}

type AddInputFieldInput struct {
	Label           string
	FieldType       string
	DefaultValue    *string
	ValidationRules string
}

// AddInputField stores a form field after checking that its rules parse.
func (s *Service) AddInputField(ctx context.Context, identity ports.Identity, eventID uint64, input AddInputFieldInput) (ports.InputField, error) {
	ctx, cancel, err := s.begin(ctx, "inputs")
	if err != nil {
		return ports.InputField{}, err
	}
	defer cancel()
	ctx = logging.WithEvent(ctx, eventID, 0)

	if _, err := s.requireOwner(ctx, identity, eventID, "add inputs to"); err != nil {
		return ports.InputField{}, err
	}

	label := strings.TrimSpace(input.Label)
	if label == "" {
		return ports.InputField{}, &event.ValidationError{Fields: map[string][]event.Violation{
			"label": {{Kind: event.ViolationMissingRequired}},
		}}
	}
	rules := strings.TrimSpace(input.ValidationRules)
	if rules == "" {
		rules = "{}"
	}
	field, err := form.ParseField(form.Definition{
		Label:           label,
		FieldType:       input.FieldType,
		DefaultValue:    input.DefaultValue,
		ValidationRules: rules,
	})
	if err != nil {
		key := "validation_rules"
		if errors.Is(err, form.ErrInvalidDefault) {
			key = "default_value"
		}
		return ports.InputField{}, &event.ValidationError{Fields: map[string][]event.Violation{
			key: {{Kind: event.ViolationInvalidRule, Detail: err.Error()}},
		}}
	}

	var created ports.InputField
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.events.CreateInputField(txCtx, ports.InputField{
			EventID:         eventID,
			Label:           label,
			FieldType:       string(field.Type),
			DefaultValue:    input.DefaultValue,
			ValidationRules: rules,
		})
		return err
	})
	if err != nil {
		err = storageFailure("add input field", err)
		s.logFailure(ctx, "add input field failed", err)
		return ports.InputField{}, err
	}

	logging.Info(ctx, "input field added", slog.Uint64("input_id", created.InputID), slog.String("field_type", created.FieldType))
	return created, nil
}

// AddStatistic stores a summary record with its visibility flag.
func (s *Service) AddStatistic(ctx context.Context, identity ports.Identity, eventID uint64, summaryType string, publicViewable bool) (ports.Statistic, error) {
	ctx, cancel, err := s.begin(ctx, "statistics")
	if err != nil {
		return ports.Statistic{}, err
	}
	defer cancel()
	ctx = logging.WithEvent(ctx, eventID, 0)

	if _, err := s.requireOwner(ctx, identity, eventID, "add statistics to"); err != nil {
		return ports.Statistic{}, err
	}
	summaryType = strings.TrimSpace(summaryType)
	if summaryType == "" {
		return ports.Statistic{}, &event.ValidationError{Fields: map[string][]event.Violation{
			"summary_type": {{Kind: event.ViolationMissingRequired}},
		}}
	}

	var created ports.Statistic
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.events.CreateStatistic(txCtx, ports.Statistic{
			EventID:        eventID,
			SummaryType:    summaryType,
			PublicViewable: publicViewable,
		})
		return err
	})
	if err != nil {
		err = storageFailure("add statistic", err)
		s.logFailure(ctx, "add statistic failed", err)
		return ports.Statistic{}, err
	}
	return created, nil
}

// JoinEvent makes the caller a participant of the event.
func (s *Service) JoinEvent(ctx context.Context, identity ports.Identity, eventID uint64) (ports.Participant, error) {
	ctx, cancel, err := s.begin(ctx, "participants")
	if err != nil {
		return ports.Participant{}, err
	}
	defer cancel()
	ctx = logging.WithAttrs(logging.WithEvent(ctx, eventID, 0), slog.Uint64("user_id", identity.UserID))

	if err := requireIdentity(identity, eventID, "join"); err != nil {
		return ports.Participant{}, err
	}
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return ports.Participant{}, err
	}
	if _, err := s.loadUser(ctx, identity.UserID); err != nil {
		return ports.Participant{}, err
	}
	if s.options().EnforceEligibilityOnJoin {
		result, err := s.evaluate(ctx, eventID, identity.UserID)
		if err != nil {
			return ports.Participant{}, err
		}
		if err := result.Err(); err != nil {
			s.logFailure(ctx, "join rejected", err)
			return ports.Participant{}, err
		}
	}

	var created ports.Participant
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.events.CreateParticipant(txCtx, ports.Participant{
			EventID:  eventID,
			UserID:   identity.UserID,
			JoinedAt: s.now(),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ports.ErrAlreadyExists) {
			return ports.Participant{}, &event.DuplicateParticipationError{EventID: eventID, UserID: identity.UserID}
		}
		err = storageFailure("join event", err)
		s.logFailure(ctx, "join event failed", err)
		return ports.Participant{}, err
	}

	logging.Info(ctx, "participant joined", slog.Uint64("participant_id", created.ParticipantID))
	s.publishBestEffort(ctx, ports.EventParticipantJoined, map[string]any{
		"event_id":       eventID,
		"participant_id": created.ParticipantID,
		"user_id":        identity.UserID,
	})
	return created, nil
}
