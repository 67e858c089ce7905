package engagement

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/event"
	"eventgate/internal/domain/form"
	"eventgate/internal/ports"
)

type SubmissionReceipt struct {
	SubmissionID  uint64       `json:"submission_id"`
	EventID       uint64       `json:"event_id"`
	ParticipantID uint64       `json:"participant_id"`
	Values        []form.Value `json:"values"`
}

// ValidateAndSubmit validates the caller's responses against the event's input
// fields and records them. Responses are keyed by input id.
func (s *Service) ValidateAndSubmit(ctx context.Context, identity ports.Identity, eventID uint64, responses map[string]string) (SubmissionReceipt, error) {
	ctx, cancel, err := s.begin(ctx, "submission")
	if err != nil {
		return SubmissionReceipt{}, err
	}
	defer cancel()

	if err := requireIdentity(identity, eventID, "submit to"); err != nil {
		return SubmissionReceipt{}, err
	}

	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return SubmissionReceipt{}, err
	}
	participant, err := s.events.FindParticipant(ctx, eventID, identity.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return SubmissionReceipt{}, &event.NotFoundError{Entity: "participant", ID: identity.UserID}
		}
		return SubmissionReceipt{}, storageFailure("find participant", err)
	}
	ctx = logging.WithEvent(ctx, eventID, participant.ParticipantID)

	opts := s.options()
	if opts.EnforceDeadline && ev.DeadlineEnforced && s.now().After(ev.EndDate) {
		err := &event.DeadlineError{EventID: eventID}
		s.logFailure(ctx, "submission rejected", err)
		return SubmissionReceipt{}, err
	}
	if opts.EnforceEligibilityOnSubmit {
		result, err := s.evaluate(ctx, eventID, identity.UserID)
		if err != nil {
			return SubmissionReceipt{}, err
		}
		if err := result.Err(); err != nil {
			s.logFailure(ctx, "submission rejected", err)
			return SubmissionReceipt{}, err
		}
	}

	fields, err := s.loadFields(ctx, eventID)
	if err != nil {
		return SubmissionReceipt{}, err
	}
	validated := form.Validate(fields, responses)
	if err := validated.Err(); err != nil {
		s.logFailure(ctx, "submission rejected", err)
		return SubmissionReceipt{}, err
	}

	submissionID, err := s.record(ctx, ev, participant.ParticipantID, validated.Values)
	if err != nil {
		s.logFailure(ctx, "record submission failed", err)
		return SubmissionReceipt{}, err
	}

	logging.Info(ctx, "submission recorded", slog.Uint64("submission_id", submissionID), slog.Int("values", len(validated.Values)))
	return SubmissionReceipt{
		SubmissionID:  submissionID,
		EventID:       eventID,
		ParticipantID: participant.ParticipantID,
		Values:        validated.Values,
	}, nil
}

// RecordSubmission persists already validated values for a participant. It
// does not re-check content; the event's uniqueness policy is enforced by the store.
func (s *Service) RecordSubmission(ctx context.Context, eventID uint64, participantID uint64, values []form.Value) (uint64, error) {
	ctx, cancel, err := s.begin(ctx, "submission")
	if err != nil {
		return 0, err
	}
	defer cancel()
	ctx = logging.WithEvent(ctx, eventID, participantID)

	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	submissionID, err := s.record(ctx, ev, participantID, values)
	if err != nil {
		s.logFailure(ctx, "record submission failed", err)
		return 0, err
	}
	return submissionID, nil
}

func (s *Service) record(ctx context.Context, ev ports.Event, participantID uint64, values []form.Value) (uint64, error) {
	rows := make([]ports.SubmissionValue, 0, len(values))
	for _, v := range values {
		rows = append(rows, ports.SubmissionValue{InputID: v.InputID, Value: v.Value})
	}

	var created ports.Submission
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.events.CreateSubmission(txCtx, ports.SubmissionCreate{
			EventID:       ev.EventID,
			ParticipantID: participantID,
			Exclusive:     ev.UniqueSubmissions,
			SubmittedAt:   s.now(),
			Values:        rows,
		})
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrAlreadyExists):
		return 0, &event.DuplicateSubmissionError{EventID: ev.EventID, ParticipantID: participantID}
	case errors.Is(err, ports.ErrNotFound):
		return 0, &event.NotFoundError{Entity: "participant", ID: participantID}
	case errors.Is(err, ports.ErrForeignReference):
		return 0, foreignInputError(err, values)
	default:
		return 0, storageFailure("record submission", err)
	}

	s.setCacheBestEffort(ctx, cacheSubmissionKey(ev.EventID, participantID), strconv.FormatUint(created.SubmissionID, 10))
	s.publishBestEffort(ctx, ports.EventSubmissionRecorded, map[string]any{
		"event_id":       ev.EventID,
		"participant_id": participantID,
		"submission_id":  created.SubmissionID,
		"values":         len(values),
	})
	return created.SubmissionID, nil
}

func (s *Service) loadFields(ctx context.Context, eventID uint64) ([]form.Field, error) {
	stored, err := s.events.ListInputFields(ctx, eventID)
	if err != nil {
		return nil, storageFailure("list input fields", err)
	}

	defs := make([]form.Definition, 0, len(stored))
	for _, f := range stored {
		defs = append(defs, definitionOf(f))
	}
	return form.ParseFields(defs)
}

func definitionOf(f ports.InputField) form.Definition {
	return form.Definition{
		ID:              f.InputID,
		Label:           f.Label,
		FieldType:       f.FieldType,
		DefaultValue:    f.DefaultValue,
		ValidationRules: f.ValidationRules,
	}
}

func foreignInputError(err error, values []form.Value) error {
	violation := event.Violation{Kind: event.ViolationUnknownField, Detail: "input does not belong to this event"}
	var ref *ports.ForeignReferenceError
	if errors.As(err, &ref) {
		return &event.ValidationError{Fields: map[string][]event.Violation{
			strconv.FormatUint(ref.ID, 10): {violation},
		}}
	}
	fields := make(map[string][]event.Violation, len(values))
	for _, v := range values {
		key := strconv.FormatUint(v.InputID, 10)
		fields[key] = append(fields[key], violation)
	}
	return &event.ValidationError{Fields: fields}
}
