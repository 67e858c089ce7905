package engagement

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/event"
	"eventgate/internal/ports"
)

type DispatchInput struct {
	EventID        uint64
	ParticipantIDs []uint64
	// BatchID names the dispatch; reusing it retries the batch without
	// duplicating records. Empty starts a new batch.
	BatchID string
}

// DispatchReminders records one reminder per target participant. With no
// participant ids the targets are the event's participants at call time.
func (s *Service) DispatchReminders(ctx context.Context, identity ports.Identity, input DispatchInput) ([]ports.Reminder, error) {
	ctx, cancel, err := s.begin(ctx, "reminders")
	if err != nil {
		return nil, err
	}
	defer cancel()

	batchID := strings.TrimSpace(input.BatchID)
	if batchID == "" {
		batchID = uuid.NewString()
	}
	ctx = logging.WithAttrs(logging.WithEvent(ctx, input.EventID, 0), slog.String("batch_id", batchID))

	if _, err := s.requireOwner(ctx, identity, input.EventID, "send reminders for"); err != nil {
		return nil, err
	}

	snapshot, err := s.events.ListParticipants(ctx, input.EventID)
	if err != nil {
		return nil, storageFailure("list participants", err)
	}
	targets, err := resolveTargets(snapshot, input.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		logging.Info(ctx, "no reminder targets")
		return []ports.Reminder{}, nil
	}

	var inserted int64
	var records []ports.Reminder
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		inserted, err = s.events.CreateReminders(txCtx, ports.ReminderCreate{
			EventID:        input.EventID,
			ParticipantIDs: targets,
			BatchID:        batchID,
			SentAt:         s.now(),
		})
		if err != nil {
			return err
		}
		records, err = s.events.ListReminders(txCtx, input.EventID, batchID)
		return err
	})
	if err != nil {
		var ref *ports.ForeignReferenceError
		if errors.As(err, &ref) {
			err = &event.NotFoundError{Entity: ref.Entity, ID: ref.ID}
		}
		err = storageFailure("dispatch reminders", err)
		s.logFailure(ctx, "dispatch reminders failed", err)
		return nil, err
	}

	s.setCacheBestEffort(ctx, cacheReminderBatchKey(input.EventID), batchID)
	logging.Info(ctx, "reminders dispatched", slog.Int("targets", len(targets)), slog.Int64("inserted", inserted))
	dispatched := filterReminders(records, targets)
	if inserted > 0 {
		s.publishBestEffort(ctx, ports.EventRemindersDispatched, map[string]any{
			"event_id":     input.EventID,
			"batch_id":     batchID,
			"participants": targets,
			"inserted":     inserted,
		})
	}
	return dispatched, nil
}

// ListReminders returns the event's reminder records, optionally for one batch.
func (s *Service) ListReminders(ctx context.Context, identity ports.Identity, eventID uint64, batchID string) ([]ports.Reminder, error) {
	ctx, cancel, err := s.begin(ctx, "reminders")
	if err != nil {
		return nil, err
	}
	defer cancel()

	if _, err := s.requireOwner(ctx, identity, eventID, "view reminders for"); err != nil {
		return nil, err
	}
	records, err := s.events.ListReminders(ctx, eventID, batchID)
	if err != nil {
		return nil, storageFailure("list reminders", err)
	}
	return records, nil
}

// resolveTargets checks requested ids against the participant snapshot, in
// request order and without repeats.
func resolveTargets(snapshot []ports.Participant, requested []uint64) ([]uint64, error) {
	if len(requested) == 0 {
		targets := make([]uint64, 0, len(snapshot))
		for _, p := range snapshot {
			targets = append(targets, p.ParticipantID)
		}
		return targets, nil
	}

	members := make(map[uint64]struct{}, len(snapshot))
	for _, p := range snapshot {
		members[p.ParticipantID] = struct{}{}
	}

	seen := make(map[uint64]struct{}, len(requested))
	targets := make([]uint64, 0, len(requested))
	for _, id := range requested {
		if _, ok := members[id]; !ok {
			return nil, &event.NotFoundError{Entity: "participant", ID: id}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	return targets, nil
}

func filterReminders(records []ports.Reminder, targets []uint64) []ports.Reminder {
	wanted := make(map[uint64]struct{}, len(targets))
	for _, id := range targets {
		wanted[id] = struct{}{}
	}
	out := make([]ports.Reminder, 0, len(targets))
	for _, r := range records {
		if _, ok := wanted[r.ParticipantID]; ok {
			out = append(out, r)
		}
	}
	return out
}
