package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventgate/internal/errs"
	"eventgate/internal/infrastructure/persistence/sqlite/model"
	"eventgate/internal/ports"
)

// CreateReminders inserts one reminder per participant for the batch. Rows
// already written for the same (event, participant, batch) are skipped, so a
// retried batch reports only the newly inserted count.
func (r *EventRepository) CreateReminders(ctx context.Context, input ports.ReminderCreate) (int64, error) {
	batchID := strings.TrimSpace(input.BatchID)
	if batchID == "" {
		return 0, errors.New("batch id is required")
	}
	if len(input.ParticipantIDs) == 0 {
		return 0, nil
	}

	rows := make([]model.Reminder, 0, len(input.ParticipantIDs))
	for _, participantID := range input.ParticipantIDs {
		rows = append(rows, model.Reminder{
			EventID:       input.EventID,
			ParticipantID: participantID,
			BatchID:       batchID,
			SentAt:        input.SentAt,
		})
	}

	var inserted int64
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		var owned []uint64
		if err := tx.Model(&model.Participant{}).
			Where("event_id = ? AND p_id IN ?", input.EventID, input.ParticipantIDs).
			Pluck("p_id", &owned).Error; err != nil {
			return errs.Wrap(err, "check reminder participants")
		}
		if id, ok := firstMissing(input.ParticipantIDs, owned); ok {
			return &ports.ForeignReferenceError{Entity: "participant", ID: id}
		}

		for i := range rows {
			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "event_id"},
					{Name: "p_id"},
					{Name: "batch_id"},
				},
				DoNothing: true,
			}).Create(&rows[i])
			if result.Error != nil {
				return errs.Wrap(result.Error, "insert reminder")
			}
			inserted += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListReminders returns the event's reminders, filtered to one batch when batchID is set.
func (r *EventRepository) ListReminders(ctx context.Context, eventID uint64, batchID string) ([]ports.Reminder, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Reminder{}).Where("event_id = ?", eventID)
	if batchID = strings.TrimSpace(batchID); batchID != "" {
		query = query.Where("batch_id = ?", batchID)
	}

	var rows []model.Reminder
	if err := query.Order("reminder_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reminders")
	}

	items := make([]ports.Reminder, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Reminder{
			ReminderID:    row.ReminderID,
			EventID:       row.EventID,
			ParticipantID: row.ParticipantID,
			BatchID:       row.BatchID,
			SentAt:        row.SentAt,
		})
	}
	return items, nil
}

// firstMissing returns the first requested id absent from found.
func firstMissing(requested []uint64, found []uint64) (uint64, bool) {
	present := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			return id, true
		}
	}
	return 0, false
}
