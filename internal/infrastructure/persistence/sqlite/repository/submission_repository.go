package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventgate/internal/errs"
	"eventgate/internal/infrastructure/persistence/sqlite/model"
	"eventgate/internal/ports"
)

// CreateSubmission writes the submission header and its values in one
// transaction. Exclusive submissions carry an exclusive key whose unique index
// lets exactly one concurrent writer win.
func (r *EventRepository) CreateSubmission(ctx context.Context, input ports.SubmissionCreate) (ports.Submission, error) {
	if input.EventID == 0 || input.ParticipantID == 0 {
		return ports.Submission{}, errors.New("event id and participant id are required")
	}

	row := model.Submission{
		EventID:       input.EventID,
		ParticipantID: input.ParticipantID,
		SubmittedAt:   input.SubmittedAt,
	}
	if input.Exclusive {
		key := exclusiveKey(input.EventID, input.ParticipantID)
		row.ExclusiveKey = &key
	}

	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		var participant model.Participant
		if err := tx.Where("p_id = ? AND event_id = ?", input.ParticipantID, input.EventID).Take(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return errs.Wrap(err, "query participant")
		}

		if err := ensureInputsBelong(tx, input.EventID, input.Values); err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "exclusive_key"}},
			DoNothing: true,
		}).Create(&row)
		if result.Error != nil {
			return errs.Wrap(result.Error, "insert submission")
		}
		if result.RowsAffected == 0 {
			return ports.ErrAlreadyExists
		}

		if len(input.Values) == 0 {
			return nil
		}
		values := make([]model.SubmissionValue, 0, len(input.Values))
		for _, value := range input.Values {
			values = append(values, model.SubmissionValue{
				SubmissionID: row.SubmissionID,
				InputID:      value.InputID,
				Value:        value.Value,
			})
		}
		if err := tx.Create(&values).Error; err != nil {
			return errs.Wrap(err, "insert submission values")
		}
		return nil
	})
	if err != nil {
		return ports.Submission{}, err
	}

	return ports.Submission{
		SubmissionID:  row.SubmissionID,
		EventID:       row.EventID,
		ParticipantID: row.ParticipantID,
		SubmittedAt:   row.SubmittedAt,
		Values:        append([]ports.SubmissionValue(nil), input.Values...),
	}, nil
}

func (r *EventRepository) CountSubmissions(ctx context.Context, eventID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Submission{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count submissions")
	}
	return count, nil
}

func (r *EventRepository) ListSubmissions(ctx context.Context, eventID uint64) ([]ports.Submission, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Submission
	if err := db.Where("event_id = ?", eventID).Order("submission_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query submissions")
	}
	if len(rows) == 0 {
		return []ports.Submission{}, nil
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.SubmissionID)
	}

	var valueRows []model.SubmissionValue
	if err := db.Where("submission_id IN ?", ids).Order("submission_id asc, input_id asc").Find(&valueRows).Error; err != nil {
		return nil, errs.Wrap(err, "query submission values")
	}

	valuesBySubmission := make(map[uint64][]ports.SubmissionValue, len(rows))
	for _, value := range valueRows {
		valuesBySubmission[value.SubmissionID] = append(valuesBySubmission[value.SubmissionID], ports.SubmissionValue{
			InputID: value.InputID,
			Value:   value.Value,
		})
	}

	items := make([]ports.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Submission{
			SubmissionID:  row.SubmissionID,
			EventID:       row.EventID,
			ParticipantID: row.ParticipantID,
			SubmittedAt:   row.SubmittedAt,
			Values:        valuesBySubmission[row.SubmissionID],
		})
	}
	return items, nil
}

func ensureInputsBelong(tx *gorm.DB, eventID uint64, values []ports.SubmissionValue) error {
	if len(values) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(values))
	seen := make(map[uint64]struct{}, len(values))
	for _, value := range values {
		if _, ok := seen[value.InputID]; ok {
			continue
		}
		seen[value.InputID] = struct{}{}
		ids = append(ids, value.InputID)
	}

	var owned []uint64
	if err := tx.Model(&model.InputField{}).
		Where("event_id = ? AND input_id IN ?", eventID, ids).
		Pluck("input_id", &owned).Error; err != nil {
		return errs.Wrap(err, "check submission inputs")
	}
	if id, ok := firstMissing(ids, owned); ok {
		return &ports.ForeignReferenceError{Entity: "input", ID: id}
	}
	return nil
}

func exclusiveKey(eventID, participantID uint64) string {
	return fmt.Sprintf("%d:%d", eventID, participantID)
}
