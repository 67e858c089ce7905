package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eventgate/internal/errs"
	"eventgate/internal/infrastructure/persistence/sqlite/model"
	"eventgate/internal/ports"
)

type EventRepository struct {
	db *gorm.DB
}

var _ ports.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event ports.Event) (ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Event{}, err
	}

	row := model.Event{
		CreatorID:         event.CreatorID,
		Name:              event.Name,
		Place:             event.Place,
		StartDate:         event.StartDate,
		EndDate:           event.EndDate,
		DeadlineEnforced:  event.DeadlineEnforced,
		UniqueSubmissions: event.UniqueSubmissions,
		Status:            event.Status,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Event{}, errs.Wrap(err, "insert event")
	}
	return mapEvent(row), nil
}

func (r *EventRepository) GetEvent(ctx context.Context, eventID uint64) (ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Event{}, err
	}

	var row model.Event
	if err := db.Where("event_id = ?", eventID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Event{}, ports.ErrNotFound
		}
		return ports.Event{}, errs.Wrap(err, "query event")
	}
	return mapEvent(row), nil
}

// ListEvents returns all events, or only the creator's when creatorID is set.
func (r *EventRepository) ListEvents(ctx context.Context, creatorID uint64) ([]ports.Event, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Event{})
	if creatorID != 0 {
		query = query.Where("creator_id = ?", creatorID)
	}

	var rows []model.Event
	if err := query.Order("event_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query events")
	}

	items := make([]ports.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvent(row))
	}
	return items, nil
}

func (r *EventRepository) UpdateEventStatus(ctx context.Context, eventID uint64, status string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Event{}).Where("event_id = ?", eventID).Update("status", status)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update event status")
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// DeleteEvent removes the event; foreign keys cascade to every dependent row.
func (r *EventRepository) DeleteEvent(ctx context.Context, eventID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Where("event_id = ?", eventID).Delete(&model.Event{})
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete event")
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *EventRepository) CreateCriterion(ctx context.Context, criterion ports.Criterion) (ports.Criterion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Criterion{}, err
	}

	row := model.EligibilityCriterion{
		EventID:   criterion.EventID,
		RuleType:  criterion.RuleType,
		RuleValue: criterion.RuleValue,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Criterion{}, errs.Wrap(err, "insert eligibility criterion")
	}
	return mapCriterion(row), nil
}

func (r *EventRepository) ListCriteria(ctx context.Context, eventID uint64) ([]ports.Criterion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.EligibilityCriterion
	if err := db.Where("event_id = ?", eventID).Order("criteria_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query eligibility criteria")
	}

	items := make([]ports.Criterion, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCriterion(row))
	}
	return items, nil
}

func (r *EventRepository) CreateInputField(ctx context.Context, field ports.InputField) (ports.InputField, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.InputField{}, err
	}

	row := model.InputField{
		EventID:         field.EventID,
		Label:           field.Label,
		FieldType:       field.FieldType,
		DefaultValue:    field.DefaultValue,
		ValidationRules: field.ValidationRules,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.InputField{}, errs.Wrap(err, "insert input field")
	}
	return mapInputField(row), nil
}

func (r *EventRepository) ListInputFields(ctx context.Context, eventID uint64) ([]ports.InputField, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.InputField
	if err := db.Where("event_id = ?", eventID).Order("input_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query input fields")
	}

	items := make([]ports.InputField, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapInputField(row))
	}
	return items, nil
}

func (r *EventRepository) CreateStatistic(ctx context.Context, stat ports.Statistic) (ports.Statistic, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Statistic{}, err
	}

	row := model.EventStatistic{
		EventID:        stat.EventID,
		SummaryType:    stat.SummaryType,
		PublicViewable: stat.PublicViewable,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Statistic{}, errs.Wrap(err, "insert event statistic")
	}
	return mapStatistic(row), nil
}

func (r *EventRepository) ListStatistics(ctx context.Context, eventID uint64, publicOnly bool) ([]ports.Statistic, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.EventStatistic{}).Where("event_id = ?", eventID)
	if publicOnly {
		query = query.Where("public_viewable = ?", true)
	}

	var rows []model.EventStatistic
	if err := query.Order("stat_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query event statistics")
	}

	items := make([]ports.Statistic, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapStatistic(row))
	}
	return items, nil
}

func (r *EventRepository) CreateParticipant(ctx context.Context, participant ports.Participant) (ports.Participant, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Participant{}, err
	}

	row := model.Participant{
		EventID:  participant.EventID,
		UserID:   participant.UserID,
		JoinedAt: participant.JoinedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return ports.Participant{}, errs.Wrap(result.Error, "insert participant")
	}
	if result.RowsAffected == 0 {
		return ports.Participant{}, ports.ErrAlreadyExists
	}
	return mapParticipant(row), nil
}

func (r *EventRepository) GetParticipant(ctx context.Context, participantID uint64) (ports.Participant, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Participant{}, err
	}
	return takeParticipant(db.Where("p_id = ?", participantID))
}

func (r *EventRepository) FindParticipant(ctx context.Context, eventID uint64, userID uint64) (ports.Participant, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Participant{}, err
	}
	return takeParticipant(db.Where("event_id = ? AND user_id = ?", eventID, userID))
}

func (r *EventRepository) ListParticipants(ctx context.Context, eventID uint64) ([]ports.Participant, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Participant
	if err := db.Where("event_id = ?", eventID).Order("p_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query participants")
	}

	items := make([]ports.Participant, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapParticipant(row))
	}
	return items, nil
}

func (r *EventRepository) CountParticipants(ctx context.Context, eventID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Participant{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count participants")
	}
	return count, nil
}

func takeParticipant(query *gorm.DB) (ports.Participant, error) {
	var row model.Participant
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Participant{}, ports.ErrNotFound
		}
		return ports.Participant{}, errs.Wrap(err, "query participant")
	}
	return mapParticipant(row), nil
}

func mapEvent(row model.Event) ports.Event {
	return ports.Event{
		EventID:           row.EventID,
		CreatorID:         row.CreatorID,
		Name:              row.Name,
		Place:             row.Place,
		StartDate:         row.StartDate,
		EndDate:           row.EndDate,
		DeadlineEnforced:  row.DeadlineEnforced,
		UniqueSubmissions: row.UniqueSubmissions,
		Status:            row.Status,
		CreatedAt:         row.CreatedAt,
	}
}

func mapCriterion(row model.EligibilityCriterion) ports.Criterion {
	return ports.Criterion{
		CriterionID: row.CriterionID,
		EventID:     row.EventID,
		RuleType:    row.RuleType,
		RuleValue:   row.RuleValue,
	}
}

func mapInputField(row model.InputField) ports.InputField {
	return ports.InputField{
		InputID:         row.InputID,
		EventID:         row.EventID,
		Label:           row.Label,
		FieldType:       row.FieldType,
		DefaultValue:    row.DefaultValue,
		ValidationRules: row.ValidationRules,
	}
}

func mapStatistic(row model.EventStatistic) ports.Statistic {
	return ports.Statistic{
		StatID:         row.StatID,
		EventID:        row.EventID,
		SummaryType:    row.SummaryType,
		PublicViewable: row.PublicViewable,
	}
}

func mapParticipant(row model.Participant) ports.Participant {
	return ports.Participant{
		ParticipantID: row.ParticipantID,
		EventID:       row.EventID,
		UserID:        row.UserID,
		JoinedAt:      row.JoinedAt,
	}
}
