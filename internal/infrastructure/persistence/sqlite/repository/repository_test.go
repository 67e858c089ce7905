package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"eventgate/internal/bootstrap/config"
	"eventgate/internal/bootstrap/database"
	"eventgate/internal/ports"
)

type fixture struct {
	db     *gorm.DB
	users  *UserRepository
	events *EventRepository
}

func setupRepositories(t *testing.T) fixture {
	t.Helper()
	return setupRepositoriesWithPool(t, 1)
}

func setupRepositoriesWithPool(t *testing.T, maxOpenConns int) fixture {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "engine.sqlite"),
		MaxOpenConns: maxOpenConns,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return fixture{db: db, users: NewUserRepository(db), events: NewEventRepository(db)}
}

func seedEvent(t *testing.T, f fixture, unique bool) (ports.Event, ports.Participant, ports.InputField) {
	t.Helper()
	ctx := context.Background()

	creator, err := f.users.CreateUser(ctx, ports.User{FirstName: "Ada", LastName: "L", Email: "ada@example.com", IsCreator: true})
	if err != nil {
		t.Fatalf("create creator: %v", err)
	}
	member, err := f.users.CreateUser(ctx, ports.User{FirstName: "Bo", LastName: "K", Email: "bo@example.com"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	event, err := f.events.CreateEvent(ctx, ports.Event{
		CreatorID:         creator.UserID,
		Name:              "Spring run",
		StartDate:         start,
		EndDate:           start.Add(48 * time.Hour),
		UniqueSubmissions: unique,
		Status:            "Open",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	participant, err := f.events.CreateParticipant(ctx, ports.Participant{EventID: event.EventID, UserID: member.UserID, JoinedAt: start})
	if err != nil {
		t.Fatalf("create participant: %v", err)
	}

	field, err := f.events.CreateInputField(ctx, ports.InputField{EventID: event.EventID, Label: "Shirt", FieldType: "text", ValidationRules: "{}"})
	if err != nil {
		t.Fatalf("create input field: %v", err)
	}
	return event, participant, field
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()

	if _, err := f.users.CreateUser(ctx, ports.User{FirstName: "A", LastName: "B", Email: "a@example.com"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	_, err := f.users.CreateUser(ctx, ports.User{FirstName: "C", LastName: "D", Email: " A@Example.com "})
	if !errors.Is(err, ports.ErrAlreadyExists) {
		t.Fatalf("CreateUser(duplicate) error = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateUserKeepsAttributes(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()

	created, err := f.users.CreateUser(ctx, ports.User{
		FirstName:  "A",
		LastName:   "B",
		Email:      "attrs@example.com",
		Attributes: map[string]string{"country": "NL"},
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := f.users.GetUser(ctx, created.UserID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Attributes["country"] != "NL" {
		t.Fatalf("GetUser() attributes = %v", got.Attributes)
	}

	if _, err := f.users.GetUser(ctx, created.UserID+100); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreateParticipantRejectsSecondJoin(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, _ := seedEvent(t, f, true)

	_, err := f.events.CreateParticipant(ctx, ports.Participant{EventID: event.EventID, UserID: participant.UserID, JoinedAt: time.Now().UTC()})
	if !errors.Is(err, ports.ErrAlreadyExists) {
		t.Fatalf("CreateParticipant(second) error = %v, want ErrAlreadyExists", err)
	}

	found, err := f.events.FindParticipant(ctx, event.EventID, participant.UserID)
	if err != nil {
		t.Fatalf("FindParticipant() error = %v", err)
	}
	if found.ParticipantID != participant.ParticipantID {
		t.Fatalf("FindParticipant() = %d, want %d", found.ParticipantID, participant.ParticipantID)
	}
}

func TestCreateSubmissionExclusiveRejectsDuplicate(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, field := seedEvent(t, f, true)

	input := ports.SubmissionCreate{
		EventID:       event.EventID,
		ParticipantID: participant.ParticipantID,
		Exclusive:     true,
		SubmittedAt:   time.Now().UTC(),
		Values:        []ports.SubmissionValue{{InputID: field.InputID, Value: "M"}},
	}
	if _, err := f.events.CreateSubmission(ctx, input); err != nil {
		t.Fatalf("CreateSubmission(first) error = %v", err)
	}

	input.Values = []ports.SubmissionValue{{InputID: field.InputID, Value: "L"}}
	if _, err := f.events.CreateSubmission(ctx, input); !errors.Is(err, ports.ErrAlreadyExists) {
		t.Fatalf("CreateSubmission(second) error = %v, want ErrAlreadyExists", err)
	}

	items, err := f.events.ListSubmissions(ctx, event.EventID)
	if err != nil {
		t.Fatalf("ListSubmissions() error = %v", err)
	}
	if len(items) != 1 || len(items[0].Values) != 1 || items[0].Values[0].Value != "M" {
		t.Fatalf("ListSubmissions() = %+v", items)
	}
}

func TestCreateSubmissionExclusiveConcurrentWriters(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, field := seedEvent(t, f, true)

	const writers = 4
	errCh := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.events.CreateSubmission(ctx, ports.SubmissionCreate{
				EventID:       event.EventID,
				ParticipantID: participant.ParticipantID,
				Exclusive:     true,
				SubmittedAt:   time.Now().UTC(),
				Values:        []ports.SubmissionValue{{InputID: field.InputID, Value: "M"}},
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var ok, dup int
	for err := range errCh {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ports.ErrAlreadyExists):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != writers-1 {
		t.Fatalf("ok=%d dup=%d", ok, dup)
	}

	count, err := f.events.CountSubmissions(ctx, event.EventID)
	if err != nil {
		t.Fatalf("CountSubmissions() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("CountSubmissions() = %d, want 1", count)
	}
}

func TestCreateSubmissionNonExclusiveAllowsRepeats(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, field := seedEvent(t, f, false)

	for i := 0; i < 3; i++ {
		if _, err := f.events.CreateSubmission(ctx, ports.SubmissionCreate{
			EventID:       event.EventID,
			ParticipantID: participant.ParticipantID,
			SubmittedAt:   time.Now().UTC(),
			Values:        []ports.SubmissionValue{{InputID: field.InputID, Value: "S"}},
		}); err != nil {
			t.Fatalf("CreateSubmission(%d) error = %v", i, err)
		}
	}

	count, err := f.events.CountSubmissions(ctx, event.EventID)
	if err != nil {
		t.Fatalf("CountSubmissions() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("CountSubmissions() = %d, want 3", count)
	}
}

func TestCreateSubmissionRejectsForeignInput(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, _ := seedEvent(t, f, true)

	other, err := f.events.CreateEvent(ctx, ports.Event{
		CreatorID: event.CreatorID,
		Name:      "Other",
		StartDate: event.StartDate,
		EndDate:   event.EndDate,
		Status:    "Open",
	})
	if err != nil {
		t.Fatalf("create other event: %v", err)
	}
	foreign, err := f.events.CreateInputField(ctx, ports.InputField{EventID: other.EventID, Label: "X", FieldType: "text", ValidationRules: "{}"})
	if err != nil {
		t.Fatalf("create foreign field: %v", err)
	}

	_, err = f.events.CreateSubmission(ctx, ports.SubmissionCreate{
		EventID:       event.EventID,
		ParticipantID: participant.ParticipantID,
		Exclusive:     true,
		SubmittedAt:   time.Now().UTC(),
		Values:        []ports.SubmissionValue{{InputID: foreign.InputID, Value: "v"}},
	})
	var ref *ports.ForeignReferenceError
	if !errors.As(err, &ref) || ref.Entity != "input" || ref.ID != foreign.InputID {
		t.Fatalf("CreateSubmission() error = %v, want foreign input %d", err, foreign.InputID)
	}

	count, err := f.events.CountSubmissions(ctx, event.EventID)
	if err != nil {
		t.Fatalf("CountSubmissions() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("CountSubmissions() = %d, want 0 after rollback", count)
	}
}

func TestCreateRemindersIsIdempotentPerBatch(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, _ := seedEvent(t, f, true)

	input := ports.ReminderCreate{
		EventID:        event.EventID,
		ParticipantIDs: []uint64{participant.ParticipantID},
		BatchID:        "batch-1",
		SentAt:         time.Now().UTC(),
	}
	inserted, err := f.events.CreateReminders(ctx, input)
	if err != nil {
		t.Fatalf("CreateReminders() error = %v", err)
	}
	if inserted != 1 {
		t.Fatalf("CreateReminders() inserted = %d, want 1", inserted)
	}

	inserted, err = f.events.CreateReminders(ctx, input)
	if err != nil {
		t.Fatalf("CreateReminders(retry) error = %v", err)
	}
	if inserted != 0 {
		t.Fatalf("CreateReminders(retry) inserted = %d, want 0", inserted)
	}

	input.BatchID = "batch-2"
	if inserted, err = f.events.CreateReminders(ctx, input); err != nil || inserted != 1 {
		t.Fatalf("CreateReminders(new batch) inserted=%d err=%v", inserted, err)
	}

	all, err := f.events.ListReminders(ctx, event.EventID, "")
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListReminders() len = %d, want 2", len(all))
	}
}

func TestCreateRemindersRejectsForeignParticipant(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, _ := seedEvent(t, f, true)

	_, err := f.events.CreateReminders(ctx, ports.ReminderCreate{
		EventID:        event.EventID,
		ParticipantIDs: []uint64{participant.ParticipantID, participant.ParticipantID + 50},
		BatchID:        "b",
		SentAt:         time.Now().UTC(),
	})
	if !errors.Is(err, ports.ErrForeignReference) {
		t.Fatalf("CreateReminders() error = %v, want ErrForeignReference", err)
	}
	var ref *ports.ForeignReferenceError
	if !errors.As(err, &ref) || ref.Entity != "participant" || ref.ID != participant.ParticipantID+50 {
		t.Fatalf("CreateReminders() reference = %+v, want participant %d", ref, participant.ParticipantID+50)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, participant, field := seedEvent(t, f, true)

	if _, err := f.events.CreateCriterion(ctx, ports.Criterion{EventID: event.EventID, RuleType: "min_age", RuleValue: "18"}); err != nil {
		t.Fatalf("CreateCriterion() error = %v", err)
	}
	if _, err := f.events.CreateStatistic(ctx, ports.Statistic{EventID: event.EventID, SummaryType: "submission_rate", PublicViewable: true}); err != nil {
		t.Fatalf("CreateStatistic() error = %v", err)
	}
	if _, err := f.events.CreateSubmission(ctx, ports.SubmissionCreate{
		EventID:       event.EventID,
		ParticipantID: participant.ParticipantID,
		Exclusive:     true,
		SubmittedAt:   time.Now().UTC(),
		Values:        []ports.SubmissionValue{{InputID: field.InputID, Value: "M"}},
	}); err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}
	if _, err := f.events.CreateReminders(ctx, ports.ReminderCreate{
		EventID:        event.EventID,
		ParticipantIDs: []uint64{participant.ParticipantID},
		BatchID:        "b",
		SentAt:         time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateReminders() error = %v", err)
	}

	if err := f.events.DeleteEvent(ctx, event.EventID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}

	for _, table := range []string{"eligibility_criteria", "inputs", "participants", "submissions", "submission_values", "event_statistics", "reminders"} {
		var count int64
		if err := f.db.Table(table).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("%s has %d rows after delete", table, count)
		}
	}

	if _, err := f.events.GetEvent(ctx, event.EventID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetEvent() error = %v, want ErrNotFound", err)
	}
	if err := f.events.DeleteEvent(ctx, event.EventID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("DeleteEvent(again) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUserCascadesThroughParticipants(t *testing.T) {
	f := setupRepositoriesWithPool(t, 4)
	ctx := context.Background()
	event, participant, field := seedEvent(t, f, true)

	if _, err := f.events.CreateSubmission(ctx, ports.SubmissionCreate{
		EventID:       event.EventID,
		ParticipantID: participant.ParticipantID,
		Exclusive:     true,
		SubmittedAt:   time.Now().UTC(),
		Values:        []ports.SubmissionValue{{InputID: field.InputID, Value: "L"}},
	}); err != nil {
		t.Fatalf("CreateSubmission() error = %v", err)
	}
	if _, err := f.events.CreateReminders(ctx, ports.ReminderCreate{
		EventID:        event.EventID,
		ParticipantIDs: []uint64{participant.ParticipantID},
		BatchID:        "b",
		SentAt:         time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateReminders() error = %v", err)
	}

	err := f.db.Exec("INSERT INTO reminders (event_id, p_id, batch_id, sent_at) VALUES (?, ?, ?, ?)",
		event.EventID, participant.ParticipantID+99, "orphan", time.Now().UTC()).Error
	if err == nil {
		t.Fatalf("orphan reminder insert succeeded, foreign keys not enforced")
	}

	if err := f.db.Exec("DELETE FROM users WHERE user_id = ?", participant.UserID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	for _, table := range []string{"participants", "submissions", "submission_values", "reminders"} {
		var count int64
		if err := f.db.Table(table).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("%s has %d rows after participant's user was deleted", table, count)
		}
	}
	var inputs int64
	if err := f.db.Table("inputs").Count(&inputs).Error; err != nil {
		t.Fatalf("count inputs: %v", err)
	}
	if inputs != 1 {
		t.Fatalf("inputs = %d, event rows must survive", inputs)
	}
}

func TestListStatisticsPublicOnly(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()
	event, _, _ := seedEvent(t, f, true)

	if _, err := f.events.CreateStatistic(ctx, ports.Statistic{EventID: event.EventID, SummaryType: "participant_count", PublicViewable: true}); err != nil {
		t.Fatalf("CreateStatistic(public) error = %v", err)
	}
	if _, err := f.events.CreateStatistic(ctx, ports.Statistic{EventID: event.EventID, SummaryType: "submission_count", PublicViewable: false}); err != nil {
		t.Fatalf("CreateStatistic(private) error = %v", err)
	}

	public, err := f.events.ListStatistics(ctx, event.EventID, true)
	if err != nil {
		t.Fatalf("ListStatistics(public) error = %v", err)
	}
	if len(public) != 1 || public[0].SummaryType != "participant_count" {
		t.Fatalf("ListStatistics(public) = %+v", public)
	}

	all, err := f.events.ListStatistics(ctx, event.EventID, false)
	if err != nil {
		t.Fatalf("ListStatistics(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListStatistics(all) len = %d", len(all))
	}
}
