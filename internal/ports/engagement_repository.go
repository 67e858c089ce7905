package ports

import (
	"context"
	"time"
)

type User struct {
	UserID      uint64
	FirstName   string
	LastName    string
	Email       string
	Gender      string
	DateOfBirth *time.Time
	Attributes  map[string]string
	IsCreator   bool
}

type Event struct {
	EventID           uint64
	CreatorID         uint64
	Name              string
	Place             string
	StartDate         time.Time
	EndDate           time.Time
	DeadlineEnforced  bool
	UniqueSubmissions bool
	Status            string
	CreatedAt         time.Time
}

type Participant struct {
	ParticipantID uint64
	EventID       uint64
	UserID        uint64
	JoinedAt      time.Time
}

type Criterion struct {
	CriterionID uint64
	EventID     uint64
	RuleType    string
	RuleValue   string
}

type InputField struct {
	InputID         uint64
	EventID         uint64
	Label           string
	FieldType       string
	DefaultValue    *string
	ValidationRules string
}

type SubmissionValue struct {
	InputID uint64
	Value   string
}

type Submission struct {
	SubmissionID  uint64
	EventID       uint64
	ParticipantID uint64
	SubmittedAt   time.Time
	Values        []SubmissionValue
}

type SubmissionCreate struct {
	EventID       uint64
	ParticipantID uint64
	// Exclusive asks the store to guarantee one submission per (event, participant).
	Exclusive   bool
	SubmittedAt time.Time
	Values      []SubmissionValue
}

type Statistic struct {
	StatID         uint64 `json:"stat_id"`
	EventID        uint64 `json:"event_id"`
	SummaryType    string `json:"summary_type"`
	PublicViewable bool   `json:"public_viewable"`
}

type Reminder struct {
	ReminderID    uint64    `json:"reminder_id"`
	EventID       uint64    `json:"event_id"`
	ParticipantID uint64    `json:"participant_id"`
	BatchID       string    `json:"batch_id"`
	SentAt        time.Time `json:"sent_at"`
}

type ReminderCreate struct {
	EventID        uint64
	ParticipantIDs []uint64
	BatchID        string
	SentAt         time.Time
}

type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, userID uint64) (User, error)
}

type EventReadRepository interface {
	GetEvent(ctx context.Context, eventID uint64) (Event, error)
	ListEvents(ctx context.Context, creatorID uint64) ([]Event, error)
	ListCriteria(ctx context.Context, eventID uint64) ([]Criterion, error)
	ListInputFields(ctx context.Context, eventID uint64) ([]InputField, error)
	ListStatistics(ctx context.Context, eventID uint64, publicOnly bool) ([]Statistic, error)
	GetParticipant(ctx context.Context, participantID uint64) (Participant, error)
	FindParticipant(ctx context.Context, eventID uint64, userID uint64) (Participant, error)
	ListParticipants(ctx context.Context, eventID uint64) ([]Participant, error)
	CountParticipants(ctx context.Context, eventID uint64) (int64, error)
	CountSubmissions(ctx context.Context, eventID uint64) (int64, error)
	ListSubmissions(ctx context.Context, eventID uint64) ([]Submission, error)
	ListReminders(ctx context.Context, eventID uint64, batchID string) ([]Reminder, error)
}

type EventRepository interface {
	EventReadRepository
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEventStatus(ctx context.Context, eventID uint64, status string) error
	DeleteEvent(ctx context.Context, eventID uint64) error
	CreateCriterion(ctx context.Context, criterion Criterion) (Criterion, error)
	CreateInputField(ctx context.Context, field InputField) (InputField, error)
	CreateStatistic(ctx context.Context, stat Statistic) (Statistic, error)
	// CreateParticipant returns ErrAlreadyExists when the user already joined the event.
	CreateParticipant(ctx context.Context, participant Participant) (Participant, error)
	// CreateSubmission writes header and values together. With Exclusive set, a second
	// submission for the same pair returns ErrAlreadyExists.
	CreateSubmission(ctx context.Context, input SubmissionCreate) (Submission, error)
	// CreateReminders inserts one record per participant; triples already present for
	// the batch are left untouched.
	CreateReminders(ctx context.Context, input ReminderCreate) (int64, error)
}
