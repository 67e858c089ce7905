package model

import "time"

// Submission.ExclusiveKey is "<event>:<participant>" when the event enforces one
// submission per participant and NULL otherwise; the unique index is the race guard.
type Submission struct {
	SubmissionID  uint64    `gorm:"column:submission_id;primaryKey;autoIncrement"`
	EventID       uint64    `gorm:"column:event_id;not null;index"`
	ParticipantID uint64    `gorm:"column:p_id;not null;index"`
	ExclusiveKey  *string   `gorm:"column:exclusive_key;type:text;uniqueIndex"`
	SubmittedAt   time.Time `gorm:"column:submitted_at;not null"`

	Values []SubmissionValue `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (Submission) TableName() string {
	return "submissions"
}

type SubmissionValue struct {
	ValueID      uint64 `gorm:"column:suva_id;primaryKey;autoIncrement"`
	SubmissionID uint64 `gorm:"column:submission_id;not null;uniqueIndex:idx_submission_values_input"`
	InputID      uint64 `gorm:"column:input_id;not null;uniqueIndex:idx_submission_values_input"`
	Value        string `gorm:"column:value;type:text;not null"`
}

func (SubmissionValue) TableName() string {
	return "submission_values"
}
