package model

import "time"

type Participant struct {
	ParticipantID uint64    `gorm:"column:p_id;primaryKey;autoIncrement"`
	EventID       uint64    `gorm:"column:event_id;not null;uniqueIndex:idx_participants_event_user"`
	UserID        uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_participants_event_user"`
	JoinedAt      time.Time `gorm:"column:joined_at;not null"`

	Submissions []Submission `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE"`
	Reminders   []Reminder   `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE"`
}

func (Participant) TableName() string {
	return "participants"
}
