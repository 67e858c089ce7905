package model

import "time"

type Reminder struct {
	ReminderID    uint64    `gorm:"column:reminder_id;primaryKey;autoIncrement"`
	EventID       uint64    `gorm:"column:event_id;not null;uniqueIndex:idx_reminders_batch"`
	ParticipantID uint64    `gorm:"column:p_id;not null;uniqueIndex:idx_reminders_batch"`
	BatchID       string    `gorm:"column:batch_id;type:text;not null;uniqueIndex:idx_reminders_batch"`
	SentAt        time.Time `gorm:"column:sent_at;not null"`
}

func (Reminder) TableName() string {
	return "reminders"
}
