package model

import "time"

// The slice fields below declare the child foreign keys with ON DELETE CASCADE
// for migration only; repositories never preload or save them.
type Event struct {
	EventID           uint64    `gorm:"column:event_id;primaryKey;autoIncrement"`
	CreatorID         uint64    `gorm:"column:creator_id;not null;index"`
	Name              string    `gorm:"column:event_name;type:text;not null"`
	Place             string    `gorm:"column:event_place;type:text"`
	StartDate         time.Time `gorm:"column:event_start_date;not null"`
	EndDate           time.Time `gorm:"column:event_end_date;not null"`
	DeadlineEnforced  bool      `gorm:"column:deadline_enforced;not null;default:false"`
	UniqueSubmissions bool      `gorm:"column:unique_submissions;not null"`
	Status            string    `gorm:"column:status;type:text;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;not null;autoCreateTime"`

	Criteria     []EligibilityCriterion `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Inputs       []InputField           `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Statistics   []EventStatistic       `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Participants []Participant          `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Submissions  []Submission           `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Reminders    []Reminder             `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

func (Event) TableName() string {
	return "events"
}

type EligibilityCriterion struct {
	CriterionID uint64 `gorm:"column:criteria_id;primaryKey;autoIncrement"`
	EventID     uint64 `gorm:"column:event_id;not null;index"`
	RuleType    string `gorm:"column:rule_type;type:text;not null"`
	RuleValue   string `gorm:"column:rule_value;type:text;not null"`
}

func (EligibilityCriterion) TableName() string {
	return "eligibility_criteria"
}

type InputField struct {
	InputID         uint64  `gorm:"column:input_id;primaryKey;autoIncrement"`
	EventID         uint64  `gorm:"column:event_id;not null;index"`
	Label           string  `gorm:"column:label;type:text;not null"`
	FieldType       string  `gorm:"column:field_type;type:text;not null"`
	DefaultValue    *string `gorm:"column:default_value;type:text"`
	ValidationRules string  `gorm:"column:validation_rules;type:text;not null"`

	Values []SubmissionValue `gorm:"foreignKey:InputID;constraint:OnDelete:CASCADE"`
}

func (InputField) TableName() string {
	return "inputs"
}

type EventStatistic struct {
	StatID         uint64 `gorm:"column:stat_id;primaryKey;autoIncrement"`
	EventID        uint64 `gorm:"column:event_id;not null;index"`
	SummaryType    string `gorm:"column:summary_type;type:text;not null"`
	PublicViewable bool   `gorm:"column:public_viewable;not null"`
}

func (EventStatistic) TableName() string {
	return "event_statistics"
}
