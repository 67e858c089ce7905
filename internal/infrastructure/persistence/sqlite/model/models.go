package model

// All lists every table in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Event{},
		&EligibilityCriterion{},
		&InputField{},
		&Participant{},
		&Submission{},
		&SubmissionValue{},
		&EventStatistic{},
		&Reminder{},
		&KV{},
	}
}
