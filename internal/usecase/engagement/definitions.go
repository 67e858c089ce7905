package engagement

import (
	"context"
	"log/slog"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/ports"
)

// EventDefinition describes an event together with everything its owner
// configures on it, in the order it is applied.
type EventDefinition struct {
	Event      CreateEventInput
	Criteria   []CriterionDefinition
	Inputs     []AddInputFieldInput
	Statistics []StatisticDefinition
}

type CriterionDefinition struct {
	RuleType  string
	RuleValue string
}

type StatisticDefinition struct {
	SummaryType    string
	PublicViewable bool
}

// ImportEvent creates the event and all of its configuration in one
// transaction. Any rejected part rolls the whole definition back.
func (s *Service) ImportEvent(ctx context.Context, identity ports.Identity, def EventDefinition) (ports.Event, error) {
	ctx, cancel, err := s.begin(ctx, "definitions")
	if err != nil {
		return ports.Event{}, err
	}
	defer cancel()

	var created ports.Event
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		ev, err := s.CreateEvent(txCtx, identity, def.Event)
		if err != nil {
			return err
		}
		for _, c := range def.Criteria {
			if _, err := s.AddCriterion(txCtx, identity, ev.EventID, c.RuleType, c.RuleValue); err != nil {
				return err
			}
		}
		for _, in := range def.Inputs {
			if _, err := s.AddInputField(txCtx, identity, ev.EventID, in); err != nil {
				return err
			}
		}
		for _, st := range def.Statistics {
			if _, err := s.AddStatistic(txCtx, identity, ev.EventID, st.SummaryType, st.PublicViewable); err != nil {
				return err
			}
		}
		created = ev
		return nil
	})
	if err != nil {
		err = storageFailure("import event", err)
		s.logFailure(ctx, "import event failed", err)
		return ports.Event{}, err
	}

	logging.Info(
		logging.WithEvent(ctx, created.EventID, 0),
		"event imported",
		slog.Int("criteria", len(def.Criteria)),
		slog.Int("inputs", len(def.Inputs)),
		slog.Int("statistics", len(def.Statistics)),
	)
	return created, nil
}

// ExportEvent returns the owner's view of an event as a definition that
// ImportEvent accepts.
func (s *Service) ExportEvent(ctx context.Context, identity ports.Identity, eventID uint64) (EventDefinition, error) {
	ctx, cancel, err := s.begin(ctx, "definitions")
	if err != nil {
		return EventDefinition{}, err
	}
	defer cancel()

	ev, err := s.requireOwner(ctx, identity, eventID, "export")
	if err != nil {
		return EventDefinition{}, err
	}
	criteria, err := s.events.ListCriteria(ctx, eventID)
	if err != nil {
		return EventDefinition{}, storageFailure("list criteria", err)
	}
	inputs, err := s.events.ListInputFields(ctx, eventID)
	if err != nil {
		return EventDefinition{}, storageFailure("list input fields", err)
	}
	stats, err := s.events.ListStatistics(ctx, eventID, false)
	if err != nil {
		return EventDefinition{}, storageFailure("list statistics", err)
	}

	unique := ev.UniqueSubmissions
	def := EventDefinition{
		Event: CreateEventInput{
			Name:              ev.Name,
			Place:             ev.Place,
			StartDate:         ev.StartDate,
			EndDate:           ev.EndDate,
			DeadlineEnforced:  ev.DeadlineEnforced,
			UniqueSubmissions: &unique,
		},
		Criteria:   make([]CriterionDefinition, 0, len(criteria)),
		Inputs:     make([]AddInputFieldInput, 0, len(inputs)),
		Statistics: make([]StatisticDefinition, 0, len(stats)),
	}
	for _, c := range criteria {
		def.Criteria = append(def.Criteria, CriterionDefinition{RuleType: c.RuleType, RuleValue: c.RuleValue})
	}
	for _, f := range inputs {
		def.Inputs = append(def.Inputs, AddInputFieldInput{
			Label:           f.Label,
			FieldType:       f.FieldType,
			DefaultValue:    f.DefaultValue,
			ValidationRules: f.ValidationRules,
		})
	}
	for _, st := range stats {
		def.Statistics = append(def.Statistics, StatisticDefinition{SummaryType: st.SummaryType, PublicViewable: st.PublicViewable})
	}
	return def, nil
}
