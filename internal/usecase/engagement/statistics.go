package engagement

import (
	"context"
	"log/slog"

	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/domain/event"
	"eventgate/internal/ports"
)

type ComputedStatistics struct {
	ParticipantCount int64   `json:"participant_count"`
	SubmissionCount  int64   `json:"submission_count"`
	SubmissionRate   float64 `json:"submission_rate"`
}

type StatisticsPayload struct {
	EventID  uint64             `json:"event_id"`
	Role     event.Role         `json:"role"`
	Stored   []ports.Statistic  `json:"stored"`
	Computed ComputedStatistics `json:"computed"`
}

// GetStatistics resolves the caller's role for the event and computes its statistics.
func (s *Service) GetStatistics(ctx context.Context, identity ports.Identity, eventID uint64) (StatisticsPayload, error) {
	ctx, cancel, err := s.begin(ctx, "statistics")
	if err != nil {
		return StatisticsPayload{}, err
	}
	defer cancel()

	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return StatisticsPayload{}, err
	}
	return s.computeStatistics(logging.WithEvent(ctx, eventID, 0), eventID, event.RoleFor(identity.UserID, ev.CreatorID))
}

// ComputeStatistics combines stored summary rows visible to role with live
// counts. The two counts are separate reads and may briefly disagree.
func (s *Service) ComputeStatistics(ctx context.Context, eventID uint64, role event.Role) (StatisticsPayload, error) {
	ctx, cancel, err := s.begin(ctx, "statistics")
	if err != nil {
		return StatisticsPayload{}, err
	}
	defer cancel()

	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return StatisticsPayload{}, err
	}
	return s.computeStatistics(logging.WithEvent(ctx, eventID, 0), eventID, role)
}

func (s *Service) computeStatistics(ctx context.Context, eventID uint64, role event.Role) (StatisticsPayload, error) {
	stored, err := s.events.ListStatistics(ctx, eventID, role != event.RoleOwner)
	if err != nil {
		return StatisticsPayload{}, storageFailure("list statistics", err)
	}
	participants, err := s.events.CountParticipants(ctx, eventID)
	if err != nil {
		return StatisticsPayload{}, storageFailure("count participants", err)
	}
	submissions, err := s.events.CountSubmissions(ctx, eventID)
	if err != nil {
		return StatisticsPayload{}, storageFailure("count submissions", err)
	}

	payload := StatisticsPayload{
		EventID: eventID,
		Role:    role,
		Stored:  stored,
		Computed: ComputedStatistics{
			ParticipantCount: participants,
			SubmissionCount:  submissions,
			SubmissionRate:   event.SubmissionRate(participants, submissions),
		},
	}
	logging.Debug(ctx, "statistics computed", slog.String("role", string(role)), slog.Int("stored", len(stored)))
	return payload, nil
}
