package engagement

import (
	"context"

	"eventgate/internal/ports"
)

func (s *Service) ListCriteria(ctx context.Context, eventID uint64) ([]ports.Criterion, error) {
	ctx, cancel, err := s.begin(ctx, "criteria")
	if err != nil {
		return nil, err
	}
	defer cancel()

	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	items, err := s.events.ListCriteria(ctx, eventID)
	if err != nil {
		return nil, storageFailure("list criteria", err)
	}
	return items, nil
}

func (s *Service) ListInputFields(ctx context.Context, eventID uint64) ([]ports.InputField, error) {
	ctx, cancel, err := s.begin(ctx, "inputs")
	if err != nil {
		return nil, err
	}
	defer cancel()

	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	items, err := s.events.ListInputFields(ctx, eventID)
	if err != nil {
		return nil, storageFailure("list input fields", err)
	}
	return items, nil
}

// ListParticipants is visible to the event owner only.
func (s *Service) ListParticipants(ctx context.Context, identity ports.Identity, eventID uint64) ([]ports.Participant, error) {
	ctx, cancel, err := s.begin(ctx, "participants")
	if err != nil {
		return nil, err
	}
	defer cancel()

	if _, err := s.requireOwner(ctx, identity, eventID, "list participants of"); err != nil {
		return nil, err
	}
	items, err := s.events.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, storageFailure("list participants", err)
	}
	return items, nil
}

// ListSubmissions returns every submission with its values to the event owner.
func (s *Service) ListSubmissions(ctx context.Context, identity ports.Identity, eventID uint64) ([]ports.Submission, error) {
	ctx, cancel, err := s.begin(ctx, "submission")
	if err != nil {
		return nil, err
	}
	defer cancel()

	if _, err := s.requireOwner(ctx, identity, eventID, "list submissions of"); err != nil {
		return nil, err
	}
	items, err := s.events.ListSubmissions(ctx, eventID)
	if err != nil {
		return nil, storageFailure("list submissions", err)
	}
	return items, nil
}
