package ports

import "context"

// Publisher announces engine facts after they are committed. Delivery is
// best-effort; callers never roll back on a publish failure.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

const (
	EventSubmissionRecorded  = "submission.recorded"
	EventParticipantJoined   = "participant.joined"
	EventRemindersDispatched = "reminders.dispatched"
)
