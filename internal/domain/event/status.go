package event

import (
	"fmt"
	"math"
	"strings"
)

type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

var allowedStatuses = map[string]Status{
	"open":   StatusOpen,
	"closed": StatusClosed,
}

// NormalizeStatus maps a case-insensitive status name to its canonical value.
func NormalizeStatus(raw string) (Status, error) {
	status, ok := allowedStatuses[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &ValidationError{Fields: map[string][]Violation{
			"status": {{Kind: ViolationOptionNotAllowed, Detail: fmt.Sprintf("unsupported status %q", raw)}},
		}}
	}
	return status, nil
}

// Role is the requester's relation to an event.
type Role string

const (
	RoleOwner Role = "owner"
	RoleOther Role = "other"
)

// RoleFor reports RoleOwner only when the requester created the event.
func RoleFor(requesterUserID uint64, creatorID uint64) Role {
	if requesterUserID != 0 && requesterUserID == creatorID {
		return RoleOwner
	}
	return RoleOther
}

// SubmissionRate is the percentage of participants that submitted, rounded to two decimals.
func SubmissionRate(participantCount int64, submissionCount int64) float64 {
	if participantCount <= 0 {
		return 0
	}
	rate := float64(submissionCount) / float64(participantCount) * 100
	return math.Round(rate*100) / 100
}
