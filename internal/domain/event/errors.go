package event

import (
	"fmt"
	"sort"
	"strings"

	"eventgate/internal/errs"
)

const (
	KindValidation             errs.Kind = "validation"
	KindEligibility            errs.Kind = "eligibility"
	KindDuplicateSubmission    errs.Kind = "duplicate_submission"
	KindDuplicateParticipation errs.Kind = "duplicate_participation"
	KindNotFound               errs.Kind = "not_found"
	KindAuthorization          errs.Kind = "authorization"
	KindUnknownRule            errs.Kind = "unknown_rule"
	KindDeadlinePassed         errs.Kind = "deadline_passed"
	KindStorage                errs.Kind = "storage"
)

type ViolationKind string

const (
	ViolationTypeMismatch     ViolationKind = "type_mismatch"
	ViolationMissingRequired  ViolationKind = "missing_required"
	ViolationUnknownField     ViolationKind = "unknown_field"
	ViolationBelowMin         ViolationKind = "below_min"
	ViolationAboveMax         ViolationKind = "above_max"
	ViolationPatternMismatch  ViolationKind = "pattern_mismatch"
	ViolationOptionNotAllowed ViolationKind = "option_not_allowed"
	ViolationInvalidRule      ViolationKind = "invalid_rule"
	ViolationAlreadyTaken     ViolationKind = "already_taken"
)

type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Detail string        `json:"detail,omitempty"`
}

// ValidationError carries every field violation found, keyed by field reference.
type ValidationError struct {
	Fields map[string][]Violation
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		kinds := make([]string, 0, len(e.Fields[key]))
		for _, v := range e.Fields[key] {
			kinds = append(kinds, string(v.Kind))
		}
		parts = append(parts, key+"="+strings.Join(kinds, "|"))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Kind() errs.Kind { return KindValidation }

type FailedRule struct {
	CriterionID uint64 `json:"criterion_id"`
	RuleType    string `json:"rule_type"`
	Reason      string `json:"reason"`
}

// EligibilityError lists every rule the profile failed.
type EligibilityError struct {
	FailedRules []FailedRule
}

func (e *EligibilityError) Error() string {
	types := make([]string, 0, len(e.FailedRules))
	for _, r := range e.FailedRules {
		types = append(types, r.RuleType)
	}
	return "not eligible: " + strings.Join(types, ", ")
}

func (e *EligibilityError) Kind() errs.Kind { return KindEligibility }

type DuplicateSubmissionError struct {
	EventID       uint64
	ParticipantID uint64
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("participant %d already submitted to event %d", e.ParticipantID, e.EventID)
}

func (e *DuplicateSubmissionError) Kind() errs.Kind { return KindDuplicateSubmission }

type DuplicateParticipationError struct {
	EventID uint64
	UserID  uint64
}

func (e *DuplicateParticipationError) Error() string {
	return fmt.Sprintf("user %d already participates in event %d", e.UserID, e.EventID)
}

func (e *DuplicateParticipationError) Kind() errs.Kind { return KindDuplicateParticipation }

type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Kind() errs.Kind { return KindNotFound }

type AuthorizationError struct {
	UserID  uint64
	EventID uint64
	Action  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not authorized to %s event %d", e.UserID, e.Action, e.EventID)
}

func (e *AuthorizationError) Kind() errs.Kind { return KindAuthorization }

type UnknownRuleError struct {
	RuleType string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown eligibility rule %q", e.RuleType)
}

func (e *UnknownRuleError) Kind() errs.Kind { return KindUnknownRule }

type DeadlineError struct {
	EventID uint64
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("submission deadline for event %d has passed", e.EventID)
}

func (e *DeadlineError) Kind() errs.Kind { return KindDeadlinePassed }

// StorageError hides transaction failure details behind a generic kind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s", e.Op)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Kind() errs.Kind { return KindStorage }
