package eligibility

import (
	"strings"
	"time"

	"eventgate/internal/domain/event"
)

// Profile is an immutable snapshot of the attributes rules can inspect.
type Profile struct {
	UserID      uint64
	Email       string
	Gender      string
	DateOfBirth *time.Time
	Attributes  map[string]string
}

type Result struct {
	Eligible    bool
	FailedRules []event.FailedRule
}

// Evaluate applies every rule to the profile at the reference time.
// All rules run so the full failure set is reported; an empty rule set is eligible.
func Evaluate(profile Profile, rules []Rule, at time.Time) Result {
	failed := make([]event.FailedRule, 0)
	for _, rule := range rules {
		if ok, reason := check(profile, rule, at); !ok {
			failed = append(failed, event.FailedRule{
				CriterionID: rule.CriterionID,
				RuleType:    rule.Type,
				Reason:      reason,
			})
		}
	}
	return Result{Eligible: len(failed) == 0, FailedRules: failed}
}

// EvaluateCriteria parses and evaluates stored criteria in one call.
func EvaluateCriteria(profile Profile, criteria []Criterion, at time.Time) Result {
	return Evaluate(profile, ParseRules(criteria), at)
}

func check(p Profile, rule Rule, at time.Time) (bool, string) {
	if rule.Kind == RuleUnknown {
		return false, ReasonUnknownRule
	}
	if rule.Invalid != nil {
		return false, ReasonInvalidOperand
	}

	switch rule.Kind {
	case RuleMinAge, RuleMaxAge:
		if p.DateOfBirth == nil {
			return false, ReasonMissingProperty
		}
		age := AgeAt(*p.DateOfBirth, at)
		if rule.Kind == RuleMinAge {
			return satisfied(age >= rule.Years)
		}
		return satisfied(age <= rule.Years)
	case RuleGenderEquals, RuleGenderIn:
		if strings.TrimSpace(p.Gender) == "" {
			return false, ReasonMissingProperty
		}
		return satisfied(containsFold(rule.Values, p.Gender))
	case RuleAttributeEquals, RuleAttributeIn:
		value, ok := lookupFold(p.Attributes, rule.Key)
		if !ok {
			return false, ReasonMissingProperty
		}
		return satisfied(containsFold(rule.Values, value))
	case RuleEmailDomain:
		_, domain, found := strings.Cut(strings.TrimSpace(p.Email), "@")
		if !found || domain == "" {
			return false, ReasonMissingProperty
		}
		return satisfied(containsFold(rule.Values, domain))
	}
	return false, ReasonUnknownRule
}

// AgeAt returns completed years between birth and at.
func AgeAt(birth time.Time, at time.Time) int {
	birth = birth.UTC()
	at = at.UTC()
	years := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}
	return years
}

func satisfied(ok bool) (bool, string) {
	if ok {
		return true, ""
	}
	return false, ReasonNotSatisfied
}

func containsFold(values []string, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	for _, v := range values {
		if strings.EqualFold(v, candidate) {
			return true
		}
	}
	return false
}

func lookupFold(attrs map[string]string, key string) (string, bool) {
	if v, ok := attrs[key]; ok {
		return v, true
	}
	for k, v := range attrs {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
