package eligibility

import (
	"errors"
	"testing"
	"time"

	"eventgate/internal/domain/event"
)

func date(t *testing.T, raw string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t.Fatalf("parse date %q: %v", raw, err)
	}
	return &parsed
}

func TestEvaluateReportsEveryFailedRule(t *testing.T) {
	at := *date(t, "2026-06-01")
	profile := Profile{
		UserID:      1,
		Email:       "ana@example.org",
		Gender:      "Female",
		DateOfBirth: date(t, "2010-01-01"),
	}
	criteria := []Criterion{
		{ID: 1, RuleType: "min_age", RuleValue: "18"},
		{ID: 2, RuleType: "gender_in", RuleValue: "male, other"},
		{ID: 3, RuleType: "email_domain", RuleValue: "example.org"},
		{ID: 4, RuleType: "favourite_colour", RuleValue: "blue"},
	}

	got := EvaluateCriteria(profile, criteria, at)
	if got.Eligible {
		t.Fatalf("expected ineligible")
	}
	if len(got.FailedRules) != 3 {
		t.Fatalf("failed rules = %#v", got.FailedRules)
	}
	want := []struct {
		id     uint64
		reason string
	}{
		{1, ReasonNotSatisfied},
		{2, ReasonNotSatisfied},
		{4, ReasonUnknownRule},
	}
	for i, w := range want {
		if got.FailedRules[i].CriterionID != w.id || got.FailedRules[i].Reason != w.reason {
			t.Fatalf("failed[%d] = %#v, want id=%d reason=%s", i, got.FailedRules[i], w.id, w.reason)
		}
	}
}

func TestEvaluateIsAndOfPredicates(t *testing.T) {
	at := *date(t, "2026-06-01")
	profile := Profile{
		Gender:      "MALE",
		DateOfBirth: date(t, "2000-06-01"),
		Attributes:  map[string]string{"Country": "PT"},
	}
	rules := []Criterion{
		{ID: 1, RuleType: "min_age", RuleValue: "26"},
		{ID: 2, RuleType: "max_age", RuleValue: "26"},
		{ID: 3, RuleType: "gender", RuleValue: "male"},
		{ID: 4, RuleType: "attribute_in", RuleValue: "country=pt,es"},
	}

	for i := range rules {
		single := EvaluateCriteria(profile, rules[i:i+1], at)
		if !single.Eligible {
			t.Fatalf("rule %d alone failed: %#v", rules[i].ID, single.FailedRules)
		}
	}
	if got := EvaluateCriteria(profile, rules, at); !got.Eligible {
		t.Fatalf("combined rules failed: %#v", got.FailedRules)
	}

	again := EvaluateCriteria(profile, rules, at)
	if !again.Eligible || len(again.FailedRules) != 0 {
		t.Fatalf("evaluation is not deterministic: %#v", again)
	}
}

func TestEvaluateEmptyRuleSetIsEligible(t *testing.T) {
	got := Evaluate(Profile{}, nil, time.Now())
	if !got.Eligible || len(got.FailedRules) != 0 {
		t.Fatalf("Evaluate() = %#v", got)
	}
}

func TestEvaluateMissingProfileValues(t *testing.T) {
	got := EvaluateCriteria(Profile{}, []Criterion{
		{ID: 1, RuleType: "min_age", RuleValue: "10"},
		{ID: 2, RuleType: "gender", RuleValue: "female"},
		{ID: 3, RuleType: "attribute_equals", RuleValue: "team=red"},
	}, time.Now())
	if len(got.FailedRules) != 3 {
		t.Fatalf("failed rules = %#v", got.FailedRules)
	}
	for _, f := range got.FailedRules {
		if f.Reason != ReasonMissingProperty {
			t.Fatalf("reason = %q", f.Reason)
		}
	}
}

func TestEvaluateInvalidOperandFailsClosed(t *testing.T) {
	got := EvaluateCriteria(Profile{DateOfBirth: date(t, "1990-01-01")}, []Criterion{
		{ID: 9, RuleType: "min_age", RuleValue: "adult"},
	}, time.Now())
	if got.Eligible || got.FailedRules[0].Reason != ReasonInvalidOperand {
		t.Fatalf("Evaluate() = %#v", got)
	}
}

func TestAgeAtBirthdayBoundary(t *testing.T) {
	birth := *date(t, "2008-03-15")
	if age := AgeAt(birth, *date(t, "2026-03-14")); age != 17 {
		t.Fatalf("day before birthday age = %d", age)
	}
	if age := AgeAt(birth, *date(t, "2026-03-15")); age != 18 {
		t.Fatalf("birthday age = %d", age)
	}
}

func TestParseRule(t *testing.T) {
	rule, err := ParseRule(Criterion{RuleType: "Attribute_Equals", RuleValue: " team = Red "})
	if err != nil {
		t.Fatalf("ParseRule() error = %v", err)
	}
	if rule.Kind != RuleAttributeEquals || rule.Key != "team" || rule.Values[0] != "Red" {
		t.Fatalf("ParseRule() = %#v", rule)
	}

	_, err = ParseRule(Criterion{RuleType: "zodiac", RuleValue: "leo"})
	var unknown *event.UnknownRuleError
	if !errors.As(err, &unknown) || unknown.RuleType != "zodiac" {
		t.Fatalf("ParseRule() error = %v, want UnknownRuleError", err)
	}

	if _, err := ParseRule(Criterion{RuleType: "gender_in", RuleValue: " , "}); err == nil {
		t.Fatalf("expected empty set to be rejected")
	}
}
