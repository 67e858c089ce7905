package eligibility

import (
	"fmt"
	"strconv"
	"strings"

	"eventgate/internal/domain/event"
)

type RuleKind int

const (
	RuleUnknown RuleKind = iota
	RuleMinAge
	RuleMaxAge
	RuleGenderEquals
	RuleGenderIn
	RuleAttributeEquals
	RuleAttributeIn
	RuleEmailDomain
)

const (
	ReasonUnknownRule     = "unknown_rule"
	ReasonInvalidOperand  = "invalid_operand"
	ReasonNotSatisfied    = "not_satisfied"
	ReasonMissingProperty = "missing_profile_value"
)

var ruleKinds = map[string]RuleKind{
	"min_age":          RuleMinAge,
	"max_age":          RuleMaxAge,
	"gender":           RuleGenderEquals,
	"gender_equals":    RuleGenderEquals,
	"gender_in":        RuleGenderIn,
	"attribute_equals": RuleAttributeEquals,
	"attribute_in":     RuleAttributeIn,
	"email_domain":     RuleEmailDomain,
}

// Rule is the parsed form of an eligibility criterion.
// Only the operand fields that belong to Kind are populated.
type Rule struct {
	CriterionID uint64
	Type        string
	Kind        RuleKind
	Years       int
	Key         string
	Values      []string

	// Invalid is set when a known rule carries an operand that cannot be parsed.
	Invalid error
}

type Criterion struct {
	ID        uint64
	RuleType  string
	RuleValue string
}

// ParseRule converts the stored text encoding into a typed rule.
func ParseRule(c Criterion) (Rule, error) {
	ruleType := strings.ToLower(strings.TrimSpace(c.RuleType))
	rule := Rule{CriterionID: c.ID, Type: ruleType}

	kind, ok := ruleKinds[ruleType]
	if !ok {
		return rule, &event.UnknownRuleError{RuleType: c.RuleType}
	}
	rule.Kind = kind

	value := strings.TrimSpace(c.RuleValue)
	switch kind {
	case RuleMinAge, RuleMaxAge:
		years, err := strconv.Atoi(value)
		if err != nil || years < 0 {
			return rule, fmt.Errorf("rule %s expects a non-negative integer, got %q", ruleType, c.RuleValue)
		}
		rule.Years = years
	case RuleGenderEquals:
		if value == "" {
			return rule, fmt.Errorf("rule %s expects a value", ruleType)
		}
		rule.Values = []string{value}
	case RuleGenderIn, RuleEmailDomain:
		rule.Values = splitSet(value)
		if len(rule.Values) == 0 {
			return rule, fmt.Errorf("rule %s expects at least one value", ruleType)
		}
	case RuleAttributeEquals, RuleAttributeIn:
		key, rest, found := strings.Cut(value, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return rule, fmt.Errorf("rule %s expects key=value, got %q", ruleType, c.RuleValue)
		}
		rule.Key = key
		if kind == RuleAttributeEquals {
			rule.Values = []string{strings.TrimSpace(rest)}
		} else {
			rule.Values = splitSet(rest)
		}
		if len(rule.Values) == 0 || rule.Values[0] == "" {
			return rule, fmt.Errorf("rule %s expects at least one value", ruleType)
		}
	}
	return rule, nil
}

// ParseRules parses every criterion. Unparseable criteria are kept as failing rules.
func ParseRules(criteria []Criterion) []Rule {
	rules := make([]Rule, 0, len(criteria))
	for _, c := range criteria {
		rule, err := ParseRule(c)
		if err != nil {
			rule.Invalid = err
		}
		rules = append(rules, rule)
	}
	return rules
}

func splitSet(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			out = append(out, token)
		}
	}
	return out
}
