package form

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"eventgate/internal/domain/event"
)

// Value is a coerced submitted value in canonical text form.
type Value struct {
	InputID uint64 `json:"input_id"`
	Value   string `json:"value"`
}

type Result struct {
	OK     bool
	Values []Value
	Errors map[string][]event.Violation
}

// Err returns a ValidationError when the result is not OK.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &event.ValidationError{Fields: r.Errors}
}

// Validate checks every submitted value against the declared fields in one pass.
// Values come back in field declaration order, one per field that has a value.
func Validate(fields []Field, submitted map[string]string) Result {
	errors := make(map[string][]event.Violation)
	declared := make(map[string]struct{}, len(fields))
	values := make([]Value, 0, len(fields))

	for _, field := range fields {
		key := field.Key()
		declared[key] = struct{}{}

		raw, present := submitted[key]
		if present && strings.TrimSpace(raw) == "" && field.Type != FieldText {
			present = false
		}
		if !present && field.DefaultValue != nil {
			raw, present = *field.DefaultValue, true
		}
		if !present {
			if !field.Optional {
				errors[key] = append(errors[key], event.Violation{Kind: event.ViolationMissingRequired})
			}
			continue
		}

		canonical, violations := validateField(field, raw)
		if len(violations) > 0 {
			errors[key] = append(errors[key], violations...)
			continue
		}
		values = append(values, Value{InputID: field.ID, Value: canonical})
	}

	unknown := make([]string, 0)
	for key := range submitted {
		if _, ok := declared[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errors[key] = append(errors[key], event.Violation{Kind: event.ViolationUnknownField, Detail: "input does not belong to this event"})
	}

	if len(errors) > 0 {
		return Result{OK: false, Errors: errors}
	}
	return Result{OK: true, Values: values, Errors: errors}
}

type coerced struct {
	text   string
	number float64
	date   time.Time
}

func validateField(field Field, raw string) (string, []event.Violation) {
	value, err := coerce(field, raw)
	if err != nil {
		return "", []event.Violation{{Kind: event.ViolationTypeMismatch, Detail: err.Error()}}
	}

	violations := make([]event.Violation, 0)
	for _, rule := range field.Rules {
		if v, ok := applyRule(field.Type, rule, &value); !ok {
			violations = append(violations, v)
		}
	}
	return value.text, violations
}

func coerce(field Field, raw string) (coerced, error) {
	switch field.Type {
	case FieldText:
		return coerced{text: raw}, nil
	case FieldNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return coerced{}, fmt.Errorf("%q is not a number", raw)
		}
		return coerced{text: strconv.FormatFloat(n, 'f', -1, 64), number: n}, nil
	case FieldDate:
		d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
		if err != nil {
			return coerced{}, fmt.Errorf("%q is not a %s date", raw, DateLayout)
		}
		return coerced{text: d.Format(DateLayout), date: d}, nil
	case FieldBoolean:
		b, ok := parseBool(raw)
		if !ok {
			return coerced{}, fmt.Errorf("%q is not a boolean", raw)
		}
		return coerced{text: strconv.FormatBool(b)}, nil
	case FieldSelect:
		return coerced{text: strings.TrimSpace(raw)}, nil
	}
	return coerced{}, fmt.Errorf("unsupported field type %q", field.Type)
}

func applyRule(fieldType FieldType, rule Rule, value *coerced) (event.Violation, bool) {
	switch rule.Kind {
	case RuleRequired:
		if strings.TrimSpace(value.text) == "" {
			return event.Violation{Kind: event.ViolationMissingRequired}, false
		}
	case RuleMin, RuleMax:
		return checkBound(fieldType, rule, value)
	case RulePattern:
		if !rule.Pattern.MatchString(value.text) {
			return event.Violation{Kind: event.ViolationPatternMismatch, Detail: rule.Pattern.String()}, false
		}
	case RuleOptions:
		for _, opt := range rule.Options {
			if strings.EqualFold(opt, value.text) {
				value.text = opt
				return event.Violation{}, true
			}
		}
		return event.Violation{Kind: event.ViolationOptionNotAllowed, Detail: strings.Join(rule.Options, ",")}, false
	}
	return event.Violation{}, true
}

func checkBound(fieldType FieldType, rule Rule, value *coerced) (event.Violation, bool) {
	isMin := rule.Kind == RuleMin
	var below, above bool
	var detail string

	switch fieldType {
	case FieldNumber:
		below, above = value.number < rule.Bound, value.number > rule.Bound
		detail = strconv.FormatFloat(rule.Bound, 'f', -1, 64)
	case FieldDate:
		below, above = value.date.Before(rule.Date), value.date.After(rule.Date)
		detail = rule.Date.Format(DateLayout)
	default:
		length := float64(utf8.RuneCountInString(value.text))
		below, above = length < rule.Bound, length > rule.Bound
		detail = "length " + strconv.FormatFloat(rule.Bound, 'f', -1, 64)
	}

	if isMin && below {
		return event.Violation{Kind: event.ViolationBelowMin, Detail: detail}, false
	}
	if !isMin && above {
		return event.Violation{Kind: event.ViolationAboveMax, Detail: detail}, false
	}
	return event.Violation{}, true
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	}
	return false, false
}
