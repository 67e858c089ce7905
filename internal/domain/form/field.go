package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"eventgate/internal/domain/event"
)

type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
)

const DateLayout = "2006-01-02"

// ErrInvalidDefault marks a default value that its own field would reject.
var ErrInvalidDefault = errors.New("invalid default value")

// NormalizeFieldType maps a case-insensitive type name to its canonical value.
func NormalizeFieldType(raw string) (FieldType, error) {
	switch t := FieldType(strings.ToLower(strings.TrimSpace(raw))); t {
	case FieldText, FieldNumber, FieldDate, FieldBoolean, FieldSelect:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported field type %q", raw)
	}
}

type RuleKind int

const (
	RuleRequired RuleKind = iota + 1
	RuleMin
	RuleMax
	RulePattern
	RuleOptions
)

// Rule is one parsed validation rule. Bound holds magnitude or length for min/max;
// Date holds the bound for date fields.
type Rule struct {
	Kind    RuleKind
	Bound   float64
	Date    time.Time
	Pattern *regexp.Regexp
	Options []string
}

// Field is an input field with its rules parsed once.
type Field struct {
	ID           uint64
	Label        string
	Type         FieldType
	DefaultValue *string
	Optional     bool
	Rules        []Rule
}

// Key is the reference used for the field in submitted values and error maps.
func (f Field) Key() string {
	return strconv.FormatUint(f.ID, 10)
}

type rawRules struct {
	Required *bool           `json:"required"`
	Optional *bool           `json:"optional"`
	Min      json.RawMessage `json:"min"`
	Max      json.RawMessage `json:"max"`
	Pattern  *string         `json:"pattern"`
	Options  []string        `json:"options"`
}

// Definition is the stored shape of an input field.
type Definition struct {
	ID              uint64
	Label           string
	FieldType       string
	DefaultValue    *string
	ValidationRules string
}

// ParseField parses a stored definition. Errors describe the offending rule.
func ParseField(def Definition) (Field, error) {
	fieldType, err := NormalizeFieldType(def.FieldType)
	if err != nil {
		return Field{}, err
	}
	field := Field{
		ID:           def.ID,
		Label:        def.Label,
		Type:         fieldType,
		DefaultValue: def.DefaultValue,
	}

	text := strings.TrimSpace(def.ValidationRules)
	if text == "" {
		text = "{}"
	}

	var raw rawRules
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return Field{}, fmt.Errorf("decode validation rules: %w", err)
	}

	if raw.Optional != nil {
		field.Optional = *raw.Optional
	}
	if raw.Required != nil && *raw.Required {
		if field.Optional {
			return Field{}, fmt.Errorf("field cannot be both required and optional")
		}
		field.Rules = append(field.Rules, Rule{Kind: RuleRequired})
	}

	for _, bound := range []struct {
		kind RuleKind
		raw  json.RawMessage
	}{{RuleMin, raw.Min}, {RuleMax, raw.Max}} {
		if len(bound.raw) == 0 || string(bound.raw) == "null" {
			continue
		}
		rule, err := parseBound(fieldType, bound.kind, bound.raw)
		if err != nil {
			return Field{}, err
		}
		field.Rules = append(field.Rules, rule)
	}

	if raw.Pattern != nil {
		if fieldType == FieldBoolean {
			return Field{}, fmt.Errorf("pattern is not supported for boolean fields")
		}
		re, err := regexp.Compile(*raw.Pattern)
		if err != nil {
			return Field{}, fmt.Errorf("compile pattern: %w", err)
		}
		field.Rules = append(field.Rules, Rule{Kind: RulePattern, Pattern: re})
	}

	if len(raw.Options) > 0 {
		if fieldType != FieldSelect {
			return Field{}, fmt.Errorf("options are only supported for select fields")
		}
		options := make([]string, 0, len(raw.Options))
		for _, opt := range raw.Options {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
		if len(options) == 0 {
			return Field{}, fmt.Errorf("select fields require options")
		}
		field.Rules = append(field.Rules, Rule{Kind: RuleOptions, Options: options})
	} else if fieldType == FieldSelect {
		return Field{}, fmt.Errorf("select fields require options")
	}

	if field.DefaultValue != nil {
		if _, violations := validateField(field, *field.DefaultValue); len(violations) > 0 {
			v := violations[0]
			if v.Detail != "" {
				return Field{}, fmt.Errorf("%w: %s: %s", ErrInvalidDefault, v.Kind, v.Detail)
			}
			return Field{}, fmt.Errorf("%w: %s", ErrInvalidDefault, v.Kind)
		}
	}

	return field, nil
}

// ParseFields parses every definition and reports all broken ones at once.
func ParseFields(defs []Definition) ([]Field, error) {
	fields := make([]Field, 0, len(defs))
	violations := make(map[string][]event.Violation)
	for _, def := range defs {
		field, err := ParseField(def)
		if err != nil {
			key := strconv.FormatUint(def.ID, 10)
			violations[key] = append(violations[key], event.Violation{Kind: event.ViolationInvalidRule, Detail: err.Error()})
			continue
		}
		fields = append(fields, field)
	}
	if len(violations) > 0 {
		return nil, &event.ValidationError{Fields: violations}
	}
	return fields, nil
}

func parseBound(fieldType FieldType, kind RuleKind, raw json.RawMessage) (Rule, error) {
	switch fieldType {
	case FieldBoolean:
		return Rule{}, fmt.Errorf("min/max are not supported for boolean fields")
	case FieldDate:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Rule{}, fmt.Errorf("date bound must be a %s string", DateLayout)
		}
		d, err := time.Parse(DateLayout, strings.TrimSpace(s))
		if err != nil {
			return Rule{}, fmt.Errorf("date bound must be a %s string", DateLayout)
		}
		return Rule{Kind: kind, Date: d}, nil
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Rule{}, fmt.Errorf("bound must be a number")
		}
		if fieldType != FieldNumber && n < 0 {
			return Rule{}, fmt.Errorf("length bound must not be negative")
		}
		return Rule{Kind: kind, Bound: n}, nil
	}
}
