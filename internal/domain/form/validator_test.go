package form

import (
	"errors"
	"testing"

	"eventgate/internal/domain/event"
)

func strPtr(s string) *string { return &s }

func mustFields(t *testing.T, defs ...Definition) []Field {
	t.Helper()
	fields, err := ParseFields(defs)
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	return fields
}

func kinds(violations []event.Violation) []event.ViolationKind {
	out := make([]event.ViolationKind, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Kind)
	}
	return out
}

func TestValidateCoercesAndKeepsDeclarationOrder(t *testing.T) {
	fields := mustFields(t,
		Definition{ID: 1, Label: "Name", FieldType: "text", ValidationRules: `{"required": true, "min": 2, "max": 20}`},
		Definition{ID: 2, Label: "Age", FieldType: "number", ValidationRules: `{"min": 0, "max": 120}`},
		Definition{ID: 3, Label: "Arrival", FieldType: "date"},
		Definition{ID: 4, Label: "Vegetarian", FieldType: "boolean"},
		Definition{ID: 5, Label: "Shirt", FieldType: "select", ValidationRules: `{"options": ["S", "M", "L"]}`},
	)

	got := Validate(fields, map[string]string{
		"5": " m ",
		"1": "Ana",
		"2": "030.50",
		"3": "2026-07-01",
		"4": "yes",
	})
	if !got.OK {
		t.Fatalf("Validate() errors = %#v", got.Errors)
	}
	want := []Value{
		{InputID: 1, Value: "Ana"},
		{InputID: 2, Value: "30.5"},
		{InputID: 3, Value: "2026-07-01"},
		{InputID: 4, Value: "true"},
		{InputID: 5, Value: "M"},
	}
	if len(got.Values) != len(want) {
		t.Fatalf("values = %#v", got.Values)
	}
	for i := range want {
		if got.Values[i] != want[i] {
			t.Fatalf("values[%d] = %#v, want %#v", i, got.Values[i], want[i])
		}
	}
}

func TestValidateCollectsEveryError(t *testing.T) {
	fields := mustFields(t,
		Definition{ID: 1, Label: "Code", FieldType: "text", ValidationRules: `{"min": 5, "pattern": "^[0-9]+$"}`},
		Definition{ID: 2, Label: "Age", FieldType: "number", ValidationRules: `{"max": 10}`},
		Definition{ID: 3, Label: "Email", FieldType: "text"},
		Definition{ID: 4, Label: "Arrival", FieldType: "date", ValidationRules: `{"min": "2026-01-01"}`},
	)

	got := Validate(fields, map[string]string{
		"1":  "ab",
		"2":  "eleven",
		"4":  "2025-12-31",
		"99": "foreign",
	})
	if got.OK {
		t.Fatalf("expected validation failure")
	}
	if len(got.Values) != 0 {
		t.Fatalf("values must be empty on failure: %#v", got.Values)
	}

	expect := map[string][]event.ViolationKind{
		"1":  {event.ViolationBelowMin, event.ViolationPatternMismatch},
		"2":  {event.ViolationTypeMismatch},
		"3":  {event.ViolationMissingRequired},
		"4":  {event.ViolationBelowMin},
		"99": {event.ViolationUnknownField},
	}
	if len(got.Errors) != len(expect) {
		t.Fatalf("errors = %#v", got.Errors)
	}
	for key, wantKinds := range expect {
		gotKinds := kinds(got.Errors[key])
		if len(gotKinds) != len(wantKinds) {
			t.Fatalf("errors[%s] = %v, want %v", key, gotKinds, wantKinds)
		}
		for i := range wantKinds {
			if gotKinds[i] != wantKinds[i] {
				t.Fatalf("errors[%s] = %v, want %v", key, gotKinds, wantKinds)
			}
		}
	}

	var verr *event.ValidationError
	if !errors.As(got.Err(), &verr) || len(verr.Fields) != len(expect) {
		t.Fatalf("Err() = %v", got.Err())
	}
}

func TestValidateOptionalAndDefaults(t *testing.T) {
	fields := mustFields(t,
		Definition{ID: 1, Label: "Notes", FieldType: "text", ValidationRules: `{"optional": true}`},
		Definition{ID: 2, Label: "Guests", FieldType: "number", DefaultValue: strPtr("0")},
		Definition{ID: 3, Label: "Size", FieldType: "select", ValidationRules: `{"optional": true, "options": ["S"]}`},
	)

	got := Validate(fields, map[string]string{"3": "  "})
	if !got.OK {
		t.Fatalf("Validate() errors = %#v", got.Errors)
	}
	if len(got.Values) != 1 || got.Values[0] != (Value{InputID: 2, Value: "0"}) {
		t.Fatalf("values = %#v", got.Values)
	}
}

func TestParseFieldAcceptsMatchingDefault(t *testing.T) {
	field, err := ParseField(Definition{ID: 1, FieldType: "select", DefaultValue: strPtr("M"), ValidationRules: `{"options": ["S", "M"]}`})
	if err != nil {
		t.Fatalf("ParseField() error = %v", err)
	}
	if field.DefaultValue == nil || *field.DefaultValue != "M" {
		t.Fatalf("default = %v", field.DefaultValue)
	}

	if _, err := ParseField(Definition{ID: 2, FieldType: "text"}); err != nil {
		t.Fatalf("ParseField(no rules) error = %v", err)
	}
}

func TestValidateRequiredRejectsBlankText(t *testing.T) {
	fields := mustFields(t, Definition{ID: 1, Label: "Name", FieldType: "text", ValidationRules: `{"required": true}`})

	got := Validate(fields, map[string]string{"1": "   "})
	if got.OK || got.Errors["1"][0].Kind != event.ViolationMissingRequired {
		t.Fatalf("Validate() = %#v", got)
	}
}

func TestParseFieldRejectsBadDefinitions(t *testing.T) {
	cases := []Definition{
		{ID: 1, FieldType: "color"},
		{ID: 2, FieldType: "select"},
		{ID: 3, FieldType: "boolean", ValidationRules: `{"min": 1}`},
		{ID: 4, FieldType: "text", ValidationRules: `{"pattern": "("}`},
		{ID: 5, FieldType: "text", ValidationRules: `{"options": ["a"]}`},
		{ID: 6, FieldType: "date", ValidationRules: `{"max": 5}`},
		{ID: 7, FieldType: "text", ValidationRules: `{"maxLength": 5}`},
		{ID: 8, FieldType: "text", ValidationRules: `{"required": true, "optional": true}`},
		{ID: 9, FieldType: "select", ValidationRules: `{"options": ["  "]}`},
		{ID: 10, FieldType: "number", DefaultValue: strPtr("abc")},
		{ID: 11, FieldType: "select", DefaultValue: strPtr("XL"), ValidationRules: `{"options": ["S", "M"]}`},
		{ID: 12, FieldType: "text", DefaultValue: strPtr("toolong"), ValidationRules: `{"max": 3}`},
	}
	for _, def := range cases {
		if _, err := ParseField(def); err == nil {
			t.Fatalf("ParseField(%d) expected error", def.ID)
		}
	}

	_, err := ParseFields(cases)
	var verr *event.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != len(cases) {
		t.Fatalf("ParseFields() error = %v", err)
	}
}
