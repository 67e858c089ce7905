package eventfile

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

const tomlDoc = `
name = "Summer camp"
place = "Lake"
start_date = 2026-07-01T09:00:00Z
end_date = 2026-07-03T18:00:00Z
deadline_enforced = true
unique_submissions = false

[[criteria]]
rule_type = "min_age"
rule_value = "18"

[[inputs]]
label = "Shirt size"
type = "select"
rules = '{"options":["S","M","L"]}'

[[inputs]]
label = "Guests"
type = "number"
default = "0"

[[statistics]]
summary_type = "submission_rate"
public = true
`

const yamlDoc = `
name: Summer camp
start_date: 2026-07-01T09:00:00Z
end_date: 2026-07-03T18:00:00Z
criteria:
  - rule_type: email_domain
    rule_value: example.com
inputs:
  - label: Note
    type: text
    rules: '{"max":20}'
`

func TestDecodeTOML(t *testing.T) {
	def, err := Decode(strings.NewReader(tomlDoc), FormatTOML)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if def.Event.Name != "Summer camp" || !def.Event.DeadlineEnforced {
		t.Fatalf("event = %+v", def.Event)
	}
	if def.Event.UniqueSubmissions == nil || *def.Event.UniqueSubmissions {
		t.Fatalf("unique submissions = %v", def.Event.UniqueSubmissions)
	}
	if !def.Event.StartDate.Equal(time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("start date = %v", def.Event.StartDate)
	}
	if len(def.Criteria) != 1 || def.Criteria[0].RuleType != "min_age" || def.Criteria[0].RuleValue != "18" {
		t.Fatalf("criteria = %+v", def.Criteria)
	}
	if len(def.Inputs) != 2 || def.Inputs[0].ValidationRules != `{"options":["S","M","L"]}` {
		t.Fatalf("inputs = %+v", def.Inputs)
	}
	if def.Inputs[1].DefaultValue == nil || *def.Inputs[1].DefaultValue != "0" {
		t.Fatalf("input default = %v", def.Inputs[1].DefaultValue)
	}
	if len(def.Statistics) != 1 || !def.Statistics[0].PublicViewable {
		t.Fatalf("statistics = %+v", def.Statistics)
	}
}

func TestDecodeYAML(t *testing.T) {
	def, err := Decode(strings.NewReader(yamlDoc), FormatYAML)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if def.Event.UniqueSubmissions != nil {
		t.Fatalf("unique submissions should be unset")
	}
	if len(def.Criteria) != 1 || def.Criteria[0].RuleValue != "example.com" {
		t.Fatalf("criteria = %+v", def.Criteria)
	}
	if len(def.Inputs) != 1 || def.Inputs[0].FieldType != "text" {
		t.Fatalf("inputs = %+v", def.Inputs)
	}
}

func TestDecodeRejectsUnknownKeysAndMissingName(t *testing.T) {
	if _, err := Decode(strings.NewReader("name = \"x\"\ncolour = \"red\"\n"), FormatTOML); err == nil {
		t.Fatalf("expected error for unknown toml key")
	}
	if _, err := Decode(strings.NewReader("name: x\ncolour: red\n"), FormatYAML); err == nil {
		t.Fatalf("expected error for unknown yaml key")
	}
	if _, err := Decode(strings.NewReader("place: Lake\n"), FormatYAML); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if _, err := Decode(strings.NewReader(""), FormatYAML); err == nil {
		t.Fatalf("expected error for empty yaml")
	}
}

func TestEncodeThenDecodeKeepsDefinition(t *testing.T) {
	original, err := Decode(strings.NewReader(tomlDoc), FormatTOML)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	for _, format := range []Format{FormatTOML, FormatYAML} {
		var buf bytes.Buffer
		if err := Encode(&buf, format, original); err != nil {
			t.Fatalf("Encode(%s) error = %v", format, err)
		}
		again, err := Decode(&buf, format)
		if err != nil {
			t.Fatalf("Decode(%s) error = %v\n%s", format, err, buf.String())
		}
		if again.Event.Name != original.Event.Name || !again.Event.EndDate.Equal(original.Event.EndDate) {
			t.Fatalf("%s event = %+v", format, again.Event)
		}
		if len(again.Inputs) != 2 || again.Inputs[0].ValidationRules != original.Inputs[0].ValidationRules {
			t.Fatalf("%s inputs = %+v", format, again.Inputs)
		}
		if len(again.Criteria) != 1 || len(again.Statistics) != 1 {
			t.Fatalf("%s definition = %+v", format, again)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{"camp.toml": FormatTOML, "camp.yaml": FormatYAML, "CAMP.YML": FormatYAML}
	for path, want := range cases {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Fatalf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("camp.json"); err == nil {
		t.Fatalf("expected error for json")
	}
}
