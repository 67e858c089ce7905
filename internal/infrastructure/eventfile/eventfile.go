// Package eventfile reads and writes event definitions as TOML or YAML
// documents so events can be versioned next to the rest of a deployment.
package eventfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"eventgate/internal/errs"
	"eventgate/internal/usecase/engagement"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported event file extension %q", filepath.Ext(path))
	}
}

type document struct {
	Name              string      `toml:"name" yaml:"name"`
	Place             string      `toml:"place,omitempty" yaml:"place,omitempty"`
	StartDate         time.Time   `toml:"start_date" yaml:"start_date"`
	EndDate           time.Time   `toml:"end_date" yaml:"end_date"`
	DeadlineEnforced  bool        `toml:"deadline_enforced" yaml:"deadline_enforced"`
	UniqueSubmissions *bool       `toml:"unique_submissions,omitempty" yaml:"unique_submissions,omitempty"`
	Criteria          []criterion `toml:"criteria,omitempty" yaml:"criteria,omitempty"`
	Inputs            []input     `toml:"inputs,omitempty" yaml:"inputs,omitempty"`
	Statistics        []statistic `toml:"statistics,omitempty" yaml:"statistics,omitempty"`
}

type criterion struct {
	RuleType  string `toml:"rule_type" yaml:"rule_type"`
	RuleValue string `toml:"rule_value" yaml:"rule_value"`
}

type input struct {
	Label   string  `toml:"label" yaml:"label"`
	Type    string  `toml:"type" yaml:"type"`
	Default *string `toml:"default,omitempty" yaml:"default,omitempty"`
	Rules   string  `toml:"rules,omitempty" yaml:"rules,omitempty"`
}

type statistic struct {
	SummaryType string `toml:"summary_type" yaml:"summary_type"`
	Public      bool   `toml:"public" yaml:"public"`
}

// Decode reads one definition. Unknown keys are rejected so typos do not
// silently drop configuration.
func Decode(r io.Reader, format Format) (engagement.EventDefinition, error) {
	if r == nil {
		return engagement.EventDefinition{}, errors.New("reader is required")
	}

	var doc document
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return engagement.EventDefinition{}, errs.Wrap(err, "decode toml event file")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return engagement.EventDefinition{}, errors.New("event file is empty")
			}
			return engagement.EventDefinition{}, errs.Wrap(err, "decode yaml event file")
		}
	default:
		return engagement.EventDefinition{}, fmt.Errorf("unsupported event file format %q", format)
	}

	if strings.TrimSpace(doc.Name) == "" {
		return engagement.EventDefinition{}, errors.New("event file: name is required")
	}
	return doc.definition(), nil
}

// Encode writes def in the given format.
func Encode(w io.Writer, format Format, def engagement.EventDefinition) error {
	if w == nil {
		return errors.New("writer is required")
	}

	doc := documentOf(def)
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(doc); err != nil {
			return errs.Wrap(err, "encode toml event file")
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errs.Wrap(err, "encode yaml event file")
		}
		if err := enc.Close(); err != nil {
			return errs.Wrap(err, "flush yaml event file")
		}
	default:
		return fmt.Errorf("unsupported event file format %q", format)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errs.Wrap(err, "write event file")
	}
	return nil
}

func (d document) definition() engagement.EventDefinition {
	def := engagement.EventDefinition{
		Event: engagement.CreateEventInput{
			Name:              d.Name,
			Place:             d.Place,
			StartDate:         d.StartDate,
			EndDate:           d.EndDate,
			DeadlineEnforced:  d.DeadlineEnforced,
			UniqueSubmissions: d.UniqueSubmissions,
		},
	}
	for _, c := range d.Criteria {
		def.Criteria = append(def.Criteria, engagement.CriterionDefinition{RuleType: c.RuleType, RuleValue: c.RuleValue})
	}
	for _, in := range d.Inputs {
		def.Inputs = append(def.Inputs, engagement.AddInputFieldInput{
			Label:           in.Label,
			FieldType:       in.Type,
			DefaultValue:    in.Default,
			ValidationRules: in.Rules,
		})
	}
	for _, st := range d.Statistics {
		def.Statistics = append(def.Statistics, engagement.StatisticDefinition{SummaryType: st.SummaryType, PublicViewable: st.Public})
	}
	return def
}

func documentOf(def engagement.EventDefinition) document {
	doc := document{
		Name:              def.Event.Name,
		Place:             def.Event.Place,
		StartDate:         def.Event.StartDate.UTC(),
		EndDate:           def.Event.EndDate.UTC(),
		DeadlineEnforced:  def.Event.DeadlineEnforced,
		UniqueSubmissions: def.Event.UniqueSubmissions,
	}
	for _, c := range def.Criteria {
		doc.Criteria = append(doc.Criteria, criterion{RuleType: c.RuleType, RuleValue: c.RuleValue})
	}
	for _, in := range def.Inputs {
		doc.Inputs = append(doc.Inputs, input{Label: in.Label, Type: in.FieldType, Default: in.DefaultValue, Rules: in.ValidationRules})
	}
	for _, st := range def.Statistics {
		doc.Statistics = append(doc.Statistics, statistic{SummaryType: st.SummaryType, Public: st.PublicViewable})
	}
	return doc
}
