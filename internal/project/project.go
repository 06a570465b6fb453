// Package project loads project documents and turns them into engine input.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/critpath/internal/aoa"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/pert"
)

// Format is the encoding of a project file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var validate = validator.New()

// FormatFor guesses the format from a file name. Anything that is not
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads, decodes and validates a project file. A non-empty selector is
// a gjson path picking the document out of a larger JSON file.
func Load(path, selector string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	format := FormatFor(path)
	if selector != "" {
		if data, err = Select(data, selector); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		format = FormatJSON
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Select extracts the JSON value at a gjson path.
func Select(data []byte, selector string) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("select requires a JSON document")
	}
	res := gjson.GetBytes(data, selector)
	if !res.Exists() {
		return nil, fmt.Errorf("select %q: no match", selector)
	}
	if !res.IsObject() {
		return nil, fmt.Errorf("select %q: matched %s, want an object", selector, res.Type)
	}
	return []byte(res.Raw), nil
}

// Parse decodes and validates a document. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks field ranges and the fields each kind needs. Graph
// structure (unknown references, cycles) is left to the engines.
func (d *Document) Validate() error {
	var problems []string
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate project: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	if len(d.Activities) == 0 {
		problems = append(problems, "activities: at least one activity is required")
	}

	kind := d.ResolveKind()
	for i, a := range d.Activities {
		where := fmt.Sprintf("activities[%d]", i)
		switch kind {
		case KindAOA:
			if a.From == "" || a.To == "" {
				problems = append(problems, where+": from and to are required")
			}
			if a.Dummy && a.Duration != 0 {
				problems = append(problems, where+": dummy arrows must have zero duration")
			}
		default:
			if a.ID == "" {
				problems = append(problems, where+": id is required")
			}
			if a.Dummy {
				problems = append(problems, where+": dummy is only valid for aoa arrows")
			}
		}
		if kind == KindPERT && (a.Optimistic == nil || a.MostLikely == nil || a.Pessimistic == nil) {
			problems = append(problems, where+": optimistic, most_likely and pessimistic are required")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid project:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	field = strings.ToLower(field)
	switch fe.Tag() {
	case "required":
		return field + ": required"
	case "gte":
		return fmt.Sprintf("%s: must be at least %s (got %v)", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s: must be at most %s (got %v)", field, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s: longer than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s] (got %v)", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}

// ResolveKind returns the declared kind, or infers one: arrows with from/to
// mean AOA, three-point estimates mean PERT, anything else is AON.
func (d *Document) ResolveKind() Kind {
	if d.Kind != "" {
		return d.Kind
	}
	for _, a := range d.Activities {
		if a.From != "" || a.To != "" {
			return KindAOA
		}
	}
	for _, a := range d.Activities {
		if a.HasEstimate() {
			return KindPERT
		}
	}
	return KindAON
}

// AON returns the document as activity nodes. Rows carrying a three-point
// estimate are scheduled on their expected time.
func (d *Document) AON() []cpm.Activity {
	out := make([]cpm.Activity, len(d.Activities))
	for i, a := range d.Activities {
		out[i] = cpm.Activity{
			ID:           a.ID,
			Name:         a.Name,
			Duration:     a.Duration,
			Predecessors: append([]string(nil), a.Predecessors...),
		}
		if a.HasEstimate() {
			est := a.Estimate()
			out[i].Estimate = &est
		}
	}
	return out
}

// AOA returns the document as arrows plus the declared event universe.
func (d *Document) AOA() ([]aoa.Activity, aoa.Config) {
	out := make([]aoa.Activity, len(d.Activities))
	for i, a := range d.Activities {
		out[i] = aoa.Activity{ID: a.ID, Name: a.Name, From: a.From, To: a.To, Duration: a.Duration, Dummy: a.Dummy}
	}
	return out, aoa.Config{Events: append([]string(nil), d.Events...)}
}

// PERT returns the document as three-point activities.
func (d *Document) PERT() []pert.Activity {
	out := make([]pert.Activity, len(d.Activities))
	for i, a := range d.Activities {
		out[i] = pert.Activity{
			ID:           a.ID,
			Name:         a.Name,
			Description:  a.Description,
			Optimistic:   deref(a.Optimistic),
			MostLikely:   deref(a.MostLikely),
			Pessimistic:  deref(a.Pessimistic),
			Predecessors: append([]string(nil), a.Predecessors...),
			Progress:     a.Progress,
			RiskLevel:    pert.RiskLevel(a.Risk),
		}
	}
	return out
}

// Marshal encodes a document in the given format.
func Marshal(d *Document, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(d, "", "  ")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
