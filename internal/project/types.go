package project

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/critpath/internal/estimate"
)

// Kind selects the engine a document is scheduled with.
type Kind string

const (
	KindAON  Kind = "aon"
	KindAOA  Kind = "aoa"
	KindPERT Kind = "pert"
)

// Document is a project file: one network of activities.
type Document struct {
	Name        string     `json:"name,omitempty" yaml:"name,omitempty" validate:"max=200"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        Kind       `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=aon aoa pert"`
	Unit        string     `json:"unit,omitempty" yaml:"unit,omitempty" validate:"max=32"`
	Events      []string   `json:"events,omitempty" yaml:"events,omitempty" validate:"dive,required"`
	Activities  []Activity `json:"activities" yaml:"activities" validate:"dive"`
}

// Activity is one activity row. Which fields matter depends on the kind:
// AON uses Duration and Predecessors, AOA uses From/To/Duration, PERT uses
// the three estimates and Predecessors.
type Activity struct {
	ID           string       `json:"id,omitempty" yaml:"id,omitempty" validate:"max=64"`
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Duration     float64      `json:"duration,omitempty" yaml:"duration,omitempty" validate:"gte=0"`
	Predecessors Predecessors `json:"predecessors,omitempty" yaml:"predecessors,omitempty"`
	Optimistic   *float64     `json:"optimistic,omitempty" yaml:"optimistic,omitempty" validate:"omitempty,gte=0"`
	MostLikely   *float64     `json:"most_likely,omitempty" yaml:"most_likely,omitempty" validate:"omitempty,gte=0"`
	Pessimistic  *float64     `json:"pessimistic,omitempty" yaml:"pessimistic,omitempty" validate:"omitempty,gte=0"`
	From         string       `json:"from,omitempty" yaml:"from,omitempty"`
	To           string       `json:"to,omitempty" yaml:"to,omitempty"`
	Dummy        bool         `json:"dummy,omitempty" yaml:"dummy,omitempty"` // aoa constraint arrow
	Progress     float64      `json:"progress,omitempty" yaml:"progress,omitempty" validate:"gte=0,lte=100"`
	Risk         string       `json:"risk,omitempty" yaml:"risk,omitempty" validate:"omitempty,oneof=low medium high"`
}

// HasEstimate reports whether any three-point field is present. An explicit
// zero counts, so o=m=p=0 is a valid milestone.
func (a Activity) HasEstimate() bool {
	return a.Optimistic != nil || a.MostLikely != nil || a.Pessimistic != nil
}

// Estimate returns the three-point fields, missing ones as zero.
func (a Activity) Estimate() estimate.ThreePoint {
	return estimate.ThreePoint{Optimistic: deref(a.Optimistic), MostLikely: deref(a.MostLikely), Pessimistic: deref(a.Pessimistic)}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Predecessors accepts either a list of ids or one comma separated string
// ("A, B").
type Predecessors []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Predecessors) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*p = SplitIDs(s)
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := value.Decode(&ids); err != nil {
			return err
		}
		*p = trimIDs(ids)
		return nil
	default:
		return fmt.Errorf("line %d: predecessors must be a list or a comma separated string", value.Line)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Predecessors) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = SplitIDs(s)
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("predecessors must be a list or a comma separated string")
	}
	*p = trimIDs(ids)
	return nil
}

// SplitIDs splits a comma separated id list, dropping blanks.
func SplitIDs(s string) []string {
	return trimIDs(strings.Split(s, ","))
}

func trimIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
