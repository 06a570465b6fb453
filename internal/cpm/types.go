package cpm

import (
	"github.com/joshharrison/critpath/internal/estimate"
	"github.com/joshharrison/critpath/internal/network"
)

// Activity is a node in an activity-on-node network.
type Activity struct {
	ID       string               `json:"id" yaml:"id"`
	Name     string               `json:"name,omitempty" yaml:"name,omitempty"`
	Duration float64              `json:"duration" yaml:"duration"`
	Estimate *estimate.ThreePoint `json:"estimate,omitempty" yaml:"estimate,omitempty"` // overrides Duration when set

	Predecessors []string `json:"predecessors" yaml:"predecessors"`
	Successors   []string `json:"successors,omitempty" yaml:"successors,omitempty"` // derived

	// Derived by Analyze; any input values are overwritten.
	ES         float64 `json:"es" yaml:"es"`
	EF         float64 `json:"ef" yaml:"ef"`
	LS         float64 `json:"ls" yaml:"ls"`
	LF         float64 `json:"lf" yaml:"lf"`
	Float      float64 `json:"float" yaml:"float"`
	IsCritical bool    `json:"is_critical" yaml:"is_critical"`
}

// Result holds the complete critical path analysis.
type Result struct {
	Activities      []Activity `json:"activities"` // input order
	ProjectDuration float64    `json:"project_duration"`
	CriticalPath    []string   `json:"critical_path"` // by ES, then input order
	TopoOrder       []string   `json:"topo_order"`
	Waves           []Wave     `json:"waves"` // parallelizable groups
}

// Wave represents a group of activities that can start at the same time.
type Wave struct {
	Index       int      `json:"index"`
	Start       float64  `json:"start"`
	ActivityIDs []string `json:"activity_ids"`
	IsCritical  bool     `json:"is_critical"` // true if wave contains critical activities
}

// Config tunes an analysis. The zero value is ready to use.
type Config struct {
	Tolerance float64 // float considered zero below this; 0 means network.DefaultTolerance
}

// Get returns the activity with the given id, or nil.
func (r *Result) Get(id string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i]
		}
	}
	return nil
}

// CriticalLink reports whether the dependency from -> to lies on a critical
// path: both ends are critical and to starts as soon as from finishes. A
// tol of 0 means network.DefaultTolerance.
func (r *Result) CriticalLink(from, to string, tol float64) bool {
	a, b := r.Get(from), r.Get(to)
	if a == nil || b == nil || !a.IsCritical || !b.IsCritical {
		return false
	}
	return network.IsZero(b.ES-a.EF, network.Tolerance(tol))
}
