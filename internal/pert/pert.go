// Package pert schedules activities from three-point estimates. Expected
// durations are fed through the same forward/backward pass as the AON engine.
package pert

import (
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/estimate"
	"github.com/joshharrison/critpath/internal/network"
)

// RiskLevel is a display hint carried through to Gantt output.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Activity is an AON activity described by a three-point estimate.
type Activity struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name,omitempty" yaml:"name,omitempty"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Optimistic   float64   `json:"optimistic" yaml:"optimistic"`
	MostLikely   float64   `json:"most_likely" yaml:"most_likely"`
	Pessimistic  float64   `json:"pessimistic" yaml:"pessimistic"`
	Predecessors []string  `json:"predecessors" yaml:"predecessors"`
	Progress     float64   `json:"progress,omitempty" yaml:"progress,omitempty"` // percent complete, display only
	RiskLevel    RiskLevel `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`

	// Derived by Compute.
	Successors  []string `json:"successors,omitempty" yaml:"successors,omitempty"`
	Expected    float64  `json:"expected" yaml:"expected"`
	StdDev      float64  `json:"std_dev" yaml:"std_dev"`
	EarlyStart  float64  `json:"early_start" yaml:"early_start"`
	EarlyFinish float64  `json:"early_finish" yaml:"early_finish"`
	LateStart   float64  `json:"late_start" yaml:"late_start"`
	LateFinish  float64  `json:"late_finish" yaml:"late_finish"`
	Slack       float64  `json:"slack" yaml:"slack"`
	IsCritical  bool     `json:"is_critical" yaml:"is_critical"`
}

// Estimate returns the activity's three-point estimate.
func (a Activity) Estimate() estimate.ThreePoint {
	return estimate.ThreePoint{Optimistic: a.Optimistic, MostLikely: a.MostLikely, Pessimistic: a.Pessimistic}
}

// Result is a computed PERT schedule.
type Result struct {
	Activities    []Activity `json:"activities"` // input order
	CriticalPath  []string   `json:"critical_path"`
	TotalDuration float64    `json:"total_duration"`
}

// Config tunes a computation. The zero value is ready to use.
type Config struct {
	Tolerance float64
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

// Compute derives successors, expected times and the schedule for every
// activity. Estimates whose values are out of order are accepted as given.
// Project-level variance is not aggregated.
func Compute(activities []Activity, cfg Config) (*Result, error) {
	nodes := make([]cpm.Activity, len(activities))
	for i, a := range activities {
		est := a.Estimate()
		if err := est.Validate(); err != nil {
			return nil, &network.InvalidActivityError{ID: a.ID, Field: "estimate", Reason: err.Error()}
		}
		nodes[i] = cpm.Activity{
			ID:           a.ID,
			Name:         a.Name,
			Estimate:     &est,
			Predecessors: a.Predecessors,
		}
	}

	sched, err := cpm.Analyze(nodes, cpm.Config{Tolerance: cfg.Tolerance})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Activities:    make([]Activity, len(activities)),
		CriticalPath:  sched.CriticalPath,
		TotalDuration: sched.ProjectDuration,
	}
	for i, a := range activities {
		s := sched.Activities[i]
		out := a
		out.Predecessors = s.Predecessors
		out.Successors = s.Successors
		out.Expected = s.Duration
		out.StdDev = a.Estimate().StdDev()
		out.EarlyStart = s.ES
		out.EarlyFinish = s.EF
		out.LateStart = s.LS
		out.LateFinish = s.LF
		out.Slack = s.LF - s.EF
		out.IsCritical = s.IsCritical
		result.Activities[i] = out
	}
	return result, nil
}
