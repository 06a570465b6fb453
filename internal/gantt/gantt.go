// Package gantt lays a computed plan out as Gantt bars and renders them as
// text or as an HTML chart.
package gantt

import (
	"github.com/joshharrison/critpath/internal/pert"
	"github.com/joshharrison/critpath/internal/planner"
)

// Task is one Gantt bar. Times are offsets from the project start.
type Task struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Start        float64        `json:"start"`
	End          float64        `json:"end"`
	LateEnd      float64        `json:"late_end"`
	Progress     float64        `json:"progress"` // percent
	Risk         pert.RiskLevel `json:"risk"`
	Dependencies []string       `json:"dependencies"`
	IsCritical   bool           `json:"is_critical"`
}

// Duration returns End - Start.
func (t Task) Duration() float64 { return t.End - t.Start }

// Options controls rendering.
type Options struct {
	Title string
	Unit  string
	Width int // text bar columns; 0 means 60
}

// Tasks derives one bar per real activity of plan, scheduled at its
// earliest times. Activities without a risk level are treated as medium.
func Tasks(plan *planner.Plan) []Task {
	deps := map[string][]string{}
	switch {
	case plan.PERT != nil:
		for _, a := range plan.PERT.Activities {
			deps[a.ID] = a.Predecessors
		}
	case plan.AON != nil:
		for _, a := range plan.AON.Activities {
			deps[a.ID] = a.Predecessors
		}
	}

	rows := plan.Activities()
	tasks := make([]Task, len(rows))
	for i, a := range rows {
		risk := a.Risk
		if risk == "" {
			risk = pert.RiskMedium
		}
		name := a.Name
		if name == "" {
			name = a.ID
		}
		tasks[i] = Task{
			ID:           a.ID,
			Name:         name,
			Start:        a.ES,
			End:          a.EF,
			LateEnd:      a.LF,
			Progress:     clampPercent(a.Progress),
			Risk:         risk,
			Dependencies: append([]string{}, deps[a.ID]...),
			IsCritical:   a.IsCritical,
		}
	}
	return tasks
}

// RiskColor returns the bar colour for a risk level, or the darker progress
// colour when progress is set.
func RiskColor(level pert.RiskLevel, progress bool) string {
	switch level {
	case pert.RiskHigh:
		if progress {
			return "#ef4444"
		}
		return "#fecaca"
	case pert.RiskLow:
		if progress {
			return "#10b981"
		}
		return "#bbf7d0"
	default:
		if progress {
			return "#f59e0b"
		}
		return "#fef08a"
	}
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func span(tasks []Task) float64 {
	end := 0.0
	for _, t := range tasks {
		if t.LateEnd > end {
			end = t.LateEnd
		}
		if t.End > end {
			end = t.End
		}
	}
	return end
}
