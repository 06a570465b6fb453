package cpm

import (
	"fmt"
	"sort"

	"github.com/joshharrison/critpath/internal/network"
)

// Analyze performs critical path method analysis on an activity-on-node
// network. Activities may be listed in any order. The input slice is not
// modified; the result carries fresh copies with every derived field set.
//
// Dangling predecessor ids, duplicate ids, invalid durations and cycles abort
// the analysis with a typed error from the network package.
func Analyze(activities []Activity, cfg Config) (*Result, error) {
	tol := network.Tolerance(cfg.Tolerance)

	result := &Result{
		Activities: make([]Activity, len(activities)),
	}
	if len(activities) == 0 {
		return result, nil
	}

	durations := make([]float64, len(activities))
	deps := make([]network.Dependency, len(activities))
	for i, a := range activities {
		d := a.Duration
		if a.Estimate != nil {
			if err := a.Estimate.Validate(); err != nil {
				return nil, &network.InvalidActivityError{ID: a.ID, Field: "estimate", Reason: err.Error()}
			}
			d = a.Estimate.Expected()
		}
		if err := network.CheckNumber(a.ID, "duration", d); err != nil {
			return nil, err
		}
		durations[i] = d
		deps[i] = network.Dependency{ID: a.ID, Predecessors: a.Predecessors}
	}

	g, err := network.FromDependencies(deps)
	if err != nil {
		return nil, err
	}
	order, err := g.Order()
	if err != nil {
		return nil, err
	}

	n := g.Len()
	es := make([]float64, n)
	ef := make([]float64, n)
	ls := make([]float64, n)
	lf := make([]float64, n)

	// Forward pass: ES = max(EF of all predecessors)
	for _, i := range order {
		start := 0.0
		for _, p := range g.In[i] {
			if ef[p] > start {
				start = ef[p]
			}
		}
		es[i] = start
		ef[i] = start + durations[i]
	}

	// Total project duration
	total := 0.0
	for i := range ef {
		if ef[i] > total {
			total = ef[i]
		}
	}
	result.ProjectDuration = total

	// Backward pass: LF = min(LS of all successors), leaves finish at the project end
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		finish := total
		for j, s := range g.Out[i] {
			if j == 0 || ls[s] < finish {
				finish = ls[s]
			}
		}
		lf[i] = finish
		ls[i] = finish - durations[i]
	}

	for i, a := range activities {
		out := Activity{
			ID:           a.ID,
			Name:         a.Name,
			Duration:     durations[i],
			Predecessors: append([]string(nil), a.Predecessors...),
			ES:           es[i],
			EF:           ef[i],
			LS:           ls[i],
			LF:           lf[i],
			Float:        ls[i] - es[i],
		}
		if a.Estimate != nil {
			est := *a.Estimate
			out.Estimate = &est
		}
		for _, s := range g.Out[i] {
			out.Successors = append(out.Successors, g.IDs[s])
		}
		out.IsCritical = network.IsZero(out.Float, tol)
		result.Activities[i] = out
	}

	result.TopoOrder = make([]string, len(order))
	for k, i := range order {
		result.TopoOrder[k] = g.IDs[i]
	}

	result.CriticalPath = criticalPath(result.Activities)
	result.Waves = computeWaves(result.Activities, order, tol)

	if len(result.CriticalPath) == 0 {
		return nil, fmt.Errorf("no critical activity found within tolerance %g", tol)
	}
	return result, nil
}

// criticalPath lists critical activity ids by ascending ES, keeping input
// order for ties.
func criticalPath(acts []Activity) []string {
	var idx []int
	for i := range acts {
		if acts[i].IsCritical {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return acts[idx[a]].ES < acts[idx[b]].ES
	})
	path := make([]string, len(idx))
	for k, i := range idx {
		path[k] = acts[i].ID
	}
	return path
}

// computeWaves groups activities whose earliest start lies within tol of the
// wave's first start.
func computeWaves(acts []Activity, order []int, tol float64) []Wave {
	byStart := append([]int(nil), order...)
	sort.SliceStable(byStart, func(a, b int) bool {
		return acts[byStart[a]].ES < acts[byStart[b]].ES
	})

	var groups [][]int
	for _, i := range byStart {
		last := len(groups) - 1
		if last >= 0 && acts[i].ES-acts[groups[last][0]].ES < tol {
			groups[last] = append(groups[last], i)
			continue
		}
		groups = append(groups, []int{i})
	}

	waves := make([]Wave, len(groups))
	for w, members := range groups {
		start := acts[members[0]].ES
		sort.Ints(members)

		// Sort critical activities first within wave
		sort.SliceStable(members, func(a, b int) bool {
			return acts[members[a]].IsCritical && !acts[members[b]].IsCritical
		})

		wave := Wave{Index: w, Start: start}
		for _, i := range members {
			wave.ActivityIDs = append(wave.ActivityIDs, acts[i].ID)
			if acts[i].IsCritical {
				wave.IsCritical = true
			}
		}
		waves[w] = wave
	}
	return waves
}
