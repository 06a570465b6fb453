// Package aoa schedules activity-on-arrow networks: events are nodes,
// activities are the arrows between them.
package aoa

import (
	"sort"

	"github.com/joshharrison/critpath/internal/network"
)

// Compute runs the forward and backward pass over the events referenced by
// activities and derives per-arrow total and free float. Parallel arrows
// between the same pair of events are computed independently.
func Compute(activities []Activity, cfg Config) (*Result, error) {
	tol := network.Tolerance(cfg.Tolerance)

	ids := append([]string(nil), cfg.Events...)
	declared := len(cfg.Events) > 0
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}

	arrows := make([]Activity, len(activities))
	for i, a := range activities {
		a.ID = arrowID(a)
		if a.From == "" {
			return nil, &network.InvalidActivityError{ID: a.ID, Field: "from", Reason: "must not be empty"}
		}
		if a.To == "" {
			return nil, &network.InvalidActivityError{ID: a.ID, Field: "to", Reason: "must not be empty"}
		}
		if err := network.CheckNumber(a.ID, "duration", a.Duration); err != nil {
			return nil, err
		}
		for _, end := range []struct{ field, ref string }{{"from", a.From}, {"to", a.To}} {
			if seen[end.ref] {
				continue
			}
			if declared {
				return nil, &network.DanglingReferenceError{ID: a.ID, Field: end.field, Ref: end.ref}
			}
			seen[end.ref] = true
			ids = append(ids, end.ref)
		}
		arrows[i] = a
	}

	result := &Result{Activities: arrows}
	if len(ids) == 0 {
		result.Events = []Event{}
		return result, nil
	}

	g, err := network.New(ids)
	if err != nil {
		return nil, err
	}
	incoming := make([][]int, g.Len())
	outgoing := make([][]int, g.Len())
	from := make([]int, len(arrows))
	to := make([]int, len(arrows))
	for i, a := range arrows {
		from[i], _ = g.Pos(a.From)
		to[i], _ = g.Pos(a.To)
		g.AddEdge(from[i], to[i])
		outgoing[from[i]] = append(outgoing[from[i]], i)
		incoming[to[i]] = append(incoming[to[i]], i)
	}

	order, err := g.Order()
	if err != nil {
		return nil, err
	}

	eet := make([]float64, g.Len())
	let := make([]float64, g.Len())

	// Forward pass: EET = max(EET(tail) + duration) over incoming arrows
	for _, e := range order {
		t := 0.0
		for _, i := range incoming[e] {
			if v := eet[from[i]] + arrows[i].Duration; v > t {
				t = v
			}
		}
		eet[e] = t
	}

	total := 0.0
	for _, v := range eet {
		if v > total {
			total = v
		}
	}
	result.ProjectDuration = total

	// Backward pass: LET = min(LET(head) - duration) over outgoing arrows
	for k := len(order) - 1; k >= 0; k-- {
		e := order[k]
		t := total
		for j, i := range outgoing[e] {
			if v := let[to[i]] - arrows[i].Duration; j == 0 || v < t {
				t = v
			}
		}
		let[e] = t
	}

	result.Events = make([]Event, g.Len())
	for e, id := range g.IDs {
		result.Events[e] = Event{
			ID:         id,
			EET:        eet[e],
			LET:        let[e],
			IsCritical: network.IsZero(eet[e]-let[e], tol),
		}
	}

	var critical []int
	for i := range arrows {
		a := &arrows[i]
		a.TotalFloat = let[to[i]] - eet[from[i]] - a.Duration
		a.FreeFloat = eet[to[i]] - eet[from[i]] - a.Duration
		a.IsCritical = network.IsZero(a.TotalFloat, tol)
		if a.IsCritical && !a.Dummy {
			critical = append(critical, i)
		}
	}
	sort.SliceStable(critical, func(x, y int) bool {
		return eet[from[critical[x]]] < eet[from[critical[y]]]
	})
	for _, i := range critical {
		result.CriticalPath = append(result.CriticalPath, arrows[i].ID)
	}

	return result, nil
}

func arrowID(a Activity) string {
	switch {
	case a.ID != "":
		return a.ID
	case a.Name != "":
		return a.Name
	default:
		return a.From + "->" + a.To
	}
}
