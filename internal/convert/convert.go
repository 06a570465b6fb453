// Package convert turns activity-on-node networks into activity-on-arrow
// networks.
package convert

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/joshharrison/critpath/internal/aoa"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/network"
)

// Network is an activity-on-arrow network ready for aoa.Compute. Events are
// listed in numbering order.
type Network struct {
	Events     []string       `json:"events" yaml:"events"`
	Activities []aoa.Activity `json:"activities" yaml:"activities"`
}

// Dummies returns the number of dummy arrows.
func (n *Network) Dummies() int {
	c := 0
	for _, a := range n.Activities {
		if a.Dummy {
			c++
		}
	}
	return c
}

type builder struct {
	events int
	arrows []aoa.Activity
	tails  []int
	heads  []int
	taken  map[string]bool
	dummy  int
}

func (b *builder) newEvent() int {
	b.events++
	return b.events - 1
}

func (b *builder) arrow(a aoa.Activity, from, to int) {
	b.arrows = append(b.arrows, a)
	b.tails = append(b.tails, from)
	b.heads = append(b.heads, to)
}

func (b *builder) addDummy(from, to int) {
	var id string
	for {
		b.dummy++
		id = fmt.Sprintf("dummy-%d", b.dummy)
		if !b.taken[id] {
			break
		}
	}
	b.arrow(aoa.Activity{ID: id, Dummy: true}, from, to)
}

// ToAOA builds the canonical AOA network for activities:
//
//   - activities without predecessors leave one shared start event;
//   - predecessors implied by other predecessors are ignored;
//   - every activity ends in its own event, so no two arrows are parallel;
//   - an activity with one predecessor leaves that predecessor's end event;
//   - an activity with several predecessors leaves a merge event shared by
//     every activity with the same predecessor set, fed by dummy arrows. When
//     all successors of one predecessor share that set, its end event doubles
//     as the merge event and needs no dummy;
//   - several terminal activities feed a finish event through dummy arrows.
//
// Events are numbered 1..n by topological level. Scheduling the result with
// aoa.Compute yields the AON project duration and the AON float on every
// real arrow.
func ToAOA(activities []cpm.Activity) (*Network, error) {
	sched, err := cpm.Analyze(activities, cpm.Config{})
	if err != nil {
		return nil, err
	}
	if len(sched.Activities) == 0 {
		return &Network{Events: []string{}, Activities: []aoa.Activity{}}, nil
	}

	acts := sched.Activities
	pos := make(map[string]int, len(acts))
	for i, a := range acts {
		pos[a.ID] = i
	}
	order := make([]int, len(sched.TopoOrder))
	for k, id := range sched.TopoOrder {
		order[k] = pos[id]
	}
	direct := make([][]int, len(acts))
	for i, a := range acts {
		direct[i] = uniquePositions(a.Predecessors, pos)
	}
	preds := reduce(direct, order)
	succs := make([][]int, len(acts))
	keys := make([]string, len(acts))
	for _, i := range order {
		keys[i] = setKey(preds[i])
		for _, p := range preds[i] {
			succs[p] = append(succs[p], i)
		}
	}

	b := &builder{taken: make(map[string]bool, len(acts))}
	for _, a := range acts {
		b.taken[a.ID] = true
	}

	start := -1
	end := make([]int, len(acts))
	merges := make(map[string]int)

	for _, id := range sched.TopoOrder {
		i := pos[id]
		var from int
		switch len(preds[i]) {
		case 0:
			if start < 0 {
				start = b.newEvent()
			}
			from = start
		case 1:
			from = end[preds[i][0]]
		default:
			ev, ok := merges[keys[i]]
			if !ok {
				host := -1
				for _, p := range preds[i] {
					if ownsSet(succs[p], keys[i], keys) {
						host = p
						break
					}
				}
				if host >= 0 {
					ev = end[host]
				} else {
					ev = b.newEvent()
				}
				for _, p := range preds[i] {
					if p != host {
						b.addDummy(end[p], ev)
					}
				}
				merges[keys[i]] = ev
			}
			from = ev
		}
		end[i] = b.newEvent()
		b.arrow(aoa.Activity{ID: acts[i].ID, Name: acts[i].Name, Duration: acts[i].Duration}, from, end[i])
	}

	var sinks []int
	for i := range acts {
		if len(succs[i]) == 0 {
			sinks = append(sinks, i)
		}
	}
	if len(sinks) > 1 {
		finish := b.newEvent()
		for _, s := range sinks {
			b.addDummy(end[s], finish)
		}
	}

	return b.number()
}

// number assigns event ids 1..n by Kahn level, creation order within a level.
func (b *builder) number() (*Network, error) {
	ids := make([]string, b.events)
	for e := range ids {
		ids[e] = strconv.Itoa(e)
	}
	g, err := network.New(ids)
	if err != nil {
		return nil, err
	}
	for k := range b.arrows {
		g.AddEdge(b.tails[k], b.heads[k])
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	label := make([]string, b.events)
	out := &Network{Events: make([]string, 0, b.events)}
	n := 0
	for _, lvl := range levels {
		for _, e := range lvl {
			n++
			label[e] = strconv.Itoa(n)
			out.Events = append(out.Events, label[e])
		}
	}
	out.Activities = make([]aoa.Activity, len(b.arrows))
	for k, a := range b.arrows {
		a.From = label[b.tails[k]]
		a.To = label[b.heads[k]]
		out.Activities[k] = a
	}
	return out, nil
}

// ownsSet reports whether every successor of a predecessor has the given
// predecessor set.
func ownsSet(successors []int, key string, keys []string) bool {
	for _, s := range successors {
		if keys[s] != key {
			return false
		}
	}
	return len(successors) > 0
}

// reduce drops every predecessor already implied by another one, so that
// A; B<-A; C<-{A,B} leaves C with {B} alone. order is a topological order of
// the positions.
func reduce(preds [][]int, order []int) [][]int {
	ancestors := make([][]bool, len(preds))
	for _, i := range order {
		anc := make([]bool, len(preds))
		for _, p := range preds[i] {
			anc[p] = true
			for k, ok := range ancestors[p] {
				if ok {
					anc[k] = true
				}
			}
		}
		ancestors[i] = anc
	}

	out := make([][]int, len(preds))
	for i, ps := range preds {
		out[i] = make([]int, 0, len(ps))
		for _, p := range ps {
			implied := false
			for _, q := range ps {
				if q != p && ancestors[q][p] {
					implied = true
					break
				}
			}
			if !implied {
				out[i] = append(out[i], p)
			}
		}
	}
	return out
}

func uniquePositions(ids []string, pos map[string]int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		p := pos[id]
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

func setKey(ps []int) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// FirstPredecessor is the approximate conversion: each activity gets a fresh
// end event and leaves the end event of its first predecessor, or the shared
// start event "1". Merge semantics for activities with several predecessors
// are dropped, so schedules computed from it can be wrong. Kept for side by
// side comparison with ToAOA.
func FirstPredecessor(activities []cpm.Activity) (*Network, error) {
	sched, err := cpm.Analyze(activities, cpm.Config{})
	if err != nil {
		return nil, err
	}
	out := &Network{Events: []string{}, Activities: make([]aoa.Activity, len(sched.Activities))}
	if len(sched.Activities) == 0 {
		return out, nil
	}

	const start = "1"
	out.Events = append(out.Events, start)
	next := 2
	endOf := make(map[string]string, len(sched.Activities))
	for _, id := range sched.TopoOrder {
		endOf[id] = strconv.Itoa(next)
		out.Events = append(out.Events, endOf[id])
		next++
	}
	for i, a := range sched.Activities {
		from := start
		if len(a.Predecessors) > 0 {
			from = endOf[a.Predecessors[0]]
		}
		out.Activities[i] = aoa.Activity{ID: a.ID, Name: a.Name, From: from, To: endOf[a.ID], Duration: a.Duration}
	}
	return out, nil
}
