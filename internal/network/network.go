package network

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// DefaultTolerance is used for every float-vs-zero comparison when the caller
// does not configure one.
const DefaultTolerance = 1e-3

// Tolerance returns tol, or DefaultTolerance when tol is not positive.
func Tolerance(tol float64) float64 {
	if tol <= 0 || math.IsNaN(tol) {
		return DefaultTolerance
	}
	return tol
}

// IsZero reports |v| < tol.
func IsZero(v, tol float64) bool {
	return math.Abs(v) < tol
}

// CheckNumber rejects negative, NaN and infinite values.
func CheckNumber(id, field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return &InvalidActivityError{ID: id, Field: field, Reason: "must be finite"}
	case v < 0:
		return &InvalidActivityError{ID: id, Field: field, Reason: "must not be negative"}
	}
	return nil
}

// New creates a graph with one node per id. Ids must be non-empty and unique.
func New(ids []string) (*Graph, error) {
	g := &Graph{
		IDs: make([]string, len(ids)),
		Out: make([][]int, len(ids)),
		In:  make([][]int, len(ids)),
		pos: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		if id == "" {
			return nil, &InvalidActivityError{Field: "id", Reason: "must not be empty"}
		}
		if _, dup := g.pos[id]; dup {
			return nil, &DuplicateIDError{ID: id}
		}
		g.IDs[i] = id
		g.pos[id] = i
	}
	return g, nil
}

// FromDependencies builds an AON graph: an edge p -> a for every predecessor
// p of a. Repeated predecessors in one list collapse into a single edge.
func FromDependencies(deps []Dependency) (*Graph, error) {
	ids := make([]string, len(deps))
	for i, d := range deps {
		ids[i] = d.ID
	}
	g, err := New(ids)
	if err != nil {
		return nil, err
	}

	for i, d := range deps {
		seen := make(map[int]bool, len(d.Predecessors))
		for _, ref := range d.Predecessors {
			p, ok := g.pos[ref]
			if !ok {
				return nil, &DanglingReferenceError{ID: d.ID, Field: "predecessors", Ref: ref}
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			g.AddEdge(p, i)
		}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.IDs) }

// Pos returns the position of id.
func (g *Graph) Pos(id string) (int, bool) {
	p, ok := g.pos[id]
	return p, ok
}

// AddEdge records that to depends on from.
func (g *Graph) AddEdge(from, to int) {
	g.Out[from] = append(g.Out[from], to)
	g.In[to] = append(g.In[to], from)
}

// Sources returns nodes without incoming edges, in position order.
func (g *Graph) Sources() []int {
	var out []int
	for i := range g.IDs {
		if len(g.In[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Order returns a topological order using Kahn's algorithm. Ready nodes are
// taken in position order so the result is deterministic for a given input.
// Nodes left unprocessed belong to, or sit downstream of, a cycle; the
// returned *CycleError names one such cycle.
func (g *Graph) Order() ([]int, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, g.Len())
	for _, lvl := range levels {
		order = append(order, lvl...)
	}
	return order, nil
}

// Levels groups nodes into Kahn layers: level 0 holds the sources, level k
// the nodes whose last predecessor was released in level k-1.
func (g *Graph) Levels() ([][]int, error) {
	inDegree := make([]int, g.Len())
	for i := range g.IDs {
		inDegree[i] = len(g.In[i])
	}

	queue := g.Sources()
	var levels [][]int
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []int
		for _, node := range queue {
			for _, succ := range g.Out[node] {
				inDegree[succ]--
				if inDegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		sort.Ints(next)
		queue = next
	}

	if visited != g.Len() {
		done := make([]bool, g.Len())
		for _, lvl := range levels {
			for _, n := range lvl {
				done[n] = true
			}
		}
		return nil, &CycleError{Path: g.findCycle(done)}
	}
	return levels, nil
}

// findCycle extracts one cycle among the nodes Kahn could not release.
// Strongly connected components come from gonum; the path inside the chosen
// component is the shortest loop back to its lowest-positioned member.
func (g *Graph) findCycle(done []bool) []string {
	for i := range g.IDs {
		if done[i] {
			continue
		}
		for _, j := range g.Out[i] {
			if j == i {
				return []string{g.IDs[i], g.IDs[i]}
			}
		}
	}

	dg := simple.NewDirectedGraph()
	for i := range g.IDs {
		if !done[i] {
			dg.AddNode(simple.Node(i))
		}
	}
	for i := range g.IDs {
		if done[i] {
			continue
		}
		for _, j := range g.Out[i] {
			if !done[j] {
				dg.SetEdge(dg.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	var members map[int]bool
	start := -1
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		lowest := -1
		for _, n := range scc {
			if id := int(n.ID()); lowest < 0 || id < lowest {
				lowest = id
			}
		}
		if start < 0 || lowest < start {
			start = lowest
			members = make(map[int]bool, len(scc))
			for _, n := range scc {
				members[int(n.ID())] = true
			}
		}
	}
	if start < 0 {
		for i := range g.IDs {
			if !done[i] {
				return []string{g.IDs[i]}
			}
		}
		return nil
	}

	parent := map[int]int{start: -1}
	queue := []int{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range g.Out[node] {
			if !members[next] {
				continue
			}
			if next == start {
				var rev []int
				for cur := node; cur != -1; cur = parent[cur] {
					rev = append(rev, cur)
				}
				path := make([]string, 0, len(rev)+1)
				for k := len(rev) - 1; k >= 0; k-- {
					path = append(path, g.IDs[rev[k]])
				}
				return append(path, g.IDs[start])
			}
			if _, seen := parent[next]; !seen {
				parent[next] = node
				queue = append(queue, next)
			}
		}
	}
	return []string{g.IDs[start]}
}
