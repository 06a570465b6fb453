package network

// Graph is a per-call arena over scheduling nodes. Nodes are addressed by the
// position they were given in New; ids are only looked up at build time.
type Graph struct {
	IDs []string
	Out [][]int // node -> nodes that depend on it (repeats allowed for parallel edges)
	In  [][]int // node -> nodes it depends on

	pos map[string]int
}

// Dependency is the minimal view of an AON node needed to build a Graph.
type Dependency struct {
	ID           string
	Predecessors []string
}
