package network

import (
	"errors"
	"math"
	"testing"
)

func TestFromDependencies_Diamond(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	g, err := FromDependencies([]Dependency{
		{ID: "A"},
		{ID: "B", Predecessors: []string{"A"}},
		{ID: "C", Predecessors: []string{"A"}},
		{ID: "D", Predecessors: []string{"B", "C"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Len() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.Len())
	}
	if src := g.Sources(); len(src) != 1 || g.IDs[src[0]] != "A" {
		t.Errorf("expected sources=[A], got %v", src)
	}
	if out := g.Out[0]; len(out) != 2 {
		t.Errorf("expected A to have 2 dependents, got %v", out)
	}
	if in := g.In[3]; len(in) != 2 {
		t.Errorf("expected D to have 2 predecessors, got %v", in)
	}
}

func TestFromDependencies_RepeatedPredecessorCollapses(t *testing.T) {
	g, err := FromDependencies([]Dependency{
		{ID: "A"},
		{ID: "B", Predecessors: []string{"A", "A"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.In[1]) != 1 {
		t.Errorf("expected one edge into B, got %v", g.In[1])
	}
}

func TestFromDependencies_DanglingReference(t *testing.T) {
	_, err := FromDependencies([]Dependency{
		{ID: "A"},
		{ID: "B", Predecessors: []string{"Z"}},
	})
	if !errors.Is(err, ErrDanglingReference) {
		t.Fatalf("expected dangling reference error, got %v", err)
	}
	var de *DanglingReferenceError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DanglingReferenceError, got %T", err)
	}
	if de.ID != "B" || de.Ref != "Z" {
		t.Errorf("expected B -> Z, got %s -> %s", de.ID, de.Ref)
	}
}

func TestNew_DuplicateAndEmptyIDs(t *testing.T) {
	if _, err := New([]string{"A", "A"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected duplicate id error, got %v", err)
	}
	if _, err := New([]string{"A", ""}); !errors.Is(err, ErrInvalidActivity) {
		t.Errorf("expected invalid activity error, got %v", err)
	}
}

func TestOrder_OutOfInputOrder(t *testing.T) {
	// Listed C, B, A but A -> B -> C.
	g, err := FromDependencies([]Dependency{
		{ID: "C", Predecessors: []string{"B"}},
		{ID: "B", Predecessors: []string{"A"}},
		{ID: "A"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := g.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{g.IDs[order[0]], g.IDs[order[1]], g.IDs[order[2]]}
	want := []string{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestLevels_Wide(t *testing.T) {
	//     A
	//   / | \
	//  B  C  D
	//   \ | /
	//     E
	g, err := FromDependencies([]Dependency{
		{ID: "A"},
		{ID: "B", Predecessors: []string{"A"}},
		{ID: "C", Predecessors: []string{"A"}},
		{ID: "D", Predecessors: []string{"A"}},
		{ID: "E", Predecessors: []string{"B", "C", "D"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	if len(levels[1]) != 3 {
		t.Errorf("expected 3 nodes in level 1, got %v", levels[1])
	}
}

func TestOrder_TwoNodeCycle(t *testing.T) {
	g, err := FromDependencies([]Dependency{
		{ID: "A", Predecessors: []string{"B"}},
		{ID: "B", Predecessors: []string{"A"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = g.Order()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	if len(ce.Path) != 3 || ce.Path[0] != ce.Path[len(ce.Path)-1] {
		t.Errorf("expected closed path of 3 ids, got %v", ce.Path)
	}
}

func TestOrder_CycleWithDownstreamNodes(t *testing.T) {
	// S -> A -> B -> C -> A, C -> T
	g, err := FromDependencies([]Dependency{
		{ID: "S"},
		{ID: "A", Predecessors: []string{"S", "C"}},
		{ID: "B", Predecessors: []string{"A"}},
		{ID: "C", Predecessors: []string{"B"}},
		{ID: "T", Predecessors: []string{"C"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = g.Order()
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	want := []string{"A", "B", "C", "A"}
	if len(ce.Path) != len(want) {
		t.Fatalf("expected path %v, got %v", want, ce.Path)
	}
	for i := range want {
		if ce.Path[i] != want[i] {
			t.Fatalf("expected path %v, got %v", want, ce.Path)
		}
	}
}

func TestOrder_SelfLoop(t *testing.T) {
	g, err := FromDependencies([]Dependency{
		{ID: "A", Predecessors: []string{"A"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = g.Order()
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if len(ce.Path) != 2 || ce.Path[0] != "A" {
		t.Errorf("expected [A A], got %v", ce.Path)
	}
}

func TestCheckNumber(t *testing.T) {
	if err := CheckNumber("A", "duration", 0); err != nil {
		t.Errorf("zero should be valid: %v", err)
	}
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		if err := CheckNumber("A", "duration", v); !errors.Is(err, ErrInvalidActivity) {
			t.Errorf("expected invalid activity for %v, got %v", v, err)
		}
	}
}

func TestTolerance(t *testing.T) {
	if Tolerance(0) != DefaultTolerance {
		t.Errorf("expected default tolerance")
	}
	if Tolerance(0.01) != 0.01 {
		t.Errorf("expected configured tolerance")
	}
	if !IsZero(0.0004, DefaultTolerance) || IsZero(0.002, DefaultTolerance) {
		t.Errorf("unexpected IsZero behaviour")
	}
}

func TestIsStructural(t *testing.T) {
	if !IsStructural(&CycleError{Path: []string{"A", "A"}}) {
		t.Error("cycle should be structural")
	}
	if IsStructural(errors.New("other")) {
		t.Error("plain error should not be structural")
	}
}
