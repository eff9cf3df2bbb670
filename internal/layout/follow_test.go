package layout

import "testing"

// chainOracle models a 3-node singly linked list node0->node1->node2->nil.
type chainOracle struct {
	nexts map[string]uint64 // expr -> pointer value
}

func (c chainOracle) EvalPointer(expr string) (uint64, error) {
	return c.nexts[expr], nil
}

func (c chainOracle) Render(expr string) (string, error) {
	return "{...}", nil
}

func (c chainOracle) NextField(expr string) (string, bool, error) {
	return "next", true, nil
}

func TestFollowStopsAtNull(t *testing.T) {
	o := chainOracle{nexts: map[string]uint64{
		"node_ptr":                   0x1000,
		"node_ptr->next":             0x2000,
		"node_ptr->next->next":       0x3000,
		"node_ptr->next->next->next": 0,
	}}
	hops, err := Follow(o, "node_ptr", 4)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(hops) != 4 {
		t.Fatalf("got %d hops, want 4", len(hops))
	}
	if !hops[3].Null {
		t.Fatalf("last hop should be NULL: %+v", hops[3])
	}
	wantExprs := []string{"node_ptr", "node_ptr->next", "node_ptr->next->next", "node_ptr->next->next->next"}
	for i, h := range hops {
		if h.Expr != wantExprs[i] {
			t.Errorf("hop %d expr = %q, want %q", i, h.Expr, wantExprs[i])
		}
		if h.Depth != i {
			t.Errorf("hop %d depth = %d", i, h.Depth)
		}
	}
}

func TestFollowNullPointerSingleHop(t *testing.T) {
	o := chainOracle{nexts: map[string]uint64{"p": 0}}
	hops, err := Follow(o, "p", 8)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(hops) != 1 || !hops[0].Null {
		t.Fatalf("got %+v", hops)
	}
}

func TestFollowDetectsCycle(t *testing.T) {
	o := chainOracle{nexts: map[string]uint64{
		"p":                 0x1000,
		"p->next":           0x2000,
		"p->next->next":     0x1000, // cycles back to the first node
		"p->next->next->next": 0x2000,
	}}
	hops, err := Follow(o, "p", 8)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	last := hops[len(hops)-1]
	if !last.Cycle {
		t.Fatalf("expected chain to terminate on cycle, got %+v", hops)
	}
	if len(hops) != 3 {
		t.Fatalf("expected cycle detected at hop 3 (0x1000 seen again), got %d hops", len(hops))
	}
}

func TestFollowTerminatesWithinDepth(t *testing.T) {
	// A chainOracle evaluates every expr not in its map to 0 (Go zero
	// value), which would terminate at NULL on hop 0 regardless; use a
	// non-zero-producing oracle instead to prove the depth bound holds
	// even for an always-non-null, always-novel chain.
	counter := &countingOracle{}
	hops, err := Follow(counter, "p", 5)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(hops) != 5 {
		t.Fatalf("got %d hops, want exactly depth (5)", len(hops))
	}
}

type countingOracle struct{ n uint64 }

func (c *countingOracle) EvalPointer(expr string) (uint64, error) {
	c.n++
	return c.n, nil
}
func (c *countingOracle) Render(expr string) (string, error)           { return "{...}", nil }
func (c *countingOracle) NextField(expr string) (string, bool, error) { return "next", true, nil }
