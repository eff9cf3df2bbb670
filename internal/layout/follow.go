package layout

import "fmt"

// DefaultFollowDepth is the default hop limit for the follow operation.
const DefaultFollowDepth = 8

// Hop is one step of a followed pointer chain.
type Hop struct {
	Depth      int
	Expr       string // access expression, e.g. "node_ptr->next->next"
	PointerVal uint64
	Null       bool
	Cycle      bool
	Rendering  string // the pointee's rendering; empty for Null hops, a first-seen-depth note for Cycle hops
}

// Pointee abstracts what follow needs from the debugger at each hop: the
// pointer's current value, the pointee's printed rendering, and which
// field (if any) to step through next. Session implements this via
// -data-evaluate-expression calls; it is an interface here so layout stays
// free of any machine-interface dependency.
type Pointee interface {
	// EvalPointer evaluates expr (a pointer-typed expression) and returns
	// its numeric value.
	EvalPointer(expr string) (uint64, error)
	// Render evaluates *expr (the pointee) and returns its printed form.
	Render(expr string) (string, error)
	// NextField returns the field name to step through: "next" if the
	// pointee struct has a field named "next", else the first
	// pointer-typed field, else ok=false.
	NextField(expr string) (name string, ok bool, err error)
}

// Follow walks a pointer chain starting at expr, up to depth hops,
// terminating early on NULL, on reaching depth, or on a cycle (the same
// pointer value seen at a lower depth).
func Follow(p Pointee, expr string, depth int) ([]Hop, error) {
	if depth <= 0 {
		depth = DefaultFollowDepth
	}
	visited := make(map[uint64]int) // pointer value -> depth first seen
	var hops []Hop
	curExpr := expr

	for d := 0; d < depth; d++ {
		val, err := p.EvalPointer(curExpr)
		if err != nil {
			return hops, err
		}
		hop := Hop{Depth: d, Expr: curExpr, PointerVal: val}

		if val == 0 {
			hop.Null = true
			hops = append(hops, hop)
			return hops, nil
		}
		if seenAt, ok := visited[val]; ok {
			hop.Cycle = true
			hop.Rendering = fmt.Sprintf("(cycle, first seen at depth %d)", seenAt)
			hops = append(hops, hop)
			return hops, nil
		}
		visited[val] = d

		rendering, err := p.Render(curExpr)
		if err != nil {
			return hops, err
		}
		hop.Rendering = rendering
		hops = append(hops, hop)

		field, ok, err := p.NextField(curExpr)
		if err != nil {
			return hops, err
		}
		if !ok {
			return hops, nil
		}
		curExpr = curExpr + "->" + field
	}
	return hops, nil
}
