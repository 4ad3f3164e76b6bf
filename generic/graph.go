package generic

// =============================================================================
// DERIVATION GRAPH - edge A -> B means "B is auto-derived from A"
// =============================================================================

// Graph is a directed acyclic graph over field names. Adjacency lists keep
// insertion order so every walk is deterministic.
type Graph struct {
	children map[Field][]Field
	parents  map[Field][]Field
}

func NewGraph() *Graph {
	return &Graph{
		children: make(map[Field][]Field),
		parents:  make(map[Field][]Field),
	}
}

// AddEdge adds from -> to. Duplicate edges are ignored; an edge that would
// close a cycle is rejected with a *CycleError.
func (g *Graph) AddEdge(from, to Field) error {
	if from == to || g.Reachable(to, from) {
		return &CycleError{From: from, To: to}
	}
	for _, c := range g.children[from] {
		if c == to {
			return nil
		}
	}
	g.children[from] = append(g.children[from], to)
	g.parents[to] = append(g.parents[to], from)
	return nil
}

// Children returns the direct dependents of f.
func (g *Graph) Children(f Field) []Field {
	return append([]Field(nil), g.children[f]...)
}

// Parents returns the fields f is derived from.
func (g *Graph) Parents(f Field) []Field {
	return append([]Field(nil), g.parents[f]...)
}

// Descendants lists every field reachable from f, breadth-first.
func (g *Graph) Descendants(f Field) []Field {
	var out []Field
	seen := map[Field]bool{f: true}
	queue := []Field{f}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, c := range g.children[next] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}

// Reachable reports whether to can be reached from from.
func (g *Graph) Reachable(from, to Field) bool {
	for _, d := range g.Descendants(from) {
		if d == to {
			return true
		}
	}
	return false
}
