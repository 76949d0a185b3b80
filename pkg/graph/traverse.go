package graph

// noParent is the sentinel parent for the traversal root.
const noParent = NodeID(-1)

// uniqueStack is a stack that rejects elements already on it. The traversal
// keeps the current root-to-node path on one; a rejected push is a cycle.
type uniqueStack struct {
	items   []NodeID
	members map[NodeID]bool
}

func newUniqueStack() *uniqueStack {
	return &uniqueStack{members: make(map[NodeID]bool)}
}

// push adds elem, reporting false if it is already on the stack.
func (s *uniqueStack) push(elem NodeID) bool {
	if s.members[elem] {
		return false
	}
	s.items = append(s.items, elem)
	s.members[elem] = true
	return true
}

// popUntil pops elements until elem is on top.
func (s *uniqueStack) popUntil(elem NodeID) {
	for len(s.items) > 0 && s.items[len(s.items)-1] != elem {
		top := s.items[len(s.items)-1]
		s.items = s.items[:len(s.items)-1]
		delete(s.members, top)
	}
}

// DepthFirst returns the nodes reachable from root in depth-first pre-order,
// parents before children, each node once even when shared by several
// parents. Returns a CycleError if the graph contains a directed cycle.
func DepthFirst(g *Graph, root NodeID) ([]NodeID, error) {
	order, _, err := traverse(g, root, false)
	return order, err
}

// Topological returns the nodes reachable from root ordered so that every
// node precedes all of its inputs (root first, leaves last). Iterate it in
// reverse to process children before parents. Returns a CycleError if the
// graph contains a directed cycle.
func Topological(g *Graph, root NodeID) ([]NodeID, error) {
	candidates, parents, err := traverse(g, root, true)
	if err != nil {
		return nil, err
	}
	order := make([]NodeID, 0, len(candidates))
	emitted := make(map[NodeID]bool, len(candidates))
	for len(candidates) > 0 {
		proposed := candidates[0]
		candidates = candidates[1:]
		ready := true
		for p := range parents[proposed] {
			if !emitted[p] {
				ready = false
				break
			}
		}
		if !ready {
			candidates = append(candidates, proposed)
			continue
		}
		emitted[proposed] = true
		order = append(order, proposed)
	}
	return order, nil
}

// traverse walks the graph depth-first from root, detecting cycles with the
// path stack. When buildParents is set it also returns the inverted index
// (node -> set of parents) Topological needs.
func traverse(g *Graph, root NodeID, buildParents bool) ([]NodeID, map[NodeID]map[NodeID]bool, error) {
	if !g.valid(root) {
		return nil, nil, &InvalidNodeError{ID: root}
	}

	type frame struct {
		parent NodeID
		node   NodeID
	}

	visited := make(map[NodeID]bool)
	var parents map[NodeID]map[NodeID]bool
	if buildParents {
		parents = make(map[NodeID]map[NodeID]bool)
	}
	var order []NodeID

	path := newUniqueStack()
	path.push(noParent)
	toVisit := []frame{{noParent, root}}

	for len(toVisit) > 0 {
		f := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
		path.popUntil(f.parent)
		if !path.push(f.node) {
			return nil, nil, &CycleError{At: f.node}
		}
		if visited[f.node] {
			if buildParents && f.parent != noParent {
				parents[f.node][f.parent] = true
			}
			continue
		}
		visited[f.node] = true
		if buildParents {
			parents[f.node] = make(map[NodeID]bool)
			if f.parent != noParent {
				parents[f.node][f.parent] = true
			}
		}
		order = append(order, f.node)
		children := g.Inputs(f.node)
		// Reversed so the left-most child is popped first.
		for i := len(children) - 1; i >= 0; i-- {
			toVisit = append(toVisit, frame{f.node, children[i]})
		}
	}
	return order, parents, nil
}
