package graph

import (
	"strconv"
	"strings"

	"github.com/parametric-labs/searchspace/pkg/types"
)

// Slot is one binding site of an unresolved parameter: the path that reaches
// it from the enumeration root plus the parameter's declared name. A
// parameter node shared by several parents appears once per binding site.
//
// Paths are "/"-separated selectors from the root: a decimal segment selects
// a positional argument, any other segment selects a keyword argument. The
// empty path addresses the root itself.
type Slot struct {
	Path string
	Name string
	Node NodeID
}

// ParamInfo describes one search dimension: a distinct parameter name with
// its declaration attributes.
type ParamInfo struct {
	Name  string
	Attrs *types.OrderedMap
	Node  NodeID
}

// FreeSlots enumerates every unresolved slot reachable from root in
// deterministic pre-order, positional arguments left to right before keyword
// arguments in name order. A caller that binds every listed path (or supplies
// every listed name in the evaluation environment) can evaluate the graph.
func (g *Graph) FreeSlots(root NodeID) []Slot {
	var slots []Slot
	g.walkSlots(root, "", &slots)
	return slots
}

func (g *Graph) walkSlots(id NodeID, path string, slots *[]Slot) {
	n := &g.nodes[id]
	switch n.kind {
	case KindParam:
		*slots = append(*slots, Slot{Path: path, Name: n.paramName, Node: id})
	case KindCall:
		for i, c := range n.pos {
			g.walkSlots(c, childPath(path, strconv.Itoa(i)), slots)
		}
		for _, kw := range n.kw {
			g.walkSlots(kw.Arg, childPath(path, kw.Name), slots)
		}
	}
}

// Params returns the distinct parameter names reachable from root, in order
// of first appearance under the FreeSlots ordering. These are the dimensions
// of the search space.
func (g *Graph) Params(root NodeID) []ParamInfo {
	seen := make(map[string]bool)
	var params []ParamInfo
	for _, slot := range g.FreeSlots(root) {
		if seen[slot.Name] {
			continue
		}
		seen[slot.Name] = true
		params = append(params, ParamInfo{
			Name:  slot.Name,
			Attrs: g.nodes[slot.Node].paramAttrs,
			Node:  slot.Node,
		})
	}
	return params
}

// Bind returns a new root whose slot at path is replaced by value. Only the
// nodes on the root-to-slot path are reallocated; every other subtree is
// shared by handle with the original graph, which Bind never mutates.
// Fails with a SlotNotFoundError when path does not lead to an open slot.
func (g *Graph) Bind(root NodeID, path string, value NodeID) (NodeID, error) {
	if !g.valid(root) {
		return 0, &InvalidNodeError{ID: root}
	}
	if !g.valid(value) {
		return 0, &InvalidNodeError{ID: value}
	}
	var segs []string
	if path != "" {
		segs = strings.Split(path, "/")
	}
	return g.rebind(root, segs, value, path)
}

func (g *Graph) rebind(id NodeID, segs []string, value NodeID, full string) (NodeID, error) {
	if len(segs) == 0 {
		if g.nodes[id].kind != KindParam {
			return 0, &SlotNotFoundError{Path: full}
		}
		return value, nil
	}
	n := g.nodes[id]
	if n.kind != KindCall {
		return 0, &SlotNotFoundError{Path: full}
	}
	seg, rest := segs[0], segs[1:]

	if idx, err := strconv.Atoi(seg); err == nil {
		if idx < 0 || idx >= len(n.pos) {
			return 0, &SlotNotFoundError{Path: full}
		}
		replaced, err := g.rebind(n.pos[idx], rest, value, full)
		if err != nil {
			return 0, err
		}
		pos := append([]NodeID(nil), n.pos...)
		pos[idx] = replaced
		return g.add(node{kind: KindCall, op: n.op, pos: pos, kw: n.kw}), nil
	}

	for i, kw := range n.kw {
		if kw.Name != seg {
			continue
		}
		replaced, err := g.rebind(kw.Arg, rest, value, full)
		if err != nil {
			return 0, err
		}
		kws := append([]Keyword(nil), n.kw...)
		kws[i] = Keyword{Name: kw.Name, Arg: replaced}
		return g.add(node{kind: KindCall, op: n.op, pos: n.pos, kw: kws}), nil
	}
	return 0, &SlotNotFoundError{Path: full}
}

func childPath(base, seg string) string {
	if base == "" {
		return seg
	}
	return base + "/" + seg
}
