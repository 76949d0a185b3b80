// Package graph implements the deferred expression graph at the heart of a
// search space: an arena of immutable nodes representing literals, parameters
// (free slots), and partial applications of registered operations. Graphs are
// built once, inspected and rebound many times, and evaluated against an
// environment that supplies values for free parameters.
package graph

import (
	"sort"

	"github.com/parametric-labs/searchspace/pkg/types"
)

// NodeID is a handle into a Graph's node arena. Handles are only meaningful
// for the graph that issued them.
type NodeID int32

// Kind discriminates the node variants.
type Kind int

const (
	KindLiteral Kind = iota // a concrete value
	KindCall                // a deferred call to a registered operation
	KindParam               // an unresolved slot, one search dimension
)

// String returns the kind name used in exports and error messages.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindCall:
		return "call"
	case KindParam:
		return "param"
	default:
		return "unknown"
	}
}

// Func is a registered operation. Positional and keyword arguments arrive
// fully evaluated.
type Func func(pos []types.Value, kw map[string]types.Value) (types.Value, error)

// Resolver resolves operation names for Call construction and evaluation.
type Resolver interface {
	Resolve(name string) (Func, bool)
}

// Signer is an optional extension of Resolver for registries that declare
// parameter names for their operations. Arguments uses it to bind positional
// arguments to names.
type Signer interface {
	Signature(name string) ([]string, bool)
}

// Keyword is a named argument edge of a call node. Call nodes keep their
// keywords sorted by name so traversal order is deterministic.
type Keyword struct {
	Name string
	Arg  NodeID
}

// node is the arena entry. Nodes are immutable once appended; Bind allocates
// replacements instead of editing in place.
type node struct {
	kind Kind

	lit types.Value // KindLiteral

	op  string    // KindCall
	pos []NodeID  // KindCall
	kw  []Keyword // KindCall, sorted by name

	paramName  string            // KindParam
	paramAttrs *types.OrderedMap // KindParam, may be nil
}

// Graph is an append-only arena of nodes sharing one operation registry.
// Construction and binding are not safe for concurrent use; evaluation and
// read-only inspection of a quiescent graph are.
type Graph struct {
	nodes []node
	reg   Resolver
}

// New creates an empty graph whose call nodes resolve against reg.
func New(reg Resolver) *Graph {
	return &Graph{reg: reg}
}

// Len returns the number of nodes allocated in the arena.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Registry returns the resolver the graph validates calls against.
func (g *Graph) Registry() Resolver {
	return g.reg
}

func (g *Graph) add(n node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Literal allocates a literal node wrapping v. Never fails.
func (g *Graph) Literal(v types.Value) NodeID {
	return g.add(node{kind: KindLiteral, lit: v})
}

// Param allocates a parameter node: an unresolved slot named name, carrying
// optional declaration attributes (type, min, max, default, ...). Parameter
// values are supplied either by Bind or by the evaluation environment.
func (g *Graph) Param(name string, attrs *types.OrderedMap) NodeID {
	return g.add(node{kind: KindParam, paramName: name, paramAttrs: attrs})
}

// Call allocates a partial-application node deferring op over the given
// positional and keyword arguments. The operation must resolve in the
// registry (fail fast, per UnknownCallableError) and every argument must be
// a node previously allocated in this graph, which keeps the arena acyclic
// by construction.
func (g *Graph) Call(op string, pos []NodeID, kw map[string]NodeID) (NodeID, error) {
	if _, ok := g.reg.Resolve(op); !ok {
		return 0, &UnknownCallableError{Name: op}
	}
	for _, id := range pos {
		if !g.valid(id) {
			return 0, &InvalidNodeError{ID: id}
		}
	}
	n := node{kind: KindCall, op: op, pos: append([]NodeID(nil), pos...)}
	if len(kw) > 0 {
		n.kw = make([]Keyword, 0, len(kw))
		for name, id := range kw {
			if !g.valid(id) {
				return 0, &InvalidNodeError{ID: id}
			}
			n.kw = append(n.kw, Keyword{Name: name, Arg: id})
		}
		sort.Slice(n.kw, func(i, j int) bool { return n.kw[i].Name < n.kw[j].Name })
	}
	return g.add(n), nil
}

// List allocates a deferred list-construction call over elems.
func (g *Graph) List(elems ...NodeID) (NodeID, error) {
	return g.Call(OpList, elems, nil)
}

// Pair allocates a deferred two-element pair, the building block of Dict.
func (g *Graph) Pair(key, value NodeID) (NodeID, error) {
	return g.Call(OpPair, []NodeID{key, value}, nil)
}

// Dict allocates a deferred map-construction call over pair nodes.
func (g *Graph) Dict(pairs ...NodeID) (NodeID, error) {
	return g.Call(OpDict, pairs, nil)
}

// Index allocates a deferred element lookup, obj[key]. When obj is a
// deferred list or dict node, evaluation only touches the selected element.
func (g *Graph) Index(obj, key NodeID) (NodeID, error) {
	return g.Call(OpIndex, []NodeID{obj, key}, nil)
}

// Choice builds the switch construct of a search space: a deferred dict of
// label -> expression indexed by the selector node. Because indexing is
// lazy, only the chosen alternative is ever evaluated.
func (g *Graph) Choice(selector NodeID, alternatives map[string]NodeID) (NodeID, error) {
	labels := make([]string, 0, len(alternatives))
	for label := range alternatives {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	pairs := make([]NodeID, 0, len(labels))
	for _, label := range labels {
		p, err := g.Pair(g.Literal(types.NewString(label)), alternatives[label])
		if err != nil {
			return 0, err
		}
		pairs = append(pairs, p)
	}
	d, err := g.Dict(pairs...)
	if err != nil {
		return 0, err
	}
	return g.Index(d, selector)
}

// Operation names the graph helpers build on. A registry used with this
// package must provide them; ops.NewRegistry does.
const (
	OpList  = "list"
	OpPair  = "pair"
	OpDict  = "dict"
	OpIndex = "index"
)

// Kind returns the variant of the node behind id.
func (g *Graph) Kind(id NodeID) Kind {
	return g.nodes[id].kind
}

// LiteralValue returns the payload of a literal node.
func (g *Graph) LiteralValue(id NodeID) types.Value {
	return g.nodes[id].lit
}

// OpName returns the operation name of a call node.
func (g *Graph) OpName(id NodeID) string {
	return g.nodes[id].op
}

// Args returns a copy of a call node's positional argument handles.
func (g *Graph) Args(id NodeID) []NodeID {
	return append([]NodeID(nil), g.nodes[id].pos...)
}

// Keywords returns a copy of a call node's keyword argument edges, sorted
// by name.
func (g *Graph) Keywords(id NodeID) []Keyword {
	return append([]Keyword(nil), g.nodes[id].kw...)
}

// ParamName returns the slot name of a parameter node.
func (g *Graph) ParamName(id NodeID) string {
	return g.nodes[id].paramName
}

// ParamAttrs returns the declaration attributes of a parameter node, or nil.
func (g *Graph) ParamAttrs(id NodeID) *types.OrderedMap {
	return g.nodes[id].paramAttrs
}

// Inputs returns every child handle of id: positional arguments followed by
// keyword arguments in name order. Literal and parameter nodes have none.
func (g *Graph) Inputs(id NodeID) []NodeID {
	n := &g.nodes[id]
	if n.kind != KindCall {
		return nil
	}
	children := make([]NodeID, 0, len(n.pos)+len(n.kw))
	children = append(children, n.pos...)
	for _, kw := range n.kw {
		children = append(children, kw.Arg)
	}
	return children
}

// Clone deep-copies the subgraph rooted at root into fresh arena nodes and
// returns the new root. The copy shares nothing with the original, so later
// binds against either root cannot disturb the other.
func (g *Graph) Clone(root NodeID) (NodeID, error) {
	if !g.valid(root) {
		return 0, &InvalidNodeError{ID: root}
	}
	order, err := Topological(g, root)
	if err != nil {
		return 0, err
	}
	copies := make(map[NodeID]NodeID, len(order))
	// Reverse topological order: children are copied before their parents.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		n := g.nodes[id]
		switch n.kind {
		case KindLiteral:
			copies[id] = g.Literal(n.lit.Clone())
		case KindParam:
			var attrs *types.OrderedMap
			if n.paramAttrs != nil {
				attrs = n.paramAttrs.Clone()
			}
			copies[id] = g.Param(n.paramName, attrs)
		case KindCall:
			pos := make([]NodeID, len(n.pos))
			for j, c := range n.pos {
				pos[j] = copies[c]
			}
			kw := make([]Keyword, len(n.kw))
			for j, k := range n.kw {
				kw[j] = Keyword{Name: k.Name, Arg: copies[k.Arg]}
			}
			copies[id] = g.add(node{kind: KindCall, op: n.op, pos: pos, kw: kw})
		}
	}
	return copies[root], nil
}
