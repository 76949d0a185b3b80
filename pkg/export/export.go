// Package export converts deferred expression graphs into a flat,
// structurally shared apply-table representation that external optimizers
// consume. The walk never evaluates the graph: call nodes are described by
// operation name and argument references, parameters by name and
// declaration attributes.
package export

import (
	"encoding/json"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/types"
)

// Node is one entry of the exported table. Args and Kwargs reference other
// entries by index; a subgraph shared by several parents appears once and is
// referenced from each of them, preserving the sharing structure of the
// source graph.
type Node struct {
	ID     int            `json:"id"`
	Kind   string         `json:"kind"`
	Value  *types.Value   `json:"value,omitempty"` // literal payload
	Op     string         `json:"op,omitempty"`    // call operation name
	Args   []int          `json:"args,omitempty"`
	Kwargs map[string]int `json:"kwargs,omitempty"`
	Name   string         `json:"name,omitempty"`  // parameter name
	Attrs  *types.Value   `json:"attrs,omitempty"` // parameter attributes
}

// Param describes one search dimension of the exported space.
type Param struct {
	Name  string       `json:"name"`
	Attrs *types.Value `json:"attrs,omitempty"`
	Node  int          `json:"node"`
}

// Space is the exported form of a search space: a node table with children
// listed before the parents that reference them, the root entry index, and
// the space's free parameters.
type Space struct {
	Root   int     `json:"root"`
	Nodes  []Node  `json:"nodes"`
	Params []Param `json:"params,omitempty"`
}

// Export flattens the subgraph rooted at root. Node indices are assigned in
// dependency order, so every entry only references lower indices.
func Export(g *graph.Graph, root graph.NodeID) (*Space, error) {
	order, err := graph.Topological(g, root)
	if err != nil {
		return nil, err
	}

	ids := make(map[graph.NodeID]int, len(order))
	space := &Space{Nodes: make([]Node, 0, len(order))}

	// Reverse topological order: children receive indices before parents.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		entry := Node{ID: len(space.Nodes), Kind: g.Kind(id).String()}
		switch g.Kind(id) {
		case graph.KindLiteral:
			v := g.LiteralValue(id)
			entry.Value = &v
		case graph.KindParam:
			entry.Name = g.ParamName(id)
			entry.Attrs = attrsValue(g.ParamAttrs(id))
		case graph.KindCall:
			entry.Op = g.OpName(id)
			args := g.Args(id)
			if len(args) > 0 {
				entry.Args = make([]int, len(args))
				for j, a := range args {
					entry.Args[j] = ids[a]
				}
			}
			kws := g.Keywords(id)
			if len(kws) > 0 {
				entry.Kwargs = make(map[string]int, len(kws))
				for _, kw := range kws {
					entry.Kwargs[kw.Name] = ids[kw.Arg]
				}
			}
		}
		ids[id] = entry.ID
		space.Nodes = append(space.Nodes, entry)
	}
	space.Root = ids[root]

	for _, p := range g.Params(root) {
		space.Params = append(space.Params, Param{
			Name:  p.Name,
			Attrs: attrsValue(p.Attrs),
			Node:  ids[p.Node],
		})
	}
	return space, nil
}

// JSON exports the subgraph rooted at root and serializes it.
func JSON(g *graph.Graph, root graph.NodeID) ([]byte, error) {
	space, err := Export(g, root)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(space, "", "  ")
}

func attrsValue(attrs *types.OrderedMap) *types.Value {
	if attrs == nil {
		return nil
	}
	v := types.NewMap(attrs)
	return &v
}
