package graph

import "fmt"

// Arguments computes the parameter assignment of a call node: a mapping of
// declared parameter names to the argument handles bound to them. The
// registry must implement Signer and declare a signature for the node's
// operation; positional arguments bind to declared names in order, keyword
// arguments by name. Parameters left unbound are simply absent from the
// result.
func (g *Graph) Arguments(id NodeID) (map[string]NodeID, error) {
	if !g.valid(id) {
		return nil, &InvalidNodeError{ID: id}
	}
	n := &g.nodes[id]
	if n.kind != KindCall {
		return nil, fmt.Errorf("node %d is not a call", id)
	}
	signer, ok := g.reg.(Signer)
	if !ok {
		return nil, fmt.Errorf("registry does not declare signatures")
	}
	params, ok := signer.Signature(n.op)
	if !ok {
		return nil, fmt.Errorf("no signature declared for operation '%s'", n.op)
	}
	if params == nil {
		// Variadic operation: positional arguments bind to decimal keys.
		binding := make(map[string]NodeID, len(n.pos)+len(n.kw))
		for i, arg := range n.pos {
			binding[fmt.Sprintf("%d", i)] = arg
		}
		for _, kw := range n.kw {
			binding[kw.Name] = kw.Arg
		}
		return binding, nil
	}

	if len(n.pos) > len(params) {
		return nil, fmt.Errorf("operation '%s' takes %d parameters, got %d positional arguments",
			n.op, len(params), len(n.pos))
	}
	binding := make(map[string]NodeID, len(params))
	for i, arg := range n.pos {
		binding[params[i]] = arg
	}
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p] = true
	}
	for _, kw := range n.kw {
		if !declared[kw.Name] {
			return nil, fmt.Errorf("operation '%s' has no parameter '%s'", n.op, kw.Name)
		}
		if _, dup := binding[kw.Name]; dup {
			return nil, fmt.Errorf("duplicate argument for parameter '%s' of '%s'", kw.Name, n.op)
		}
		binding[kw.Name] = kw.Arg
	}
	return binding, nil
}
