package graph

import (
	"fmt"
	"strconv"

	"github.com/parametric-labs/searchspace/pkg/types"
)

// Env supplies values for parameters not bound into the graph itself. Keys
// are parameter names, one per search dimension.
type Env map[string]types.Value

// Evaluate reduces the subgraph rooted at root to a concrete value: a
// depth-first, post-order walk in which every argument is evaluated before
// the operation that consumes it. Results are memoized by node identity for
// the duration of one Evaluate call, so a node shared by several parents is
// computed exactly once. Evaluation never mutates the graph; the same root
// can be evaluated repeatedly with different environments.
//
// Fails with an UnboundSlotError when a reachable parameter has no entry in
// env, and with an EvalError wrapping the cause when an operation fails.
func (g *Graph) Evaluate(root NodeID, env Env) (types.Value, error) {
	if !g.valid(root) {
		return types.Null, &InvalidNodeError{ID: root}
	}
	e := &evaluator{g: g, env: env, memo: make(map[NodeID]types.Value)}
	return e.eval(root, "")
}

type evaluator struct {
	g    *Graph
	env  Env
	memo map[NodeID]types.Value
}

func (e *evaluator) eval(id NodeID, path string) (types.Value, error) {
	if v, ok := e.memo[id]; ok {
		return v, nil
	}
	n := &e.g.nodes[id]
	switch n.kind {
	case KindLiteral:
		e.memo[id] = n.lit
		return n.lit, nil

	case KindParam:
		v, ok := e.env[n.paramName]
		if !ok {
			return types.Null, &UnboundSlotError{Name: n.paramName, Path: path}
		}
		e.memo[id] = v
		return v, nil

	case KindCall:
		// index over a deferred list or dict only evaluates the element
		// that is actually selected.
		if n.op == OpIndex && len(n.pos) == 2 && len(n.kw) == 0 {
			obj := &e.g.nodes[n.pos[0]]
			if obj.kind == KindCall && (obj.op == OpList || obj.op == OpDict) {
				return e.evalLazyIndex(id, path)
			}
		}

		pos := make([]types.Value, len(n.pos))
		for i, c := range n.pos {
			v, err := e.eval(c, childPath(path, strconv.Itoa(i)))
			if err != nil {
				return types.Null, err
			}
			pos[i] = v
		}
		var kw map[string]types.Value
		if len(n.kw) > 0 {
			kw = make(map[string]types.Value, len(n.kw))
			for _, k := range n.kw {
				v, err := e.eval(k.Arg, childPath(path, k.Name))
				if err != nil {
					return types.Null, err
				}
				kw[k.Name] = v
			}
		}

		fn, ok := e.g.reg.Resolve(n.op)
		if !ok {
			return types.Null, &EvalError{Op: n.op, Node: id, Path: path, Err: &UnknownCallableError{Name: n.op}}
		}
		result, err := fn(pos, kw)
		if err != nil {
			return types.Null, &EvalError{Op: n.op, Node: id, Path: path, Err: err}
		}
		e.memo[id] = result
		return result, nil
	}
	return types.Null, &EvalError{Op: "", Node: id, Path: path, Err: fmt.Errorf("unknown node kind %d", n.kind)}
}

// evalLazyIndex handles index(list(...), i) and index(dict(...), k) without
// evaluating the elements that are not selected. This is what makes choice
// alternatives free until chosen.
func (e *evaluator) evalLazyIndex(id NodeID, path string) (types.Value, error) {
	n := &e.g.nodes[id]
	objID, keyID := n.pos[0], n.pos[1]
	obj := &e.g.nodes[objID]
	objPath := childPath(path, "0")

	key, err := e.eval(keyID, childPath(path, "1"))
	if err != nil {
		return types.Null, err
	}

	switch obj.op {
	case OpList:
		idx, ok := listIndex(key, len(obj.pos))
		if !ok {
			return types.Null, &EvalError{Op: n.op, Node: id, Path: path,
				Err: fmt.Errorf("list index %s out of range for length %d", key, len(obj.pos))}
		}
		v, err := e.eval(obj.pos[idx], childPath(objPath, strconv.Itoa(idx)))
		if err != nil {
			return types.Null, err
		}
		e.memo[id] = v
		return v, nil

	case OpDict:
		for i, pairID := range obj.pos {
			pair := &e.g.nodes[pairID]
			if pair.kind != KindCall || pair.op != OpPair || len(pair.pos) != 2 {
				return types.Null, &EvalError{Op: n.op, Node: id, Path: path,
					Err: fmt.Errorf("dict entry %d is not a pair node", i)}
			}
			pairPath := childPath(objPath, strconv.Itoa(i))
			k, err := e.eval(pair.pos[0], childPath(pairPath, "0"))
			if err != nil {
				return types.Null, err
			}
			if !k.Equal(key) {
				continue
			}
			v, err := e.eval(pair.pos[1], childPath(pairPath, "1"))
			if err != nil {
				return types.Null, err
			}
			e.memo[id] = v
			return v, nil
		}
		return types.Null, &EvalError{Op: n.op, Node: id, Path: path,
			Err: fmt.Errorf("key %s not found", key)}
	}
	return types.Null, &EvalError{Op: n.op, Node: id, Path: path,
		Err: fmt.Errorf("unexpected lazy index target '%s'", obj.op)}
}

// listIndex resolves an index value against a list of length n, supporting
// negative indices counted from the end.
func listIndex(key types.Value, n int) (int, bool) {
	if key.Type() != types.TypeInt {
		return 0, false
	}
	idx := int(key.AsInt())
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}
