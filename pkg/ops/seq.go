package ops

import (
	"fmt"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/types"
)

// registerSeq registers the sequence and mapping constructors the graph
// helpers (List, Pair, Dict, Index) defer to, plus element access.
func (r *Registry) registerSeq() {
	r.Register(graph.OpList, nil, seqList)
	r.Register(graph.OpPair, []string{"key", "value"}, seqPair)
	r.Register(graph.OpDict, nil, seqDict)
	r.Register(graph.OpIndex, []string{"obj", "key"}, seqIndex)
	r.Register("len", []string{"obj"}, seqLen)
}

// seqList builds a list from its positional arguments.
func seqList(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if len(kw) > 0 {
		return types.Null, fmt.Errorf("list does not accept keyword arguments")
	}
	return types.NewList(append([]types.Value(nil), pos...)), nil
}

// seqPair builds a two-element list, the entry form dict consumes.
func seqPair(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("pair", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	return types.NewList([]types.Value{pos[0], pos[1]}), nil
}

// seqDict builds an ordered map from pair arguments. Later duplicate keys
// overwrite earlier ones, keeping the first key's position.
func seqDict(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if len(kw) > 0 {
		return types.Null, fmt.Errorf("dict does not accept keyword arguments")
	}
	m := types.NewOrderedMap()
	for i, entry := range pos {
		if entry.Type() != types.TypeList || len(entry.AsList()) != 2 {
			return types.Null, fmt.Errorf("dict entry %d is not a [key, value] pair", i)
		}
		pair := entry.AsList()
		key := pair[0]
		if key.Type() != types.TypeString {
			return types.Null, fmt.Errorf("dict key %s is not a string", key)
		}
		m.Set(key.AsString(), pair[1])
	}
	return types.NewMap(m), nil
}

// seqIndex looks up an element of an evaluated list or map. Deferred lists
// and dicts never reach here: the evaluator short-circuits index nodes over
// them so unselected elements stay unevaluated.
func seqIndex(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("index", pos, kw, 2, 2); err != nil {
		return types.Null, err
	}
	obj, key := pos[0], pos[1]
	switch obj.Type() {
	case types.TypeList:
		if key.Type() != types.TypeInt {
			return types.Null, fmt.Errorf("list index must be an int, got %s", key.Type())
		}
		items := obj.AsList()
		idx := int(key.AsInt())
		if idx < 0 {
			idx += len(items)
		}
		if idx < 0 || idx >= len(items) {
			return types.Null, fmt.Errorf("list index %s out of range for length %d", key, len(items))
		}
		return items[idx], nil
	case types.TypeMap:
		if key.Type() != types.TypeString {
			return types.Null, fmt.Errorf("map key must be a string, got %s", key.Type())
		}
		v, ok := obj.AsMap().Get(key.AsString())
		if !ok {
			return types.Null, fmt.Errorf("key %s not found", key)
		}
		return v, nil
	}
	return types.Null, fmt.Errorf("cannot index %s value", obj.Type())
}

func seqLen(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
	if err := requireArgs("len", pos, kw, 1, 1); err != nil {
		return types.Null, err
	}
	switch pos[0].Type() {
	case types.TypeString:
		return types.NewInt(int64(len(pos[0].AsString()))), nil
	case types.TypeList:
		return types.NewInt(int64(len(pos[0].AsList()))), nil
	case types.TypeMap:
		return types.NewInt(int64(pos[0].AsMap().Len())), nil
	}
	return types.Null, fmt.Errorf("len requires a string, list, or map, got %s", pos[0].Type())
}
