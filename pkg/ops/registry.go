// Package ops implements the operation registry a search-space graph resolves
// its deferred calls against. Every operation is addressed by name, validated
// when a call node is constructed, and invoked with fully evaluated
// arguments.
package ops

import (
	"fmt"
	"sort"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/types"
)

// Registry maps operation names to implementations and declared signatures.
// It implements graph.Resolver and graph.Signer.
type Registry struct {
	funcs map[string]graph.Func
	sigs  map[string][]string
}

// NewRegistry creates a registry with all built-in operations registered.
func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]graph.Func),
		sigs:  make(map[string][]string),
	}
	r.registerArith()
	r.registerSeq()
	r.registerText()
	return r
}

// Register adds an operation under name. params declares the operation's
// parameter names for keyword binding; nil means variadic (any positional
// arity, keywords passed through).
func (r *Registry) Register(name string, params []string, fn graph.Func) {
	r.funcs[name] = fn
	r.sigs[name] = params
}

// Resolve implements graph.Resolver.
func (r *Registry) Resolve(name string) (graph.Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Signature implements graph.Signer.
func (r *Registry) Signature(name string) ([]string, bool) {
	sig, ok := r.sigs[name]
	return sig, ok
}

// Names returns the registered operation names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// requireArgs checks positional arity and rejects unexpected keywords.
func requireArgs(name string, pos []types.Value, kw map[string]types.Value, min, max int) error {
	if len(kw) > 0 {
		for k := range kw {
			return fmt.Errorf("%s does not accept keyword argument '%s'", name, k)
		}
	}
	if len(pos) < min || len(pos) > max {
		if min == max {
			return fmt.Errorf("%s expects %d argument(s), got %d", name, min, len(pos))
		}
		return fmt.Errorf("%s expects %d-%d arguments, got %d", name, min, max, len(pos))
	}
	return nil
}

// number extracts a float64 from an int or double value.
func number(name string, v types.Value) (float64, error) {
	f, ok := v.AsNumber()
	if !ok {
		return 0, fmt.Errorf("%s requires number arguments, got %s", name, v.Type())
	}
	return f, nil
}

// bothInt reports whether both values are integers.
func bothInt(a, b types.Value) bool {
	return a.Type() == types.TypeInt && b.Type() == types.TypeInt
}
