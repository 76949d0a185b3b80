// Package space ties the pieces together: it loads a YAML definition into a
// deferred expression graph and exposes the search dimensions, binding,
// evaluation, and export over it.
package space

import (
	"sync"

	"github.com/parametric-labs/searchspace/pkg/export"
	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/ops"
	"github.com/parametric-labs/searchspace/pkg/parser"
	"github.com/parametric-labs/searchspace/pkg/types"
)

// Options adjusts how a space is loaded.
type Options struct {
	// Registry resolves operation names. Defaults to ops.NewRegistry().
	Registry graph.Resolver

	// Environ overlays the process environment for ${VAR} substitution.
	Environ map[string]string
}

// Space is a loaded search space: a graph, its current root, and the
// registry it resolves against. Bind advances the root through copy-on-write
// rebinding; the mutex makes that safe alongside concurrent evaluation.
type Space struct {
	mu   sync.RWMutex
	g    *graph.Graph
	root graph.NodeID
}

// Load parses source with the default operation registry.
func Load(source []byte) (*Space, error) {
	return LoadWithOptions(source, Options{})
}

// LoadWithOptions parses source into a Space.
func LoadWithOptions(source []byte, opts Options) (*Space, error) {
	if opts.Registry == nil {
		opts.Registry = ops.NewRegistry()
	}
	g, root, err := parser.Parse(source, parser.Options{
		Registry: opts.Registry,
		Environ:  opts.Environ,
	})
	if err != nil {
		return nil, err
	}
	return &Space{g: g, root: root}, nil
}

// New wraps an already-built graph and root.
func New(g *graph.Graph, root graph.NodeID) *Space {
	return &Space{g: g, root: root}
}

// Graph returns the underlying graph and current root.
func (s *Space) Graph() (*graph.Graph, graph.NodeID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g, s.root
}

// Params returns the space's search dimensions: each distinct free parameter
// with its declaration attributes.
func (s *Space) Params() []graph.ParamInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.Params(s.root)
}

// FreeSlots returns every unresolved binding site reachable from the root.
func (s *Space) FreeSlots() []graph.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.FreeSlots(s.root)
}

// Bind fixes the slot at path to a literal value, advancing the root to the
// rebound graph. Subtrees off the root-to-slot path are shared, not copied.
func (s *Space) Bind(path string, value types.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lit := s.g.Literal(value)
	root, err := s.g.Bind(s.root, path, lit)
	if err != nil {
		return err
	}
	s.root = root
	return nil
}

// Evaluate reduces the space to a concrete value under env, which must
// supply a value for every remaining free parameter.
func (s *Space) Evaluate(env graph.Env) (types.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.Evaluate(s.root, env)
}

// Export flattens the space into its optimizer-facing representation.
func (s *Space) Export() (*export.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return export.Export(s.g, s.root)
}
