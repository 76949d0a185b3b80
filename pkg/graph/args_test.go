package graph_test

import (
	"testing"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/ops"
	"github.com/parametric-labs/searchspace/pkg/types"
)

func TestArgumentsPositionalAndKeyword(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	a := g.Literal(types.NewInt(1))
	b := g.Literal(types.NewInt(2))
	call := mustCall(t, g, "add", []graph.NodeID{a}, map[string]graph.NodeID{"b": b})

	binding, err := g.Arguments(call)
	if err != nil {
		t.Fatalf("Arguments failed: %v", err)
	}
	if binding["a"] != a || binding["b"] != b {
		t.Errorf("binding = %v, want a=%d b=%d", binding, a, b)
	}
}

func TestArgumentsPartialApplication(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	a := g.Literal(types.NewInt(1))
	call := mustCall(t, g, "add", []graph.NodeID{a}, nil)

	binding, err := g.Arguments(call)
	if err != nil {
		t.Fatalf("Arguments failed: %v", err)
	}
	if len(binding) != 1 || binding["a"] != a {
		t.Errorf("binding = %v, want only a=%d", binding, a)
	}
}

func TestArgumentsVariadic(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	a := g.Literal(types.NewInt(1))
	b := g.Literal(types.NewInt(2))
	call := mustCall(t, g, "list", []graph.NodeID{a, b}, nil)

	binding, err := g.Arguments(call)
	if err != nil {
		t.Fatalf("Arguments failed: %v", err)
	}
	if binding["0"] != a || binding["1"] != b {
		t.Errorf("binding = %v, want 0=%d 1=%d", binding, a, b)
	}
}

func TestArgumentsErrors(t *testing.T) {
	g := graph.New(ops.NewRegistry())
	lit := g.Literal(types.NewInt(1))

	t.Run("not a call", func(t *testing.T) {
		if _, err := g.Arguments(lit); err == nil {
			t.Fatal("expected error for a literal node")
		}
	})

	t.Run("too many positional", func(t *testing.T) {
		call := mustCall(t, g, "neg", []graph.NodeID{lit, lit}, nil)
		if _, err := g.Arguments(call); err == nil {
			t.Fatal("expected error for excess positional arguments")
		}
	})

	t.Run("unknown keyword", func(t *testing.T) {
		call := mustCall(t, g, "add", nil, map[string]graph.NodeID{"c": lit})
		if _, err := g.Arguments(call); err == nil {
			t.Fatal("expected error for undeclared keyword")
		}
	})

	t.Run("duplicate binding", func(t *testing.T) {
		call := mustCall(t, g, "add", []graph.NodeID{lit}, map[string]graph.NodeID{"a": lit})
		if _, err := g.Arguments(call); err == nil {
			t.Fatal("expected error for doubly bound parameter")
		}
	})
}
