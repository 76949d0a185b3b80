package graph_test

import (
	"errors"
	"testing"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/ops"
	"github.com/parametric-labs/searchspace/pkg/types"
)

func mustCall(t *testing.T, g *graph.Graph, op string, pos []graph.NodeID, kw map[string]graph.NodeID) graph.NodeID {
	t.Helper()
	id, err := g.Call(op, pos, kw)
	if err != nil {
		t.Fatalf("Call(%s) failed: %v", op, err)
	}
	return id
}

func TestLiteralAndAccessors(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	lit := g.Literal(types.NewInt(42))
	if g.Kind(lit) != graph.KindLiteral {
		t.Fatalf("expected literal kind, got %s", g.Kind(lit))
	}
	if !g.LiteralValue(lit).Equal(types.NewInt(42)) {
		t.Errorf("literal value = %s, want 42", g.LiteralValue(lit))
	}
	if got := g.Inputs(lit); len(got) != 0 {
		t.Errorf("literal has %d inputs, want 0", len(got))
	}
}

func TestCallAccessors(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	a := g.Literal(types.NewInt(2))
	b := g.Literal(types.NewInt(3))
	c := g.Literal(types.NewInt(4))
	call := mustCall(t, g, "add", []graph.NodeID{a, b}, nil)
	outer := mustCall(t, g, "mul", []graph.NodeID{call}, map[string]graph.NodeID{"b": c})

	if g.Kind(call) != graph.KindCall {
		t.Fatalf("expected call kind, got %s", g.Kind(call))
	}
	if g.OpName(call) != "add" {
		t.Errorf("op = %s, want add", g.OpName(call))
	}
	if args := g.Args(call); len(args) != 2 || args[0] != a || args[1] != b {
		t.Errorf("unexpected args %v", args)
	}
	kws := g.Keywords(outer)
	if len(kws) != 1 || kws[0].Name != "b" || kws[0].Arg != c {
		t.Errorf("unexpected keywords %v", kws)
	}
	inputs := g.Inputs(outer)
	if len(inputs) != 2 || inputs[0] != call || inputs[1] != c {
		t.Errorf("unexpected inputs %v", inputs)
	}
}

func TestCallUnknownOperation(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	_, err := g.Call("no_such_op", nil, nil)
	var unknown *graph.UnknownCallableError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCallableError, got %v", err)
	}
	if unknown.Name != "no_such_op" {
		t.Errorf("error names '%s', want 'no_such_op'", unknown.Name)
	}
	// A failed Call must not grow the arena.
	if g.Len() != 0 {
		t.Errorf("arena has %d nodes after failed Call, want 0", g.Len())
	}
}

func TestCallInvalidArgument(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	_, err := g.Call("add", []graph.NodeID{99}, nil)
	var invalid *graph.InvalidNodeError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidNodeError, got %v", err)
	}
}

func TestKeywordsSorted(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	kw := map[string]graph.NodeID{
		"zeta":  g.Literal(types.NewInt(1)),
		"alpha": g.Literal(types.NewInt(2)),
		"mid":   g.Literal(types.NewInt(3)),
	}
	call := mustCall(t, g, "dict", nil, kw)

	kws := g.Keywords(call)
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if kws[i].Name != name {
			t.Fatalf("keyword %d = %s, want %s", i, kws[i].Name, name)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := graph.New(ops.NewRegistry())

	p := g.Param("lr", nil)
	root := mustCall(t, g, "mul", []graph.NodeID{p, g.Literal(types.NewInt(10))}, nil)

	cloned, err := g.Clone(root)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if cloned == root {
		t.Fatal("clone returned the original root")
	}

	// Binding the clone must not affect the original.
	bound, err := g.Bind(cloned, "0", g.Literal(types.NewDouble(0.5)))
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if got := g.FreeSlots(root); len(got) != 1 {
		t.Errorf("original lost its free slot after binding the clone")
	}
	if got := g.FreeSlots(bound); len(got) != 0 {
		t.Errorf("bound clone still has %d free slots", len(got))
	}
}

func TestChoiceOnlyEvaluatesSelected(t *testing.T) {
	reg := ops.NewRegistry()
	reg.Register("explode", nil, func(pos []types.Value, kw map[string]types.Value) (types.Value, error) {
		t.Fatal("unselected alternative was evaluated")
		return types.Null, nil
	})
	g := graph.New(reg)

	boom := mustCall(t, g, "explode", nil, nil)
	selector := g.Param("model", nil)
	root, err := g.Choice(selector, map[string]graph.NodeID{
		"safe": g.Literal(types.NewString("ok")),
		"bad":  boom,
	})
	if err != nil {
		t.Fatalf("Choice failed: %v", err)
	}

	result, err := g.Evaluate(root, graph.Env{"model": types.NewString("safe")})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !result.Equal(types.NewString("ok")) {
		t.Errorf("result = %s, want ok", result)
	}
}
