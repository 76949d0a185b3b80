package space

import (
	"testing"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/types"
)

const mlpSource = `!call:mul
a: !param:lr
  type: float
  min: 0.0001
  max: 0.1
b: !call:pow [2, !param:depth {type: int, min: 1, max: 6}]
`

func TestLoadAndParams(t *testing.T) {
	sp, err := Load([]byte(mlpSource))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	params := sp.Params()
	if len(params) != 2 {
		t.Fatalf("got %d params, want 2", len(params))
	}
	if params[0].Name != "lr" || params[1].Name != "depth" {
		t.Errorf("params = [%s, %s], want [lr, depth]", params[0].Name, params[1].Name)
	}
}

func TestLoadRejectsInvalidSource(t *testing.T) {
	if _, err := Load([]byte("!call:unknown_op {x: 1}")); err == nil {
		t.Fatal("Load accepted an unknown operation")
	}
}

func TestEvaluate(t *testing.T) {
	sp, err := Load([]byte(mlpSource))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got, err := sp.Evaluate(graph.Env{
		"lr":    types.NewDouble(0.01),
		"depth": types.NewInt(3),
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !got.Equal(types.NewDouble(0.08)) {
		t.Errorf("got %s, want 0.08", got)
	}
}

func TestEvaluateMissingDimension(t *testing.T) {
	sp, err := Load([]byte(mlpSource))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := sp.Evaluate(graph.Env{"lr": types.NewDouble(0.01)}); err == nil {
		t.Fatal("Evaluate accepted a partial environment")
	}
}

func TestBindNarrowsSpace(t *testing.T) {
	sp, err := Load([]byte(mlpSource))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := sp.Bind("a", types.NewDouble(0.05)); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	slots := sp.FreeSlots()
	if len(slots) != 1 || slots[0].Name != "depth" {
		t.Fatalf("slots after bind = %v, want only depth", slots)
	}

	got, err := sp.Evaluate(graph.Env{"depth": types.NewInt(2)})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !got.Equal(types.NewDouble(0.2)) {
		t.Errorf("got %s, want 0.2", got)
	}
}

func TestBindUnknownPath(t *testing.T) {
	sp, err := Load([]byte(mlpSource))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := sp.Bind("nope", types.NewInt(1)); err == nil {
		t.Fatal("Bind accepted an unknown path")
	}
	// A failed bind leaves the space untouched.
	if got := len(sp.FreeSlots()); got != 2 {
		t.Errorf("free slots = %d after failed bind, want 2", got)
	}
}

func TestExport(t *testing.T) {
	sp, err := Load([]byte(mlpSource))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	exported, err := sp.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(exported.Nodes) == 0 {
		t.Fatal("export produced no nodes")
	}
	if len(exported.Params) != 2 {
		t.Errorf("export lists %d params, want 2", len(exported.Params))
	}
}

func TestLoadWithEnviron(t *testing.T) {
	sp, err := LoadWithOptions([]byte("run: ${RUN_NAME}\n"), Options{
		Environ: map[string]string{"RUN_NAME": "trial-7"},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := sp.Evaluate(nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	run, _ := got.AsMap().Get("run")
	if !run.Equal(types.NewString("trial-7")) {
		t.Errorf("run = %s, want trial-7", run)
	}
}
