package store

import (
	"testing"

	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/types"
)

const validSource = "!call:add {a: !param:x, b: 1}\n"

func TestCreateAndGet(t *testing.T) {
	s := New()

	created, err := s.Create("tuning", validSource, "toy space")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "tuning" || created.RevisionID == "" {
		t.Errorf("entry = %+v", created)
	}
	if created.CreateTime.IsZero() || !created.UpdateTime.Equal(created.CreateTime) {
		t.Errorf("timestamps = %v / %v", created.CreateTime, created.UpdateTime)
	}

	got, err := s.Get("tuning")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != created {
		t.Error("Get returned a different entry")
	}
	if got.Space == nil {
		t.Fatal("stored entry has no loaded space")
	}
	v, err := got.Space.Evaluate(graph.Env{"x": types.NewInt(4)})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !v.Equal(types.NewInt(5)) {
		t.Errorf("evaluated %s, want 5", v)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	s := New()
	if _, err := s.Create("dup", validSource, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create("dup", validSource, ""); err == nil {
		t.Fatal("Create accepted a duplicate name")
	}
}

func TestCreateInvalidSource(t *testing.T) {
	s := New()
	if _, err := s.Create("bad", "!call:no_such_op ~", ""); err == nil {
		t.Fatal("Create accepted an invalid source")
	}
	if _, err := s.Get("bad"); err == nil {
		t.Error("invalid space was stored anyway")
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	if _, err := s.Get("ghost"); err == nil {
		t.Fatal("Get returned a missing space")
	}
}

func TestListSorted(t *testing.T) {
	s := New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.Create(name, validSource, ""); err != nil {
			t.Fatalf("Create(%s) failed: %v", name, err)
		}
	}

	entries := s.List()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, entry := range entries {
		if entry.Name != want[i] {
			t.Errorf("entry %d = %s, want %s", i, entry.Name, want[i])
		}
	}
}

func TestUpdate(t *testing.T) {
	s := New()
	created, err := s.Create("tuning", validSource, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	firstRev := created.RevisionID

	updated, err := s.Update("tuning", "!call:mul {a: !param:x, b: 2}\n", "now doubles")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.RevisionID == firstRev {
		t.Error("revision did not advance on update")
	}
	if updated.Description != "now doubles" {
		t.Errorf("description = %s", updated.Description)
	}
	v, err := updated.Space.Evaluate(graph.Env{"x": types.NewInt(4)})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !v.Equal(types.NewInt(8)) {
		t.Errorf("evaluated %s, want 8 after update", v)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := New()
	if _, err := s.Update("ghost", validSource, ""); err == nil {
		t.Fatal("Update accepted a missing space")
	}
}

func TestUpdateInvalidSourceKeepsOld(t *testing.T) {
	s := New()
	if _, err := s.Create("tuning", validSource, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Update("tuning", "!call:no_such_op ~", ""); err == nil {
		t.Fatal("Update accepted an invalid source")
	}
	got, err := s.Get("tuning")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Source != validSource {
		t.Error("failed update replaced the stored source")
	}
}

func TestDelete(t *testing.T) {
	s := New()
	if _, err := s.Create("tuning", validSource, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Delete("tuning"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get("tuning"); err == nil {
		t.Error("deleted space still retrievable")
	}
	if err := s.Delete("tuning"); err == nil {
		t.Error("Delete accepted a missing space")
	}
}
