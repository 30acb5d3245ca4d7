package convo

import (
	"reflect"
	"testing"
)

func TestRalRegistryCreateRalIsMonotonic(t *testing.T) {
	r := NewRalRegistry()

	if got := r.CreateRal("a1"); got != 1 {
		t.Fatalf("first CreateRal = %d, want 1", got)
	}
	if got := r.CreateRal("a1"); got != 2 {
		t.Fatalf("second CreateRal = %d, want 2", got)
	}
	if got := r.CreateRal("a1"); got != 3 {
		t.Fatalf("third CreateRal = %d, want 3", got)
	}

	if !r.IsActive("a1", 1) || !r.IsActive("a1", 2) || !r.IsActive("a1", 3) {
		t.Fatal("CreateRal must mark the new loop number active")
	}
}

func TestRalRegistryCountersAreIndependentPerAgent(t *testing.T) {
	r := NewRalRegistry()

	r.CreateRal("a1")
	r.CreateRal("a1")
	got := r.CreateRal("a2")

	if got != 1 {
		t.Fatalf("CreateRal for a fresh agent = %d, want 1 regardless of other agents' counters", got)
	}
}

func TestRalRegistryCompleteRemovesFromActiveButNotNext(t *testing.T) {
	r := NewRalRegistry()
	r.CreateRal("a1")
	r.CreateRal("a1")

	r.Complete("a1", 1)

	if r.IsActive("a1", 1) {
		t.Error("IsActive(a1, 1) = true after Complete")
	}
	if !r.IsActive("a1", 2) {
		t.Error("IsActive(a1, 2) = false; Complete must not affect other loops")
	}
	if got := r.CreateRal("a1"); got != 3 {
		t.Errorf("CreateRal after Complete = %d, want 3 (loop numbers are never reused)", got)
	}
}

func TestRalRegistryCompleteIsIdempotent(t *testing.T) {
	r := NewRalRegistry()
	r.Complete("never-created", 1) // must not panic
	r.CreateRal("a1")
	r.Complete("a1", 1)
	r.Complete("a1", 1) // second call is a no-op
	if r.IsActive("a1", 1) {
		t.Error("loop 1 still active after two Complete calls")
	}
}

func TestRalRegistryEnsureActiveRaisesNext(t *testing.T) {
	r := NewRalRegistry()

	r.EnsureActive("a1", 5)

	if !r.IsActive("a1", 5) {
		t.Fatal("EnsureActive did not mark the loop active")
	}
	if got := r.NextOf("a1"); got != 5 {
		t.Fatalf("NextOf(a1) = %d, want 5", got)
	}
	if got := r.CreateRal("a1"); got != 6 {
		t.Fatalf("CreateRal after EnsureActive(5) = %d, want 6 (must not collide)", got)
	}
}

func TestRalRegistryEnsureActiveDoesNotLowerNext(t *testing.T) {
	r := NewRalRegistry()
	r.CreateRal("a1")
	r.CreateRal("a1")
	r.CreateRal("a1") // next(a1) = 3

	r.EnsureActive("a1", 1) // already-completed-looking low number

	if got := r.NextOf("a1"); got != 3 {
		t.Fatalf("NextOf(a1) = %d, want 3: EnsureActive must never lower next", got)
	}
}

func TestRalRegistryActiveOfIsSortedAscending(t *testing.T) {
	r := NewRalRegistry()
	r.EnsureActive("a1", 5)
	r.EnsureActive("a1", 2)
	r.EnsureActive("a1", 9)

	got := r.ActiveOf("a1")
	want := []int{2, 5, 9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ActiveOf(a1) = %v, want %v", got, want)
	}
}

func TestRalRegistryActiveOfUnknownAgentIsEmpty(t *testing.T) {
	r := NewRalRegistry()
	if got := r.ActiveOf("nobody"); len(got) != 0 {
		t.Fatalf("ActiveOf(nobody) = %v, want empty", got)
	}
}

func TestRalRegistryAllActiveOmitsAgentsWithNoActiveLoops(t *testing.T) {
	r := NewRalRegistry()
	r.CreateRal("a1")
	r.Complete("a1", 1)
	r.CreateRal("a2")

	got := r.AllActive()
	if _, ok := got["a1"]; ok {
		t.Error(`AllActive() included "a1" which has no active loops`)
	}
	if want := []int{1}; !reflect.DeepEqual(got["a2"], want) {
		t.Errorf(`AllActive()["a2"] = %v, want %v`, got["a2"], want)
	}
}
