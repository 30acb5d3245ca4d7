package convo

import "testing"

func textEntry(eventID string) *TextEntry {
	return &TextEntry{
		EntryCommon: EntryCommon{Pubkey: "agent1", EventID: eventID},
		Content:     "hello",
	}
}

func TestLogAppendAssignsIncreasingIndices(t *testing.T) {
	log := NewLog()

	i0 := log.Append(textEntry("e0"))
	i1 := log.Append(textEntry("e1"))
	i2 := log.Append(textEntry(""))

	if i0 != 0 || i1 != 1 || i2 != 2 {
		t.Fatalf("got indices %d, %d, %d; want 0, 1, 2", i0, i1, i2)
	}
	if log.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", log.Len())
	}
}

func TestLogAppendDedupsByEventID(t *testing.T) {
	log := NewLog()

	first := log.Append(textEntry("dup"))
	second := log.Append(textEntry("dup"))

	if first != 0 {
		t.Fatalf("first Append() = %d, want 0", first)
	}
	if second != DuplicateIndex {
		t.Fatalf("second Append() = %d, want DuplicateIndex", second)
	}
	if log.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after duplicate rejected", log.Len())
	}
}

func TestLogAppendAllowsRepeatedEmptyEventID(t *testing.T) {
	log := NewLog()

	log.Append(textEntry(""))
	log.Append(textEntry(""))

	if log.Len() != 2 {
		t.Fatalf("Len() = %d, want 2: empty event ids must never dedup against each other", log.Len())
	}
}

func TestLogHasEventID(t *testing.T) {
	log := NewLog()
	log.Append(textEntry("e0"))

	if !log.HasEventID("e0") {
		t.Error("HasEventID(\"e0\") = false, want true")
	}
	if log.HasEventID("missing") {
		t.Error("HasEventID(\"missing\") = true, want false")
	}
}

func TestLogSetEventIDAtRegistersForDedup(t *testing.T) {
	log := NewLog()
	idx := log.Append(textEntry(""))

	log.SetEventIDAt(idx, "late-bound")

	if !log.HasEventID("late-bound") {
		t.Fatal("SetEventIDAt did not register the id for dedup")
	}
	if got := log.At(idx).Common().EventID; got != "late-bound" {
		t.Errorf("entry EventID = %q, want %q", got, "late-bound")
	}

	// A subsequent Append with the same id must now be rejected.
	if got := log.Append(textEntry("late-bound")); got != DuplicateIndex {
		t.Errorf("Append() after SetEventIDAt = %d, want DuplicateIndex", got)
	}
}

func TestLogSetEventIDAtOutOfRangeIsNoOp(t *testing.T) {
	log := NewLog()
	log.SetEventIDAt(5, "whatever") // must not panic
	if log.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", log.Len())
	}
}

func TestLogRootEventID(t *testing.T) {
	log := NewLog()
	if _, ok := log.RootEventID(); ok {
		t.Fatal("RootEventID() on empty log reported ok=true")
	}

	log.Append(textEntry("root"))
	id, ok := log.RootEventID()
	if !ok || id != "root" {
		t.Fatalf("RootEventID() = (%q, %v), want (\"root\", true)", id, ok)
	}
}

func TestLogHasToolCallAndResult(t *testing.T) {
	log := NewLog()
	log.Append(&ToolCallEntry{
		EntryCommon: EntryCommon{Pubkey: "agent1", HasRal: true, Ral: 1},
		Calls:       []ToolCallPart{{ID: "c1", Name: "search"}},
	})

	if !log.HasToolCall("c1") {
		t.Error("HasToolCall(\"c1\") = false, want true")
	}
	if log.HasToolResult("c1") {
		t.Error("HasToolResult(\"c1\") = true before any result was appended")
	}

	log.Append(&ToolResultEntry{
		EntryCommon: EntryCommon{Pubkey: "agent1", HasRal: true, Ral: 1},
		Results:     []ToolResultPart{{CallID: "c1", Name: "search"}},
	})

	if !log.HasToolResult("c1") {
		t.Error("HasToolResult(\"c1\") = false, want true after result appended")
	}
}
