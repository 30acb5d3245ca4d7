package convo

import (
	"strings"
	"testing"
)

func TestSummarizeOtherFormatsTextToolCallAndDelegateResult(t *testing.T) {
	log := NewLog()

	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: 2}, Content: "scanning repo"})
	log.Append(&ToolCallEntry{
		EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: 2},
		Calls: []ToolCallPart{{
			ID:         "c1",
			Name:       "delegate",
			Input:      map[string]any{"task": "build tests", "count": 3},
			InputOrder: []string{"task", "count"},
		}},
	})
	log.Append(&ToolResultEntry{
		EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: 2},
		Results: []ToolResultPart{{
			CallID: "c1",
			Name:   "delegate",
			Output: ToolOutput{Kind: ToolOutputJSON, JSON: map[string]any{
				"pendingDelegations": map[string]any{"sub1": "conv-abc"},
			}},
		}},
	})
	// An entry belonging to a different loop number must not appear.
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: 1}, Content: "unrelated loop"})

	summary := SummarizeOther(log, agentA, 2)

	for _, want := range []string{
		"You have another reason-act-loop (#2) executing:",
		"[text-output] scanning repo",
		`[tool delegate] task="build tests", count=3`,
		"[delegate result] delegationConversationIds: sub1: conv-abc",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing expected line %q; got:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "unrelated loop") {
		t.Error("summary must not include entries from a different loop number")
	}
}

func TestSummarizeOtherOmitsNonDelegateToolResults(t *testing.T) {
	log := NewLog()
	log.Append(&ToolResultEntry{
		EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: 1},
		Results:     []ToolResultPart{{CallID: "c1", Name: "search", Output: ToolOutput{Kind: ToolOutputText, Text: "results here"}}},
	})

	summary := SummarizeOther(log, agentA, 1)
	if strings.Contains(summary, "results here") || strings.Contains(summary, "[delegate result]") {
		t.Errorf("non-delegate tool results must not appear in the summary, got:\n%s", summary)
	}
}
