package convo

import (
	"context"
	"strings"
	"testing"

	"github.com/tenex-chat/tenex-sub007/internal/identity"
	"github.com/tenex-chat/tenex-sub007/internal/naming"
)

const (
	agentA = "agentA"
	agentB = "agentB"
	user   = "user1"
)

func names() *naming.Static {
	return naming.NewStatic(map[string]string{
		agentA: "Planner",
		agentB: "Coder",
	})
}

func knownAgents() identity.Set {
	return identity.NewSet([]string{agentA, agentB})
}

func buildFull(t *testing.T, log *Log, rals *RalRegistry, viewer string, ral int) []Message {
	t.Helper()
	msgs, err := BuildFullView(context.Background(), log, rals, viewer, ral, names(), knownAgents())
	if err != nil {
		t.Fatalf("BuildFullView: %v", err)
	}
	return msgs
}

// Scenario 1: basic RAL view — the viewer's own text in its current loop is
// visible as an assistant message.
func TestScenario1BasicRalView(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral}, Content: "plan step 1"})

	msgs := buildFull(t, log, rals, agentA, ral)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != MsgAssistant || msgs[0].Text != "plan step 1" {
		t.Fatalf("got %+v, want assistant \"plan step 1\"", msgs[0])
	}
}

// Scenario 2: an agent's own text entries in a prior, completed loop remain
// visible when it views a later loop — an agent sees its own history.
func TestScenario2SelfAssistantTextAcrossCompletedLoop(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral1 := rals.CreateRal(agentA)
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral1}, Content: "loop 1 output"})
	rals.Complete(agentA, ral1)

	ral2 := rals.CreateRal(agentA)
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral2}, Content: "loop 2 output"})

	msgs := buildFull(t, log, rals, agentA, ral2)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (own completed-loop history must be visible)", len(msgs))
	}
	if msgs[0].Text != "loop 1 output" || msgs[1].Text != "loop 2 output" {
		t.Fatalf("got %+v", msgs)
	}
}

// P3: self-loop isolation — a sibling *active* loop of the same agent must
// never leak into the view of another active loop.
func TestP3SelfLoopIsolation(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral1 := rals.CreateRal(agentA) // stays active
	ral2 := rals.CreateRal(agentA) // also active, sibling of ral1

	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral1}, Content: "loop 1 secret"})
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral2}, Content: "loop 2 own"})

	msgs := buildFull(t, log, rals, agentA, ral2)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1: active sibling loop must not leak", len(msgs))
	}
	if msgs[0].Text != "loop 2 own" {
		t.Fatalf("got %+v", msgs)
	}
}

// Other-agent visibility: only text with content is shown to other agents;
// tool-calls/tool-results of another agent are never visible.
func TestOtherAgentTextOnlyVisibility(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ralA := rals.CreateRal(agentA)
	ralB := rals.CreateRal(agentB)

	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: ralB}, Content: "coder says hi"})
	log.Append(&ToolCallEntry{
		EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: ralB},
		Calls:       []ToolCallPart{{ID: "c1", Name: "run"}},
	})
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: ralB}, Content: ""}) // empty text excluded

	msgs := buildFull(t, log, rals, agentA, ralA)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (only the non-empty text entry)", len(msgs))
	}
	if msgs[0].Role != MsgUser || !strings.Contains(msgs[0].Text, "coder says hi") {
		t.Fatalf("got %+v", msgs[0])
	}
	if !strings.HasPrefix(msgs[0].Text, "[@Coder] ") {
		t.Fatalf("attribution prefix missing: %q", msgs[0].Text)
	}
}

// Scenario 3: a tool-call immediately followed by a user message that
// arrived before the matching tool-result is deferred until the result
// resolves, then flushed right after it.
func TestScenario3DeferredUserDuringToolCall(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	log.Append(&ToolCallEntry{
		EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral},
		Calls:       []ToolCallPart{{ID: "c1", Name: "search"}},
	})
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: rals.CreateRal(agentB)}, Content: "meanwhile, a nudge"})
	log.Append(&ToolResultEntry{
		EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral},
		Results:     []ToolResultPart{{CallID: "c1", Name: "search"}},
	})

	msgs := buildFull(t, log, rals, agentA, ral)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3: [call, result, deferred text]", len(msgs))
	}
	if msgs[0].Role != MsgAssistant || len(msgs[0].ToolCalls) != 1 {
		t.Fatalf("msgs[0] = %+v, want tool-call", msgs[0])
	}
	if msgs[1].Role != MsgTool || len(msgs[1].ToolResults) != 1 {
		t.Fatalf("msgs[1] = %+v, want tool-result", msgs[1])
	}
	if msgs[2].Role != MsgUser || !strings.Contains(msgs[2].Text, "meanwhile, a nudge") {
		t.Fatalf("msgs[2] = %+v, want the deferred text flushed after the result", msgs[2])
	}
}

// Scenario 4: an orphaned tool-call (no matching result ever arrives) gets a
// synthesized interrupted result before any deferred text is flushed.
func TestScenario4OrphanToolCallRepair(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	log.Append(&ToolCallEntry{
		EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral},
		Calls:       []ToolCallPart{{ID: "c9", Name: "browse"}},
	})
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral}, Content: "final thought"})

	msgs := buildFull(t, log, rals, agentA, ral)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3: [call, synthetic-result, text]", len(msgs))
	}
	if msgs[1].Role != MsgTool || len(msgs[1].ToolResults) != 1 {
		t.Fatalf("msgs[1] = %+v, want synthesized tool-result", msgs[1])
	}
	if !strings.Contains(msgs[1].ToolResults[0].Output.Text, InterruptedMarker) {
		t.Fatalf("synthesized result text = %q, must contain %q", msgs[1].ToolResults[0].Output.Text, InterruptedMarker)
	}
	if msgs[2].Text != "final thought" {
		t.Fatalf("msgs[2] = %+v, want the flushed text last", msgs[2])
	}
}

// A stray tool-result with no matching call is emitted as-is (Open Question
// #1's decision), not dropped and not held.
func TestStrayToolResultEmittedAsIs(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	log.Append(&ToolResultEntry{
		EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral},
		Results:     []ToolResultPart{{CallID: "unknown", Name: "ghost"}},
	})

	msgs := buildFull(t, log, rals, agentA, ral)
	if len(msgs) != 1 || msgs[0].Role != MsgTool {
		t.Fatalf("got %+v, want the stray result emitted as a single tool message", msgs)
	}
}

// Scenario 5: multimodal expansion applies only to the most recent
// user-role message in the output, not to earlier ones that also contain
// image URLs.
func TestScenario5ImageExpansionOnlyOnLatestUserMessage(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	log.Append(&TextEntry{
		EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: rals.CreateRal(agentB)},
		Content:     "look at https://cdn.site.dev/old.png",
	})
	log.Append(&TextEntry{
		EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: rals.CreateRal(agentB)},
		Content:     "and also https://cdn.site.dev/new.jpg please",
	})

	msgs := buildFull(t, log, rals, agentA, ral)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Parts != nil {
		t.Fatalf("earlier message must not be expanded, got Parts=%+v", msgs[0].Parts)
	}
	if msgs[1].Parts == nil {
		t.Fatal("most recent user message with an image URL must be expanded into Parts")
	}
	if len(msgs[1].Parts) != 2 || msgs[1].Parts[1].ImageURL != "https://cdn.site.dev/new.jpg" {
		t.Fatalf("got Parts=%+v", msgs[1].Parts)
	}
}

// Reserved-host placeholder image URLs (e.g. example.com, .test, .invalid)
// are never expanded, even on the eligible latest message.
func TestMultimodalReservedHostsNeverExpand(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	log.Append(&TextEntry{
		EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: rals.CreateRal(agentB)},
		Content:     "placeholder https://example.com/a.png and https://foo.test/b.jpg",
	})

	msgs := buildFull(t, log, rals, agentA, ral)
	if len(msgs) != 1 || msgs[0].Parts != nil {
		t.Fatalf("got %+v, want no expansion for reserved-host placeholder URLs", msgs)
	}
}

// Scenario 6: delegation-completion folding — only the latest
// "# DELEGATION COMPLETED" marker for a given (agent, ral) survives; earlier
// copies are skipped even though they would otherwise be visible.
func TestScenario6DelegationCompletionFolding(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral}, Content: DelegationCompletionMarker + "\nfirst draft"})
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral}, Content: DelegationCompletionMarker + "\nfinal draft"})

	msgs := buildFull(t, log, rals, agentA, ral)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1: only the latest delegation-completion copy survives folding", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "final draft") {
		t.Fatalf("got %+v, want the latest copy to survive", msgs[0])
	}
}

// BuildDeltaView restricts the walk to entries after afterIndex, while
// delegation folding still considers the whole log.
func TestBuildDeltaViewRestrictsToRecentEntries(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ral := rals.CreateRal(agentA)

	idx0 := log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral}, Content: "old"})
	log.Append(&TextEntry{EntryCommon: EntryCommon{Pubkey: agentA, HasRal: true, Ral: ral}, Content: "new"})

	msgs, err := BuildDeltaView(context.Background(), log, rals, agentA, ral, idx0, names(), knownAgents())
	if err != nil {
		t.Fatalf("BuildDeltaView: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "new" {
		t.Fatalf("got %+v, want only entries after afterIndex", msgs)
	}
}

// §4.4.3 routing-prefix rule: a message targeted at specific pubkeys that
// excludes the viewer gets the "[@sender -> @r1, @r2]" routing prefix.
func TestAttributionRoutingPrefixWhenViewerNotTargeted(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ralA := rals.CreateRal(agentA)

	log.Append(&TextEntry{
		EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: rals.CreateRal(agentB), TargetedPubkeys: []string{user}},
		Content:     "status update",
	})

	msgs := buildFull(t, log, rals, agentA, ralA)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Text, "[@Coder -> @"+user+"] ") {
		t.Fatalf("got %q, want a routing prefix naming the excluded viewer's target", msgs[0].Text)
	}
}

func TestRoutingPrefixAbsentWhenViewerIsTargeted(t *testing.T) {
	log := NewLog()
	rals := NewRalRegistry()
	ralA := rals.CreateRal(agentA)

	log.Append(&TextEntry{
		EntryCommon: EntryCommon{Pubkey: agentB, HasRal: true, Ral: rals.CreateRal(agentB), TargetedPubkeys: []string{agentA}},
		Content:     "direct note",
	})

	msgs := buildFull(t, log, rals, agentA, ralA)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Text != "[@Coder] direct note" {
		t.Fatalf("got %q, want the plain attribution prefix since the viewer is among the targets", msgs[0].Text)
	}
}
