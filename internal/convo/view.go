package convo

import "context"

// MessageRole is the role of a built LLM-ready message.
type MessageRole string

const (
	MsgAssistant MessageRole = "assistant"
	MsgUser      MessageRole = "user"
	MsgTool      MessageRole = "tool"
)

// ContentPart is one element of a multimodal message's content array.
// Exactly one of Text/ImageURL is set.
type ContentPart struct {
	Text     string
	ImageURL string
}

// Message is one element of a built view: the LLM-ready message sequence
// produced by the Message View Builder. Exactly one of Text, Parts,
// ToolCalls, ToolResults is populated, mirroring the source's
// string|multimodal-array|tool-call-array|tool-result-array content union.
type Message struct {
	Role        MessageRole
	Text        string
	Parts       []ContentPart
	ToolCalls   []ToolCallPart
	ToolResults []ToolResultPart
}

// Namer resolves a pubkey to a short display name for attribution and
// routing prefixes (§6). Name is the builder's only legitimate await (§5,
// §9); NameSync is used where a caller needs a name outside of view
// building and can tolerate a less accurate fallback.
type Namer interface {
	Name(ctx context.Context, pubkey string) (string, error)
	NameSync(pubkey string) string
}

// KnownAgents answers whether a pubkey belongs to the registry's
// declarative set of agent participants (§3, §6).
type KnownAgents interface {
	IsAgentPubkey(pubkey string) bool
}

// staged is an intermediate representation produced by the visibility pass,
// before wire-format repair reorders tool entries relative to deferred
// text. Building in two stages (stage, then repair) lets multimodal
// expansion identify "the most recent user-text entry in the output" by a
// simple backward scan, since repair never changes the relative order of
// text-to-text entries — it only interleaves tool entries around them.
type staged struct {
	msg        Message
	isToolCall bool
	isCall     bool // true for tool-call, false for tool-result when isToolCall false covers text
	callIDs    []string
}

// BuildFullView produces the complete LLM-ready message sequence visible to
// viewer for its loop viewingRal, per §4.4.
func BuildFullView(ctx context.Context, log *Log, rals *RalRegistry, viewer string, viewingRal int, namer Namer, agents KnownAgents) ([]Message, error) {
	return buildView(ctx, log, rals, viewer, viewingRal, 0, namer, agents)
}

// BuildDeltaView produces the same sequence restricted to entries at index
// > afterIndex, so a caller can append recent activity without resending
// older history (§4.4.7).
func BuildDeltaView(ctx context.Context, log *Log, rals *RalRegistry, viewer string, viewingRal int, afterIndex int, namer Namer, agents KnownAgents) ([]Message, error) {
	return buildView(ctx, log, rals, viewer, viewingRal, afterIndex+1, namer, agents)
}

func buildView(ctx context.Context, log *Log, rals *RalRegistry, viewer string, viewingRal int, startIndex int, namer Namer, agents KnownAgents) ([]Message, error) {
	fold := computeDelegationFold(log)

	entries := log.AllEntries()
	stagedList := make([]staged, 0, len(entries))
	for idx := startIndex; idx < len(entries); idx++ {
		e := entries[idx]
		if foldedOut(fold, idx, e) {
			continue
		}
		if !isVisible(rals, viewer, viewingRal, e) {
			continue
		}
		s, err := stageEntry(ctx, e, viewer, namer, agents)
		if err != nil {
			return nil, err
		}
		stagedList = append(stagedList, s)
	}

	applyMultimodalExpansion(stagedList)

	return repair(stagedList), nil
}
