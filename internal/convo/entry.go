package convo

// Package convo implements the per-conversation state engine: the entry
// log, RAL lifecycle registry, injection queues, and the message view
// builder that reconciles them into an LLM-ready message sequence.

// EntryCommon holds the fields every log entry carries regardless of kind.
type EntryCommon struct {
	Pubkey          string
	EventID         string // empty: not tracked for dedup
	Timestamp       int64  // unix seconds; 0 means unset
	TargetedPubkeys []string
	HasRal          bool
	Ral             int // meaningful only when HasRal
}

// Entry is the closed sum type for log elements. It is implemented only by
// *TextEntry, *ToolCallEntry and *ToolResultEntry in this package; the
// unexported methods make the set closed so every view-builder switch over
// entry kind is exhaustive.
type Entry interface {
	Common() EntryCommon
	setEventID(id string)
}

// TextEntry is plain UTF-8 content. AttributedTo is set when this text is an
// injection posted on behalf of a sender different from the one who
// physically appended it (Pubkey is always the posting sender used for
// visibility and role derivation; AttributedTo, when non-empty, overrides
// Pubkey as the sender for the attribution-prefix rules and their name
// lookup — see attributionPrefix in view_visibility.go).
type TextEntry struct {
	EntryCommon
	Content      string
	AttributedTo string
}

func (e *TextEntry) Common() EntryCommon { return e.EntryCommon }
func (e *TextEntry) setEventID(id string) {
	e.EventID = id
}

// ToolCallPart is one call carried by a ToolCallEntry.
// ToolCallPart is one call carried by a ToolCallEntry. InputOrder records
// the insertion order of Input's keys — Go maps have none of their own, and
// §4.4.7's RAL-summary formatting must reproduce the original key order.
type ToolCallPart struct {
	ID         string
	Name       string
	Input      map[string]any
	InputOrder []string
}

// ToolCallEntry always carries a RAL number and is always attributed to an
// agent (I3).
type ToolCallEntry struct {
	EntryCommon
	Calls []ToolCallPart
}

func (e *ToolCallEntry) Common() EntryCommon { return e.EntryCommon }
func (e *ToolCallEntry) setEventID(id string) {
	e.EventID = id
}

// ToolOutputKind tags whether a tool result carries plain text or a
// structured value.
type ToolOutputKind int

const (
	ToolOutputText ToolOutputKind = iota
	ToolOutputJSON
)

// ToolOutput is a tagged output value; exactly one of Text/JSON is
// meaningful, selected by Kind.
type ToolOutput struct {
	Kind ToolOutputKind
	Text string
	JSON any
}

// ToolResultPart is one result carried by a ToolResultEntry.
type ToolResultPart struct {
	CallID string
	Name   string
	Output ToolOutput
}

// ToolResultEntry always carries a RAL number and is always attributed to an
// agent (I3).
type ToolResultEntry struct {
	EntryCommon
	Results []ToolResultPart
}

func (e *ToolResultEntry) Common() EntryCommon { return e.EntryCommon }
func (e *ToolResultEntry) setEventID(id string) {
	e.EventID = id
}

// DelegationCompletionMarker is the literal marker that identifies a text
// entry for delegation-completion folding (§4.4.6, §6).
const DelegationCompletionMarker = "# DELEGATION COMPLETED"

// IsDelegationCompletion reports whether a TextEntry's content begins with
// DelegationCompletionMarker.
func (e *TextEntry) IsDelegationCompletion() bool {
	return hasPrefix(e.Content, DelegationCompletionMarker)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// InterruptedMarker is the exact substring every synthetic tool-result's
// text output must contain (§6).
const InterruptedMarker = "interrupted"
