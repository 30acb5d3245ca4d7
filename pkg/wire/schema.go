// Package wire defines the on-disk JSON schema and event-ingestion contract
// shared between the conversation store and the outside world. Nothing in
// this package carries behavior; it exists so the persisted file format (and
// the shape of an inbound signed event) is named in exactly one place.
package wire

import "encoding/json"

// MessageType tags a persisted message entry's kind.
type MessageType string

const (
	MessageText       MessageType = "text"
	MessageToolCall   MessageType = "tool-call"
	MessageToolResult MessageType = "tool-result"
)

// InjectionRole is the role an injection is delivered under.
type InjectionRole string

const (
	RoleUser   InjectionRole = "user"
	RoleSystem InjectionRole = "system"
)

// RalRef is one entry of activeRal's per-agent array.
type RalRef struct {
	ID int `json:"id"`
}

// RalTarget names a specific (agent, loop) pair.
type RalTarget struct {
	Pubkey string `json:"pubkey"`
	Ral    int    `json:"ral"`
}

// RalInjection is a RAL-targeted injection as persisted under "injections".
type RalInjection struct {
	TargetRal RalTarget     `json:"targetRal"`
	Role      InjectionRole `json:"role"`
	Content   string        `json:"content"`
	QueuedAt  int64         `json:"queuedAt"`
}

// DeferredInjection is an agent-targeted injection as persisted under
// "deferredInjections".
type DeferredInjection struct {
	TargetPubkey string        `json:"targetPubkey"`
	Role         InjectionRole `json:"role"`
	Content      string        `json:"content"`
	QueuedAt     int64         `json:"queuedAt"`
	Source       string        `json:"source,omitempty"`
}

// ToolCallPart is one call carried by a tool-call message. InputOrder
// preserves the original key order of Input, since JSON objects decoded
// into a Go map lose it.
type ToolCallPart struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Input      map[string]any `json:"input"`
	InputOrder []string       `json:"inputOrder,omitempty"`
}

// ToolOutputKind tags whether a tool result's output is plain text or a
// structured JSON value.
type ToolOutputKind string

const (
	ToolOutputText ToolOutputKind = "text"
	ToolOutputJSON ToolOutputKind = "json"
)

// ToolOutput is the output of a tool-result part.
type ToolOutput struct {
	Kind ToolOutputKind  `json:"kind"`
	Text string          `json:"text,omitempty"`
	JSON json.RawMessage `json:"json,omitempty"`
}

// ToolResultPart is one result carried by a tool-result message.
type ToolResultPart struct {
	CallID string     `json:"callId"`
	Name   string      `json:"name"`
	Output ToolOutput `json:"output"`
}

// ToolData is the payload of a tool-call or tool-result message entry.
// Exactly one of Calls/Results is populated, matching the entry's
// MessageType.
type ToolData struct {
	Calls   []ToolCallPart   `json:"calls,omitempty"`
	Results []ToolResultPart `json:"results,omitempty"`
}

// MessageEntry is one element of the persisted "messages" array.
type MessageEntry struct {
	Pubkey          string      `json:"pubkey"`
	Content         string      `json:"content"`
	MessageType     MessageType `json:"messageType"`
	Ral             *int        `json:"ral,omitempty"`
	ToolData        *ToolData   `json:"toolData,omitempty"`
	EventID         string      `json:"eventId,omitempty"`
	Timestamp       int64       `json:"timestamp,omitempty"`
	TargetedPubkeys []string    `json:"targetedPubkeys,omitempty"`
	SenderPubkey    string      `json:"senderPubkey,omitempty"`
}

// ReferencedArticle is the metadata.referencedArticle sub-object.
type ReferencedArticle struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	DTag    string `json:"dTag"`
}

// Metadata is the persisted "metadata" object (§3 recognized fields).
// Unrecognized keys are tolerated on load but dropped: they are not written
// back on save.
type Metadata struct {
	Title                 string             `json:"title,omitempty"`
	Phase                 string             `json:"phase,omitempty"`
	PhaseStartedAt         int64              `json:"phaseStartedAt,omitempty"`
	Branch                string             `json:"branch,omitempty"`
	Summary               string             `json:"summary,omitempty"`
	Requirements          string             `json:"requirements,omitempty"`
	Plan                  string             `json:"plan,omitempty"`
	ProjectPath           string             `json:"projectPath,omitempty"`
	LastUserMessage       string             `json:"lastUserMessage,omitempty"`
	StatusLabel           string             `json:"statusLabel,omitempty"`
	StatusCurrentActivity string             `json:"statusCurrentActivity,omitempty"`
	ReferencedArticle     *ReferencedArticle `json:"referencedArticle,omitempty"`
}

// ExecutionTime is the persisted "executionTime" object.
type ExecutionTime struct {
	TotalSeconds        float64 `json:"totalSeconds"`
	CurrentSessionStart *int64  `json:"currentSessionStart,omitempty"`
	IsActive            bool    `json:"isActive"`
	LastUpdated         int64   `json:"lastUpdated"`
}

// File is the exact top-level shape of
// <base>/projects/<projectId>/conversations/<conversationId>.json.
// On load, a missing key defaults to its zero value (empty map/slice);
// on save every key is always emitted.
type File struct {
	ActiveRal          map[string][]RalRef         `json:"activeRal"`
	NextRalNumber      map[string]int              `json:"nextRalNumber"`
	Injections         []RalInjection              `json:"injections"`
	DeferredInjections []DeferredInjection         `json:"deferredInjections"`
	Messages           []MessageEntry              `json:"messages"`
	Metadata           Metadata                    `json:"metadata"`
	AgentTodos         map[string][]json.RawMessage `json:"agentTodos"`
	TodoNudgedAgents   []string                    `json:"todoNudgedAgents"`
	BlockedAgents      []string                    `json:"blockedAgents"`
	ExecutionTime      ExecutionTime               `json:"executionTime"`
}

// Empty returns a File with every collection field initialized, suitable as
// the starting point for a conversation with no on-disk snapshot yet.
func Empty() File {
	return File{
		ActiveRal:          map[string][]RalRef{},
		NextRalNumber:      map[string]int{},
		Injections:         []RalInjection{},
		DeferredInjections: []DeferredInjection{},
		Messages:           []MessageEntry{},
		AgentTodos:         map[string][]json.RawMessage{},
		TodoNudgedAgents:   []string{},
		BlockedAgents:      []string{},
	}
}
