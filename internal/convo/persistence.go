package convo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tenex-chat/tenex-sub007/internal/obs"
	"github.com/tenex-chat/tenex-sub007/pkg/wire"
)

// path returns <base>/projects/<projectId>/conversations/<conversationId>.json
// (§6, authoritative).
func (s *Store) path() string {
	return filepath.Join(s.basePath, "projects", s.projectID, "conversations", s.conversationID+".json")
}

// Load populates the store from its backing file if present, otherwise
// initializes it empty. A malformed file is treated as DiskReadCorrupt
// (§7): the condition is logged and the store falls back to empty state
// rather than failing to load.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path())
	switch {
	case err == nil:
		var f wire.File
		if uerr := json.Unmarshal(data, &f); uerr != nil {
			slog.Warn("conversation file corrupt, resetting to empty state",
				"project", s.projectID, "conversation", s.conversationID, "error", uerr)
			s.resetLocked()
		} else if aerr := s.applyFileLocked(f); aerr != nil {
			slog.Warn("conversation file has unreadable tool output, resetting to empty state",
				"project", s.projectID, "conversation", s.conversationID, "error", aerr)
			s.resetLocked()
		}
	case os.IsNotExist(err):
		s.resetLocked()
	default:
		return fmt.Errorf("convo: reading conversation file: %w", err)
	}

	s.loaded = true
	return nil
}

func (s *Store) resetLocked() {
	s.log = NewLog()
	s.rals = NewRalRegistry()
	s.injections = NewInjectionQueues()
	s.metadata = Metadata{}
	s.agentStates = make(map[string]*AgentState)
	s.blockedAgents = make(map[string]struct{})
	s.executionTime = ExecutionTime{}
}

// Save atomically persists the store to its backing file: the state is
// marshaled, written to a temp file in the same directory, synced, and
// renamed over the destination — the same write-temp-then-rename sequence
// as the teacher's sessions.Manager.Save, so a crash mid-write never leaves
// a truncated conversation file on disk.
func (s *Store) Save() error {
	_, span := obs.StartSpan(context.Background(), "convo.Store.Save")
	defer span.End()

	s.mu.Lock()
	f := s.toFileLocked()
	dir := filepath.Dir(s.path())
	s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrDiskWrite, err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiskWrite, err)
	}

	tmp, err := os.CreateTemp(dir, "conversation-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiskWrite, err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrDiskWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrDiskWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrDiskWrite, err)
	}
	if err := os.Rename(tmpPath, s.path()); err != nil {
		return fmt.Errorf("%w: %v", ErrDiskWrite, err)
	}
	cleanup = false
	return nil
}

// applyFileLocked populates the store's fields from a decoded file. Missing
// top-level keys already default to their Go zero values via wire.File's
// own unmarshal, satisfying §6's forward-compatibility requirement.
func (s *Store) applyFileLocked(f wire.File) error {
	s.resetLocked()

	for agent, refs := range f.ActiveRal {
		for _, ref := range refs {
			s.rals.EnsureActive(agent, ref.ID)
		}
	}
	for agent, next := range f.NextRalNumber {
		if next > s.rals.NextOf(agent) {
			s.rals.next[agent] = next
		}
	}

	for _, m := range f.Messages {
		entry, err := entryFromWire(m)
		if err != nil {
			return err
		}
		s.log.Append(entry)
	}

	for _, inj := range f.Injections {
		s.injections.EnqueueRal(RalInjection{
			TargetAgent: inj.TargetRal.Pubkey,
			TargetRal:   inj.TargetRal.Ral,
			Role:        InjectionRole(inj.Role),
			Content:     inj.Content,
			QueuedAt:    inj.QueuedAt,
		})
	}
	for _, inj := range f.DeferredInjections {
		s.injections.EnqueueDeferred(DeferredInjection{
			TargetAgent: inj.TargetPubkey,
			Role:        InjectionRole(inj.Role),
			Content:     inj.Content,
			QueuedAt:    inj.QueuedAt,
			Source:      inj.Source,
		})
	}

	s.metadata = metadataFromWire(f.Metadata)

	for agent, todos := range f.AgentTodos {
		list := make([]any, len(todos))
		for i, raw := range todos {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("agentTodos[%s][%d]: %w", agent, i, err)
			}
			list[i] = v
		}
		s.agentState(agent).Todos = list
	}
	for _, agent := range f.TodoNudgedAgents {
		s.agentState(agent).NudgedAboutTodos = true
	}
	for _, agent := range f.BlockedAgents {
		s.blockedAgents[agent] = struct{}{}
	}

	s.executionTime = ExecutionTime{
		TotalSeconds:        f.ExecutionTime.TotalSeconds,
		CurrentSessionStart: f.ExecutionTime.CurrentSessionStart,
		IsActive:            f.ExecutionTime.IsActive,
		LastUpdated:         f.ExecutionTime.LastUpdated,
	}

	return nil
}

func (s *Store) toFileLocked() wire.File {
	f := wire.Empty()

	for agent, list := range s.rals.AllActive() {
		refs := make([]wire.RalRef, len(list))
		for i, n := range list {
			refs[i] = wire.RalRef{ID: n}
		}
		f.ActiveRal[agent] = refs
	}
	for agent, next := range s.rals.next {
		f.NextRalNumber[agent] = next
	}

	for _, inj := range s.injections.ral {
		f.Injections = append(f.Injections, wire.RalInjection{
			TargetRal: wire.RalTarget{Pubkey: inj.TargetAgent, Ral: inj.TargetRal},
			Role:      wire.InjectionRole(inj.Role),
			Content:   inj.Content,
			QueuedAt:  inj.QueuedAt,
		})
	}
	for _, inj := range s.injections.deferred {
		f.DeferredInjections = append(f.DeferredInjections, wire.DeferredInjection{
			TargetPubkey: inj.TargetAgent,
			Role:         wire.InjectionRole(inj.Role),
			Content:      inj.Content,
			QueuedAt:     inj.QueuedAt,
			Source:       inj.Source,
		})
	}

	for _, e := range s.log.AllEntries() {
		f.Messages = append(f.Messages, entryToWire(e))
	}

	f.Metadata = metadataToWire(s.metadata)

	for agent, st := range s.agentStates {
		if len(st.Todos) > 0 {
			raws := make([]json.RawMessage, len(st.Todos))
			for i, t := range st.Todos {
				raw, _ := json.Marshal(t)
				raws[i] = raw
			}
			f.AgentTodos[agent] = raws
		}
		if st.NudgedAboutTodos {
			f.TodoNudgedAgents = append(f.TodoNudgedAgents, agent)
		}
	}
	for agent := range s.blockedAgents {
		f.BlockedAgents = append(f.BlockedAgents, agent)
	}

	f.ExecutionTime = wire.ExecutionTime{
		TotalSeconds:        s.executionTime.TotalSeconds,
		CurrentSessionStart: s.executionTime.CurrentSessionStart,
		IsActive:            s.executionTime.IsActive,
		LastUpdated:         s.executionTime.LastUpdated,
	}

	return f
}

func metadataFromWire(m wire.Metadata) Metadata {
	out := Metadata{
		Title:                 m.Title,
		Phase:                 m.Phase,
		PhaseStartedAt:        m.PhaseStartedAt,
		Branch:                m.Branch,
		Summary:               m.Summary,
		Requirements:          m.Requirements,
		Plan:                  m.Plan,
		ProjectPath:           m.ProjectPath,
		LastUserMessage:       m.LastUserMessage,
		StatusLabel:           m.StatusLabel,
		StatusCurrentActivity: m.StatusCurrentActivity,
	}
	if m.ReferencedArticle != nil {
		out.ReferencedArticle = &ReferencedArticle{
			Title:   m.ReferencedArticle.Title,
			Content: m.ReferencedArticle.Content,
			DTag:    m.ReferencedArticle.DTag,
		}
	}
	return out
}

func metadataToWire(m Metadata) wire.Metadata {
	out := wire.Metadata{
		Title:                 m.Title,
		Phase:                 m.Phase,
		PhaseStartedAt:        m.PhaseStartedAt,
		Branch:                m.Branch,
		Summary:               m.Summary,
		Requirements:          m.Requirements,
		Plan:                  m.Plan,
		ProjectPath:           m.ProjectPath,
		LastUserMessage:       m.LastUserMessage,
		StatusLabel:           m.StatusLabel,
		StatusCurrentActivity: m.StatusCurrentActivity,
	}
	if m.ReferencedArticle != nil {
		out.ReferencedArticle = &wire.ReferencedArticle{
			Title:   m.ReferencedArticle.Title,
			Content: m.ReferencedArticle.Content,
			DTag:    m.ReferencedArticle.DTag,
		}
	}
	return out
}

func entryToWire(e Entry) wire.MessageEntry {
	c := e.Common()
	out := wire.MessageEntry{
		Pubkey:          c.Pubkey,
		EventID:         c.EventID,
		Timestamp:       c.Timestamp,
		TargetedPubkeys: c.TargetedPubkeys,
	}
	if c.HasRal {
		ral := c.Ral
		out.Ral = &ral
	}

	switch v := e.(type) {
	case *TextEntry:
		out.MessageType = wire.MessageText
		out.Content = v.Content
		out.SenderPubkey = v.AttributedTo
	case *ToolCallEntry:
		out.MessageType = wire.MessageToolCall
		calls := make([]wire.ToolCallPart, len(v.Calls))
		for i, c := range v.Calls {
			calls[i] = wire.ToolCallPart{ID: c.ID, Name: c.Name, Input: c.Input, InputOrder: c.InputOrder}
		}
		out.ToolData = &wire.ToolData{Calls: calls}
	case *ToolResultEntry:
		out.MessageType = wire.MessageToolResult
		results := make([]wire.ToolResultPart, len(v.Results))
		for i, r := range v.Results {
			results[i] = wire.ToolResultPart{CallID: r.CallID, Name: r.Name, Output: toolOutputToWire(r.Output)}
		}
		out.ToolData = &wire.ToolData{Results: results}
	}
	return out
}

func entryFromWire(m wire.MessageEntry) (Entry, error) {
	common := EntryCommon{
		Pubkey:          m.Pubkey,
		EventID:         m.EventID,
		Timestamp:       m.Timestamp,
		TargetedPubkeys: m.TargetedPubkeys,
	}
	if m.Ral != nil {
		common.HasRal = true
		common.Ral = *m.Ral
	}

	switch m.MessageType {
	case wire.MessageToolCall:
		var calls []ToolCallPart
		if m.ToolData != nil {
			calls = make([]ToolCallPart, len(m.ToolData.Calls))
			for i, c := range m.ToolData.Calls {
				calls[i] = ToolCallPart{ID: c.ID, Name: c.Name, Input: c.Input, InputOrder: c.InputOrder}
			}
		}
		return &ToolCallEntry{EntryCommon: common, Calls: calls}, nil
	case wire.MessageToolResult:
		var results []ToolResultPart
		if m.ToolData != nil {
			results = make([]ToolResultPart, len(m.ToolData.Results))
			for i, r := range m.ToolData.Results {
				out, err := toolOutputFromWire(r.Output)
				if err != nil {
					return nil, err
				}
				results[i] = ToolResultPart{CallID: r.CallID, Name: r.Name, Output: out}
			}
		}
		return &ToolResultEntry{EntryCommon: common, Results: results}, nil
	default:
		return &TextEntry{EntryCommon: common, Content: m.Content, AttributedTo: m.SenderPubkey}, nil
	}
}

func toolOutputToWire(o ToolOutput) wire.ToolOutput {
	if o.Kind == ToolOutputJSON {
		raw, err := json.Marshal(o.JSON)
		if err != nil {
			raw = []byte("null")
		}
		return wire.ToolOutput{Kind: wire.ToolOutputJSON, JSON: raw}
	}
	return wire.ToolOutput{Kind: wire.ToolOutputText, Text: o.Text}
}

func toolOutputFromWire(o wire.ToolOutput) (ToolOutput, error) {
	if o.Kind == wire.ToolOutputJSON {
		var v any
		if len(o.JSON) > 0 {
			if err := json.Unmarshal(o.JSON, &v); err != nil {
				return ToolOutput{}, fmt.Errorf("tool output json: %w", err)
			}
		}
		return ToolOutput{Kind: ToolOutputJSON, JSON: v}, nil
	}
	return ToolOutput{Kind: ToolOutputText, Text: o.Text}, nil
}
