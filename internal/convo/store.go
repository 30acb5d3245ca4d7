package convo

import (
	"context"
	"sync"

	"github.com/tenex-chat/tenex-sub007/internal/obs"
	"github.com/tenex-chat/tenex-sub007/pkg/wire"
)

// Store is the Conversation Store Instance (§4.5): the aggregate owning one
// conversation's log, RAL registry, injection queues, metadata, per-agent
// state, blocked-agent set, and execution-time accounting, plus its
// persistence.
//
// Grounded on the per-key aggregate shape of the teacher's sessions.Manager,
// generalized from "one Manager holding many Sessions" to "one Store per
// conversation", since the spec's Global Registry (internal/registry) is
// the layer that plays Manager's directory role.
type Store struct {
	mu sync.Mutex

	basePath       string
	projectID      string
	conversationID string
	loaded         bool

	log        *Log
	rals       *RalRegistry
	injections *InjectionQueues

	metadata      Metadata
	agentStates   map[string]*AgentState
	blockedAgents map[string]struct{}
	executionTime ExecutionTime
}

// New returns an unloaded Store for (projectID, conversationID) rooted at
// basePath. Call Load before any other operation.
func New(basePath, projectID, conversationID string) *Store {
	return &Store{
		basePath:       basePath,
		projectID:      projectID,
		conversationID: conversationID,
		log:            NewLog(),
		rals:           NewRalRegistry(),
		injections:     NewInjectionQueues(),
		agentStates:    make(map[string]*AgentState),
		blockedAgents:  make(map[string]struct{}),
	}
}

func (s *Store) requireLoaded() {
	if !s.loaded {
		panic(ErrNotLoaded)
	}
}

func (s *Store) agentState(agent string) *AgentState {
	st, ok := s.agentStates[agent]
	if !ok {
		st = &AgentState{SessionByPhase: make(map[string]string)}
		s.agentStates[agent] = st
	}
	return st
}

// AddMessage appends entry to the log, returning its index or
// DuplicateIndex (I2).
func (s *Store) AddMessage(entry Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.log.Append(entry)
}

// AddEventMessage ingests a signed event per §6's event ingestion contract:
// only kind=1 events are appended, as a TextEntry carrying the event's
// referenced-pubkey tags as TargetedPubkeys. When isFromAgent is false,
// metadata.LastUserMessage is updated to the event content.
func (s *Store) AddEventMessage(ev wire.Event, isFromAgent bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	if ev.Kind != wire.KindText {
		return DuplicateIndex
	}
	entry := &TextEntry{
		EntryCommon: EntryCommon{
			Pubkey:          ev.Pubkey,
			EventID:         ev.ID,
			Timestamp:       ev.CreatedAt,
			TargetedPubkeys: ev.TargetedPubkeys(),
		},
		Content: ev.Content,
	}
	idx := s.log.Append(entry)
	if idx != DuplicateIndex && !isFromAgent {
		s.metadata.LastUserMessage = ev.Content
	}
	return idx
}

// SetEventIDAt late-binds an event id to an already-appended entry.
func (s *Store) SetEventIDAt(index int, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.log.SetEventIDAt(index, id)
}

// HasEventID reports whether id is already present in the log.
func (s *Store) HasEventID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.log.HasEventID(id)
}

// RootEventID returns the event id of the conversation's first entry, if
// any.
func (s *Store) RootEventID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.log.RootEventID()
}

// LastActivityTime returns the timestamp of the last entry, or 0 if the log
// is empty.
func (s *Store) LastActivityTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	n := s.log.Len()
	if n == 0 {
		return 0
	}
	return s.log.At(n - 1).Common().Timestamp
}

// HasToolCall reports whether callID appears in some ToolCallEntry.
func (s *Store) HasToolCall(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.log.HasToolCall(callID)
}

// HasToolResult reports whether callID appears in some ToolResultEntry.
func (s *Store) HasToolResult(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.log.HasToolResult(callID)
}

// --- RAL lifecycle ---------------------------------------------------

func (s *Store) CreateRal(agent string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.rals.CreateRal(agent)
}

func (s *Store) EnsureRalActive(agent string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.rals.EnsureActive(agent, n)
}

func (s *Store) CompleteRal(agent string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.rals.Complete(agent, n)
}

func (s *Store) IsRalActive(agent string, n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.rals.IsActive(agent, n)
}

func (s *Store) ActiveRalsOf(agent string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.rals.ActiveOf(agent)
}

func (s *Store) AllActiveRals() map[string][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.rals.AllActive()
}

// --- Message view ------------------------------------------------------

// BuildMessagesForRal builds the complete message view for (viewer,
// viewingRal) (§4.4.7 buildFullView). Name resolution through namer is the
// only suspension point (§5).
func (s *Store) BuildMessagesForRal(ctx context.Context, viewer string, viewingRal int, namer Namer, agents KnownAgents) ([]Message, error) {
	ctx, span := obs.StartSpan(ctx, "convo.Store.BuildMessagesForRal")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return BuildFullView(ctx, s.log, s.rals, viewer, viewingRal, namer, agents)
}

// BuildMessagesForRalAfterIndex builds the delta message view restricted to
// entries after afterIndex (§4.4.7 buildDeltaView).
func (s *Store) BuildMessagesForRalAfterIndex(ctx context.Context, viewer string, viewingRal, afterIndex int, namer Namer, agents KnownAgents) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return BuildDeltaView(ctx, s.log, s.rals, viewer, viewingRal, afterIndex, namer, agents)
}

// SummarizeOtherRal describes another live loop of viewer (§4.4.7
// summarizeOther).
func (s *Store) SummarizeOtherRal(viewer string, n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return SummarizeOther(s.log, viewer, n)
}

// --- Injections ----------------------------------------------------------

func (s *Store) AddInjection(inj RalInjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.injections.EnqueueRal(inj)
}

func (s *Store) GetPendingInjections(agent string, ral int) []RalInjection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.injections.PeekRal(agent, ral)
}

// ConsumeInjections removes the RAL-targeted injections matching (agent,
// ral) and appends each as a TextEntry attributed to agent with that RAL
// (§4.3): role=user injections carry TargetedPubkeys=[agent]; role=system
// injections are broadcast (no target list).
func (s *Store) ConsumeInjections(agent string, ral int) []RalInjection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	matched := s.injections.ConsumeRal(agent, ral)
	for _, inj := range matched {
		entry := &TextEntry{
			EntryCommon: EntryCommon{
				Pubkey:    agent,
				Timestamp: inj.QueuedAt,
				HasRal:    true,
				Ral:       ral,
			},
			Content: inj.Content,
		}
		if inj.Role == RoleUser {
			entry.TargetedPubkeys = []string{agent}
		}
		s.log.Append(entry)
	}
	return matched
}

func (s *Store) AddDeferredInjection(inj DeferredInjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.injections.EnqueueDeferred(inj)
}

func (s *Store) GetPendingDeferredInjections(agent string) []DeferredInjection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.injections.PeekDeferred(agent)
}

func (s *Store) ConsumeDeferredInjections(agent string) []DeferredInjection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.injections.ConsumeDeferred(agent)
}

// --- Metadata ------------------------------------------------------------

func (s *Store) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.metadata.Title = title
}

func (s *Store) GetTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.metadata.Title
}

// SetPhase sets the conversation's phase label and stamps PhaseStartedAt.
func (s *Store) SetPhase(phase string, now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.metadata.Phase = phase
	s.metadata.PhaseStartedAt = now
}

// UpdateMetadata merges the non-zero fields of partial into the stored
// metadata.
func (s *Store) UpdateMetadata(partial Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	mergeMetadata(&s.metadata, partial)
}

func mergeMetadata(dst *Metadata, partial Metadata) {
	if partial.Title != "" {
		dst.Title = partial.Title
	}
	if partial.Phase != "" {
		dst.Phase = partial.Phase
	}
	if partial.PhaseStartedAt != 0 {
		dst.PhaseStartedAt = partial.PhaseStartedAt
	}
	if partial.Branch != "" {
		dst.Branch = partial.Branch
	}
	if partial.Summary != "" {
		dst.Summary = partial.Summary
	}
	if partial.Requirements != "" {
		dst.Requirements = partial.Requirements
	}
	if partial.Plan != "" {
		dst.Plan = partial.Plan
	}
	if partial.ProjectPath != "" {
		dst.ProjectPath = partial.ProjectPath
	}
	if partial.LastUserMessage != "" {
		dst.LastUserMessage = partial.LastUserMessage
	}
	if partial.StatusLabel != "" {
		dst.StatusLabel = partial.StatusLabel
	}
	if partial.StatusCurrentActivity != "" {
		dst.StatusCurrentActivity = partial.StatusCurrentActivity
	}
	if partial.ReferencedArticle != nil {
		dst.ReferencedArticle = partial.ReferencedArticle
	}
}

// --- Per-agent state -------------------------------------------------

func (s *Store) GetTodos(agent string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.agentState(agent).Todos
}

func (s *Store) SetTodos(agent string, todos []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.agentState(agent).Todos = todos
}

func (s *Store) HasBeenNudgedAboutTodos(agent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.agentState(agent).NudgedAboutTodos
}

func (s *Store) SetNudgedAboutTodos(agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.agentState(agent).NudgedAboutTodos = true
}

func (s *Store) BlockAgent(agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.blockedAgents[agent] = struct{}{}
}

func (s *Store) UnblockAgent(agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	delete(s.blockedAgents, agent)
}

func (s *Store) IsAgentBlocked(agent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	_, ok := s.blockedAgents[agent]
	return ok
}

func (s *Store) GetBlockedAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	out := make([]string, 0, len(s.blockedAgents))
	for a := range s.blockedAgents {
		out = append(out, a)
	}
	return out
}

// --- Execution time --------------------------------------------------

func (s *Store) ExecutionTime() ExecutionTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	return s.executionTime
}

func (s *Store) SetExecutionTime(et ExecutionTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireLoaded()
	s.executionTime = et
}

// ConversationID returns the store's conversation id.
func (s *Store) ConversationID() string { return s.conversationID }

// ProjectID returns the store's project id.
func (s *Store) ProjectID() string { return s.projectID }
