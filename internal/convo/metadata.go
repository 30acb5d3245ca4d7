package convo

// ReferencedArticle is the metadata.referencedArticle sub-object (§3).
type ReferencedArticle struct {
	Title   string
	Content string
	DTag    string
}

// Metadata is the conversation-level free-form-but-recognized field set
// (§3).
type Metadata struct {
	Title                 string
	Phase                 string
	PhaseStartedAt        int64
	Branch                string
	Summary               string
	Requirements          string
	Plan                  string
	ProjectPath           string
	LastUserMessage       string
	StatusLabel           string
	StatusCurrentActivity string
	ReferencedArticle     *ReferencedArticle
}

// ExecutionTime is the opaque-to-the-store execution-time accounting
// record (§4.5); the owning runtime calls Start/Stop, the store only
// persists whatever it is handed.
type ExecutionTime struct {
	TotalSeconds        float64
	CurrentSessionStart *int64
	IsActive            bool
	LastUpdated         int64
}

// Start marks a new active session beginning at now (unix seconds).
func (et *ExecutionTime) Start(now int64) {
	if et.IsActive {
		return
	}
	et.IsActive = true
	start := now
	et.CurrentSessionStart = &start
	et.LastUpdated = now
}

// Stop ends the active session begun by Start, folding its duration into
// TotalSeconds.
func (et *ExecutionTime) Stop(now int64) {
	if !et.IsActive || et.CurrentSessionStart == nil {
		return
	}
	et.TotalSeconds += float64(now - *et.CurrentSessionStart)
	et.IsActive = false
	et.CurrentSessionStart = nil
	et.LastUpdated = now
}

// Elapsed returns TotalSeconds plus the in-progress session duration (if
// any) as of now.
func (et *ExecutionTime) Elapsed(now int64) float64 {
	total := et.TotalSeconds
	if et.IsActive && et.CurrentSessionStart != nil {
		total += float64(now - *et.CurrentSessionStart)
	}
	return total
}

// AgentState is the per-agent mutable state carried inside a conversation
// (§3): todo list, the "nudged about todos" flag, blocked-set membership is
// tracked separately on Store, and an opaque claude-session-by-phase map.
type AgentState struct {
	Todos             []any
	NudgedAboutTodos  bool
	SessionByPhase    map[string]string
}
