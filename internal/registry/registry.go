// Package registry implements the process-wide directory of live
// conversation stores (§4.6). Registry is an explicit value, not a package
// singleton (SPEC_FULL/DESIGN NOTES §9): tests and callers construct and
// pass around their own *Registry instead of relying on a global plus a
// reset hook.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tenex-chat/tenex-sub007/internal/convo"
	"github.com/tenex-chat/tenex-sub007/pkg/wire"
)

// ErrNotInitialized is the value a registry operation that requires
// initialization panics with when invoked before Initialize (§7
// NotInitialized).
var ErrNotInitialized = fmt.Errorf("registry: not initialized")

// agentSet is the declarative, immutable-per-lifetime known-agent set
// (Open Question #3 — see DESIGN.md).
type agentSet map[string]struct{}

func (a agentSet) IsAgentPubkey(pk string) bool {
	_, ok := a[pk]
	return ok
}

// Registry is the per-process directory mapping conversation id -> store.
//
// Grounded on internal/store/stores.go's aggregate-of-stores container,
// generalized into a lazily-loading directory keyed by conversation id.
type Registry struct {
	mu sync.Mutex

	basePath  string
	projectID string
	agents    agentSet

	stores map[string]*convo.Store
	cache  *eventCache

	initialized bool
}

// New returns an uninitialized Registry whose conversation files live under
// <storageBase>/projects/<projectId>/conversations/ (§6). Call Initialize
// before any other operation.
func New(storageBase string) *Registry {
	return &Registry{
		basePath: storageBase,
		stores:   make(map[string]*convo.Store),
		cache:    newEventCache(),
	}
}

// Initialize derives the project id from projectPath's trailing segment
// (projectPath is the project's own filesystem location, independent of the
// conversation storage root passed to New) and seeds the known-agent set.
// Must be called before any other operation (§4.6).
func (r *Registry) Initialize(projectPath string, agentPubkeys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.projectID = filepath.Base(strings.TrimRight(projectPath, "/"))
	set := make(agentSet, len(agentPubkeys))
	for _, pk := range agentPubkeys {
		set[pk] = struct{}{}
	}
	r.agents = set
	r.initialized = true
}

func (r *Registry) requireInitialized() {
	if !r.initialized {
		panic(ErrNotInitialized)
	}
}

// IsAgentPubkey reports whether pk is a member of the known-agent set.
func (r *Registry) IsAgentPubkey(pk string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()
	return r.agents.IsAgentPubkey(pk)
}

// GetOrLoad returns the in-memory store for id, constructing and loading it
// from disk if it is not already resident.
func (r *Registry) GetOrLoad(id string) (*convo.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()
	return r.getOrLoadLocked(id)
}

func (r *Registry) getOrLoadLocked(id string) (*convo.Store, error) {
	if st, ok := r.stores[id]; ok {
		return st, nil
	}
	st := convo.New(r.basePath, r.projectID, id)
	if err := st.Load(); err != nil {
		return nil, err
	}
	r.stores[id] = st
	return st, nil
}

// Get returns the store for id if it is resident in memory or present on
// disk with non-empty history; otherwise it returns (nil, false).
func (r *Registry) Get(id string) (*convo.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()

	if st, ok := r.stores[id]; ok {
		return st, true
	}
	st, err := r.getOrLoadLocked(id)
	if err != nil {
		return nil, false
	}
	if _, hasRoot := st.RootEventID(); !hasRoot {
		delete(r.stores, id)
		return nil, false
	}
	return st, true
}

// Has is a convenience wrapper over Get.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Create starts a new store keyed by rootEvent.ID, appends rootEvent as its
// first entry, titles it from the event content, caches the event, and
// persists. If id already exists in memory, the existing store is returned
// unmodified (§4.6).
func (r *Registry) Create(rootEvent wire.Event) (*convo.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()

	if rootEvent.ID == "" {
		panic("registry: Create requires a non-empty root event id")
	}
	if st, ok := r.stores[rootEvent.ID]; ok {
		return st, nil
	}

	st := convo.New(r.basePath, r.projectID, rootEvent.ID)
	if err := st.Load(); err != nil {
		return nil, err
	}
	st.AddEventMessage(rootEvent, r.agents.IsAgentPubkey(rootEvent.Pubkey))
	st.SetTitle(titleFromContent(rootEvent.Content))

	r.stores[rootEvent.ID] = st
	r.cache.put(rootEvent.ID, rootEvent.ID, rootEvent)

	if err := st.Save(); err != nil {
		return nil, err
	}
	return st, nil
}

// titleFromContent truncates content to 50 characters, appending "…" when
// truncated (§4.6).
func titleFromContent(content string) string {
	runes := []rune(content)
	if len(runes) <= 50 {
		return content
	}
	return string(runes[:50]) + "…"
}

// FindByEventID linearly scans live stores for one containing eventID.
func (r *Registry) FindByEventID(eventID string) (*convo.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()

	for _, st := range r.stores {
		if st.HasEventID(eventID) {
			return st, true
		}
	}
	return nil, false
}

// AddEvent ingests a subsequent event into conversationId's store, caching
// it process-wide.
func (r *Registry) AddEvent(conversationID string, event wire.Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()

	st, err := r.getOrLoadLocked(conversationID)
	if err != nil {
		return 0, err
	}
	idx := st.AddEventMessage(event, r.agents.IsAgentPubkey(event.Pubkey))
	r.cache.put(conversationID, event.ID, event)
	return idx, nil
}

// SetConversationTitle sets conversationId's title.
func (r *Registry) SetConversationTitle(conversationID, title string) error {
	st, err := r.mustGet(conversationID)
	if err != nil {
		return err
	}
	st.SetTitle(title)
	return nil
}

// UpdateConversationMetadata merges partial into conversationId's metadata.
func (r *Registry) UpdateConversationMetadata(conversationID string, partial convo.Metadata) error {
	st, err := r.mustGet(conversationID)
	if err != nil {
		return err
	}
	st.UpdateMetadata(partial)
	return nil
}

func (r *Registry) mustGet(conversationID string) (*convo.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()
	return r.getOrLoadLocked(conversationID)
}

// Archive evicts conversationId's store from memory (not disk) and purges
// its cached events.
func (r *Registry) Archive(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requireInitialized()

	delete(r.stores, conversationID)
	r.cache.evictStore(conversationID)
}

// Complete saves conversationId's store, then archives it.
func (r *Registry) Complete(conversationID string) error {
	r.mu.Lock()
	st, ok := r.stores[conversationID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := st.Save(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.stores, conversationID)
	r.cache.evictStore(conversationID)
	r.mu.Unlock()
	return nil
}

// Cleanup saves every live store in parallel, bounded by a small worker
// count via errgroup — the concurrency shape errgroup exists for.
func (r *Registry) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	stores := make([]*convo.Store, 0, len(r.stores))
	for _, st := range r.stores {
		stores = append(stores, st)
	}
	r.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, st := range stores {
		st := st
		g.Go(func() error {
			if err := st.Save(); err != nil {
				slog.Error("cleanup: failed to save conversation", "conversation", st.ConversationID(), "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// CacheEvent records event under conversationId in the process-wide event
// cache.
func (r *Registry) CacheEvent(conversationID string, event wire.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.put(conversationID, event.ID, event)
}

// GetCachedEvent returns a previously cached event by id.
func (r *Registry) GetCachedEvent(eventID string) (wire.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.get(eventID)
}

// ListConversationIdsFromDisk scans the conversations directory for the
// current project and returns the ids of files matching *.json.
func (r *Registry) ListConversationIdsFromDisk() ([]string, error) {
	r.mu.Lock()
	dir := filepath.Join(r.basePath, "projects", r.projectID, "conversations")
	r.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("registry: listing conversations: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

// Reset clears all state. Testing hook only — must not be relied upon in
// production (§9 DESIGN NOTES).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = make(map[string]*convo.Store)
	r.cache = newEventCache()
	r.initialized = false
}
