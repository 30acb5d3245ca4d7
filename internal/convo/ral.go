package convo

import "sort"

// RalRegistry tracks, per agent pubkey, a monotonically increasing loop
// counter and the set of currently active loop numbers (§4.2).
//
// Grounded on the per-task active-set tracking in the teacher's
// tools.DelegateManager, generalized from one shared map to per-agent
// counters since each agent's loop numbering is independent.
type RalRegistry struct {
	next   map[string]int
	active map[string]map[int]struct{}
}

// NewRalRegistry returns an empty registry.
func NewRalRegistry() *RalRegistry {
	return &RalRegistry{
		next:   make(map[string]int),
		active: make(map[string]map[int]struct{}),
	}
}

// CreateRal assigns the next loop number for A, marks it active, and
// returns it (P2: successive calls for the same A yield 1, 2, 3, …).
func (r *RalRegistry) CreateRal(agent string) int {
	n := r.next[agent] + 1
	r.next[agent] = n
	r.markActive(agent, n)
	return n
}

// EnsureActive adds n to active(A) if absent, and raises next(A) to at
// least n so a subsequent CreateRal cannot collide with it. Idempotent.
func (r *RalRegistry) EnsureActive(agent string, n int) {
	r.markActive(agent, n)
	if n > r.next[agent] {
		r.next[agent] = n
	}
}

func (r *RalRegistry) markActive(agent string, n int) {
	set, ok := r.active[agent]
	if !ok {
		set = make(map[int]struct{})
		r.active[agent] = set
	}
	set[n] = struct{}{}
}

// Complete removes n from active(A); next(A) is unchanged so the number is
// never reused. Idempotent.
func (r *RalRegistry) Complete(agent string, n int) {
	if set, ok := r.active[agent]; ok {
		delete(set, n)
	}
}

// IsActive reports whether n is currently active for A.
func (r *RalRegistry) IsActive(agent string, n int) bool {
	set, ok := r.active[agent]
	if !ok {
		return false
	}
	_, ok = set[n]
	return ok
}

// ActiveOf returns the active loop numbers for A, sorted ascending.
func (r *RalRegistry) ActiveOf(agent string) []int {
	set := r.active[agent]
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// AllActive returns every agent's active loop numbers, sorted ascending
// within each agent.
func (r *RalRegistry) AllActive() map[string][]int {
	out := make(map[string][]int, len(r.active))
	for agent := range r.active {
		if list := r.ActiveOf(agent); len(list) > 0 {
			out[agent] = list
		}
	}
	return out
}

// NextOf returns next(A) (0 if A has never had a loop created).
func (r *RalRegistry) NextOf(agent string) int {
	return r.next[agent]
}
