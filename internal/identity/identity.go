// Package identity provides the declarative known-agent set consulted by
// the view builder's attribution logic (§3, §6). It is supplied once — this
// package never exposes a mutator after construction, matching Open
// Question #3's decision that isAgentPubkey membership is immutable for the
// life of a registry.
package identity

// Set is a declarative, read-only collection of agent pubkeys. It
// implements convo.KnownAgents.
type Set struct {
	members map[string]struct{}
}

// NewSet returns a Set seeded with pubkeys. Later mutation of the input
// slice has no effect on the returned Set.
func NewSet(pubkeys []string) Set {
	m := make(map[string]struct{}, len(pubkeys))
	for _, pk := range pubkeys {
		m[pk] = struct{}{}
	}
	return Set{members: m}
}

// IsAgentPubkey reports whether pk is a member of the set.
func (s Set) IsAgentPubkey(pk string) bool {
	_, ok := s.members[pk]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s.members) }
