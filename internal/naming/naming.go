// Package naming provides external pubkey-naming capabilities consumed by
// the view builder's attribution logic (§6). The view builder itself only
// depends on the convo.Namer interface; this package supplies concrete
// implementations.
package naming

import (
	"context"
	"fmt"
)

// Static is the simplest conforming Namer: a fixed pubkey -> display-name
// table, useful for tests and for small deployments that don't run a
// separate profile-lookup service.
type Static struct {
	names map[string]string
}

// NewStatic returns a Static namer seeded with names.
func NewStatic(names map[string]string) *Static {
	cp := make(map[string]string, len(names))
	for k, v := range names {
		cp[k] = v
	}
	return &Static{names: cp}
}

// Name implements convo.Namer.
func (s *Static) Name(_ context.Context, pubkey string) (string, error) {
	return s.NameSync(pubkey), nil
}

// NameSync implements convo.Namer, falling back to a truncated pubkey when
// no name is registered.
func (s *Static) NameSync(pubkey string) string {
	if name, ok := s.names[pubkey]; ok {
		return name
	}
	return fallbackName(pubkey)
}

func fallbackName(pubkey string) string {
	if len(pubkey) <= 8 {
		return pubkey
	}
	return fmt.Sprintf("%s…%s", pubkey[:4], pubkey[len(pubkey)-4:])
}
