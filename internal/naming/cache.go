package naming

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tenex-chat/tenex-sub007/internal/convo"
)

// Cache decorates a Namer with a TTL-expiring lookup cache and a rate
// limiter guarding calls that fall through to the backing namer, so a view
// build over a conversation with many distinct unresolved senders cannot
// hammer the naming backend.
//
// Grounded on the per-user file cache / hot-reload-with-cache pattern in
// the teacher's internal/bootstrap and skills.Loader.
type Cache struct {
	backing convo.Namer
	ttl     time.Duration
	limiter *rate.Limiter

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	name    string
	expires time.Time
}

// NewCache wraps backing with a cache whose entries live for ttl and whose
// fallthrough rate is bounded by limiter (e.g. rate.NewLimiter(rate.Limit(20), 20)).
func NewCache(backing convo.Namer, ttl time.Duration, limiter *rate.Limiter) *Cache {
	return &Cache{
		backing: backing,
		ttl:     ttl,
		limiter: limiter,
		entries: make(map[string]cacheEntry),
	}
}

// Name implements convo.Namer.
func (c *Cache) Name(ctx context.Context, pubkey string) (string, error) {
	if name, ok := c.lookup(pubkey); ok {
		return name, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return c.backing.NameSync(pubkey), nil
	}
	name, err := c.backing.Name(ctx, pubkey)
	if err != nil {
		return "", err
	}
	c.store(pubkey, name)
	return name, nil
}

// NameSync implements convo.Namer without consulting the rate limiter,
// returning a cached value or falling straight through to the backing
// namer's own synchronous fallback.
func (c *Cache) NameSync(pubkey string) string {
	if name, ok := c.lookup(pubkey); ok {
		return name
	}
	name := c.backing.NameSync(pubkey)
	c.store(pubkey, name)
	return name
}

func (c *Cache) lookup(pubkey string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[pubkey]
	if !ok || time.Now().After(e.expires) {
		return "", false
	}
	return e.name, true
}

func (c *Cache) store(pubkey, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pubkey] = cacheEntry{name: name, expires: time.Now().Add(c.ttl)}
}
