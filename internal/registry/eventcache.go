package registry

import "github.com/tenex-chat/tenex-sub007/pkg/wire"

// eventCache is the process-wide event id -> event cache (§4.6, §9 DESIGN
// NOTES). A reverse index storeID -> set<eventID> is maintained at
// insertion time so evicting a store's events on archive is O(k) in that
// store's event count, not O(n) over the whole cache.
type eventCache struct {
	byID    map[string]wire.Event
	byStore map[string]map[string]struct{}
}

func newEventCache() *eventCache {
	return &eventCache{
		byID:    make(map[string]wire.Event),
		byStore: make(map[string]map[string]struct{}),
	}
}

func (c *eventCache) put(storeID, eventID string, event wire.Event) {
	c.byID[eventID] = event
	set, ok := c.byStore[storeID]
	if !ok {
		set = make(map[string]struct{})
		c.byStore[storeID] = set
	}
	set[eventID] = struct{}{}
}

func (c *eventCache) get(eventID string) (wire.Event, bool) {
	ev, ok := c.byID[eventID]
	return ev, ok
}

// evictStore removes every event owned by storeID from the cache.
func (c *eventCache) evictStore(storeID string) {
	ids, ok := c.byStore[storeID]
	if !ok {
		return
	}
	for id := range ids {
		delete(c.byID, id)
	}
	delete(c.byStore, storeID)
}
