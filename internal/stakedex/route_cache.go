package stakedex

import (
	"container/list"
	"sync"

	"github.com/gagliardetto/solana-go"
)

const defaultRouteCacheSize = 4096

// routeKey pins a cached answer to the snapshot generation it was computed on,
// so a refresh makes every older entry unreachable without a sweep.
type routeKey struct {
	pool        solana.PublicKey
	tokens      uint64
	withPrefund bool
	generation  uint64
}

type routeEntry struct {
	key    routeKey
	routes []Route
}

// routeCache is a bounded LRU of route fan-outs.
type routeCache struct {
	mu      sync.Mutex
	entries map[routeKey]*list.Element
	order   *list.List
	maxSize int
}

func newRouteCache(maxSize int) *routeCache {
	if maxSize <= 0 {
		maxSize = defaultRouteCacheSize
	}
	return &routeCache{
		entries: make(map[routeKey]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
	}
}

func (c *routeCache) get(key routeKey) ([]Route, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*routeEntry).routes, true
}

func (c *routeCache) set(key routeKey, routes []Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*routeEntry).routes = routes
		return
	}
	for len(c.entries) >= c.maxSize {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.entries, back.Value.(*routeEntry).key)
	}
	c.entries[key] = c.order.PushFront(&routeEntry{key: key, routes: routes})
}

func (c *routeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
