package shipping

import (
	"sync"
	"time"

	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

type cacheEntry struct {
	rates     []usps.RateOption
	degraded  bool
	fetchedAt time.Time
}

// RateCache holds recently computed rate sets keyed by route and cart so a
// checkout session does not hammer the carrier. Expiry is lazy: a stale entry
// is treated as absent on Get and overwritten wholesale on the next Put.
// Entries are never mutated after Put; Get hands out copies.
type RateCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewRateCache(ttl time.Duration) *RateCache {
	return &RateCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key builds the composite cache key for one route and cart.
func Key(originZIP, destinationZIP, cartID string) string {
	return originZIP + "-" + destinationZIP + "-" + cartID
}

// Get returns the cached rate set when present and fresh.
func (c *RateCache) Get(key string) ([]usps.RateOption, bool, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, time.Time{}, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false, time.Time{}, false
	}
	rates := make([]usps.RateOption, len(entry.rates))
	copy(rates, entry.rates)
	return rates, entry.degraded, entry.fetchedAt, true
}

// Put stores a freshly aggregated rate set, replacing any previous entry.
func (c *RateCache) Put(key string, rates []usps.RateOption, degraded bool) {
	stored := make([]usps.RateOption, len(rates))
	copy(stored, rates)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		rates:     stored,
		degraded:  degraded,
		fetchedAt: c.now(),
	}
}

func (c *RateCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
