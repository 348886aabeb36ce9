package homey

import (
	"context"
	"sync"
	"time"
)

// defaultCacheTTL matches the hub.cache_ttl config default.
const defaultCacheTTL = 60 * time.Second

// Cache is a TTL cache over the hub's device and flow listings.
//
// Only the admin-facing paths (available items, dashboard editing) read
// through it; live dashboard rendering and device control always hit
// the hub directly so state is never stale where it matters. Empty
// results are cached too: a hub that is down should not be re-polled
// on every listing request.
type Cache struct {
	ttl time.Duration

	mu             sync.Mutex
	devices        map[string]Device
	devicesExpires time.Time
	flows          map[string]Flow
	flowsExpires   time.Time
}

// NewCache creates a cache with the given TTL. ttl<=0 means 60s.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{ttl: ttl}
}

// Devices returns the cached device listing, fetching through the
// client when the entry is missing or expired.
func (c *Cache) Devices(ctx context.Context, client *Client) map[string]Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.devices != nil && now.Before(c.devicesExpires) {
		return c.devices
	}

	c.devices = client.Devices(ctx)
	c.devicesExpires = now.Add(c.ttl)
	return c.devices
}

// Flows returns the cached flow listing, fetching through the client
// when the entry is missing or expired.
func (c *Cache) Flows(ctx context.Context, client *Client) map[string]Flow {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.flows != nil && now.Before(c.flowsExpires) {
		return c.flows
	}

	c.flows = client.Flows(ctx)
	c.flowsExpires = now.Add(c.ttl)
	return c.flows
}

// Invalidate drops both cached listings. Called when hub settings
// change so the next listing reflects the new hub.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.devices = nil
	c.devicesExpires = time.Time{}
	c.flows = nil
	c.flowsExpires = time.Time{}
}
