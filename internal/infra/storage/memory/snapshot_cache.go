package memory

import (
	"context"
	"sync"
	"time"

	"rentcalc/internal/app/policies"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
)

// SnapshotCache is the process-local snapshot cache used when Redis is not
// configured.
type SnapshotCache struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.RWMutex
	entries map[property.ID]cacheEntry
	gens    map[property.ID]uint64
}

type cacheEntry struct {
	snapshot  policies.PropertySnapshot
	expiresAt time.Time
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{TTL: ttl, entries: make(map[property.ID]cacheEntry)}
}

func (c *SnapshotCache) Get(ctx context.Context, id property.ID) (policies.PropertySnapshot, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return policies.PropertySnapshot{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return policies.PropertySnapshot{}, false, nil
	}
	return cloneSnapshot(entry.snapshot), true, nil
}

func (c *SnapshotCache) Generation(ctx context.Context, id property.ID) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[id], nil
}

// Put stores snapshot unless the property was invalidated after generation
// was read.
func (c *SnapshotCache) Put(ctx context.Context, snapshot policies.PropertySnapshot, generation uint64) (bool, error) {
	entry := cacheEntry{snapshot: cloneSnapshot(snapshot)}
	if c.TTL > 0 {
		entry.expiresAt = c.now().Add(c.TTL)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[snapshot.PropertyID] != generation {
		return false, nil
	}
	if c.entries == nil {
		c.entries = make(map[property.ID]cacheEntry)
	}
	c.entries[snapshot.PropertyID] = entry
	return true, nil
}

func (c *SnapshotCache) Invalidate(ctx context.Context, id property.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	if c.gens == nil {
		c.gens = make(map[property.ID]uint64)
	}
	c.gens[id]++
	return nil
}

func (c *SnapshotCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[property.ID]cacheEntry)
	return nil
}

func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SnapshotCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func cloneSnapshot(s policies.PropertySnapshot) policies.PropertySnapshot {
	var periods []domainpricing.Period
	if s.PricingPeriods != nil {
		periods = clonePeriods(s.PricingPeriods)
	}
	return policies.PropertySnapshot{
		PropertyID:     s.PropertyID,
		Reservations:   cloneIntervals(s.Reservations),
		PricingPeriods: periods,
	}
}

var _ policies.SnapshotCache = (*SnapshotCache)(nil)
