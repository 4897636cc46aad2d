// internal/status/cache.go
package status

import (
	"bytes"
	"sync"
	"time"
)

// Cache holds the current Snapshot and the received-message counter.
// Writers are the ingress handlers; readers are pollers.
// One lock covers every field so a read is always a single consistent cut.
type Cache struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewCache returns a cache holding a freshly constructed sentinel snapshot.
func NewCache() *Cache {
	return &Cache{}
}

// RecordSystemInfo replaces the info field-group and counts the message.
func (c *Cache) RecordSystemInfo(info SystemInfo, at time.Time) {
	c.mu.Lock()
	c.snap.FrameRate = info.FrameRate
	c.snap.StatusMessage = info.Message
	c.snap.InfoAt = at
	c.snap.Received++
	c.mu.Unlock()
}

// RecordTrackerState replaces the tracker field-group and counts the message.
// The payload is copied; the caller keeps ownership of state.
func (c *Cache) RecordTrackerState(state []byte, at time.Time) {
	owned := bytes.Clone(state)

	c.mu.Lock()
	c.snap.TrackerState = owned
	c.snap.TrackerAt = at
	c.snap.Received++
	c.mu.Unlock()
}

// Snapshot returns a copy of the latest values.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()

	// Stored slices are never mutated in place, so cloning outside the
	// lock is safe and keeps the critical section short.
	s.TrackerState = bytes.Clone(s.TrackerState)
	return s
}

// HasData reports whether any message has been recorded.
func (c *Cache) HasData() bool {
	return c.Received() > 0
}

// Received is the total number of recorded messages.
func (c *Cache) Received() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Received
}
