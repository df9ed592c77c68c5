package revocation

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type memoryEntry struct {
	reason    string
	expiresAt time.Time
}

// Memory is the in-process Registry. Expired entries are invisible
// immediately and physically removed by a background sweep.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemory creates a Memory registry and starts its sweeper. A
// non-positive sweepInterval uses the one-minute default. Call Close to
// stop the sweeper.
func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	m := &Memory{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

// Add implements Registry.
func (m *Memory) Add(_ context.Context, jti, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jti] = memoryEntry{
		reason:    reason,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Contains implements Registry.
func (m *Memory) Contains(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Reason returns the stored reason for a live entry, or false when the jti
// is not revoked.
func (m *Memory) Reason(jti string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[jti]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.reason, true
}

// Len returns the number of stored entries, expired ones included until
// the next sweep.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for jti, entry := range m.entries {
				if now.After(entry.expiresAt) {
					delete(m.entries, jti)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// Close stops the background sweeper.
func (m *Memory) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
