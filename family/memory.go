package family

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

// Memory is the in-process Store. One mutex covers membership and the
// consumed flags, which makes Consume a trivially correct compare-and-set.
type Memory struct {
	mu       sync.Mutex
	families map[string][]Member
	consumed map[string]time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemory creates a Memory store and starts its sweeper. A non-positive
// sweepInterval uses the one-minute default. Call Close to stop the
// sweeper.
func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	m := &Memory{
		families: make(map[string][]Member),
		consumed: make(map[string]time.Time),
		done:     make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

// AddMember implements Store.
func (m *Memory) AddMember(_ context.Context, familyID string, member Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.families[familyID] = append(m.families[familyID], member)
	return nil
}

// Members implements Store.
func (m *Memory) Members(_ context.Context, familyID string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	members := m.families[familyID]
	out := make([]Member, 0, len(members))
	for _, member := range members {
		if now.Before(member.ExpiresAt) {
			out = append(out, member)
		}
	}
	return out, nil
}

// Consume implements Store.
func (m *Memory) Consume(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, spent := m.consumed[jti]; spent {
		return false, nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	m.consumed[jti] = time.Now().Add(ttl)
	return true, nil
}

// IsConsumed implements Store.
func (m *Memory) IsConsumed(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, spent := m.consumed[jti]
	return spent, nil
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for jti, expiresAt := range m.consumed {
				if now.After(expiresAt) {
					delete(m.consumed, jti)
				}
			}
			for id, members := range m.families {
				live := members[:0]
				for _, member := range members {
					if now.Before(member.ExpiresAt) {
						live = append(live, member)
					}
				}
				if len(live) == 0 {
					delete(m.families, id)
					continue
				}
				m.families[id] = live
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
