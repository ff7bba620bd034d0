package feed

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// DefaultBufferSize is the per-subscriber buffer used when none is configured.
const DefaultBufferSize = 64

// Memory is an in-process feed. It serves single-instance deployments and
// tests; multi-instance deployments use the Redis feed.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{} // owner -> subscribers
	buffer int
	logger logger.Logger
}

type memorySub struct {
	hub   *Memory
	owner string
	ch    chan domain.ChangeEvent
	once  sync.Once
	done  chan struct{}
}

// NewMemory creates an empty in-memory feed.
func NewMemory(buffer int, log logger.Logger) *Memory {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	return &Memory{
		subs:   make(map[string]map[*memorySub]struct{}),
		buffer: buffer,
		logger: log,
	}
}

// Publish delivers ev to every subscriber of its owner. A subscriber whose
// buffer is full misses the event; publishers never block.
func (m *Memory) Publish(_ context.Context, ev domain.ChangeEvent) error {
	ev = Stamp(ev)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for s := range m.subs[ev.Owner] {
		select {
		case s.ch <- ev:
		default:
			m.logger.Warn("feed subscriber too slow, dropping event",
				logger.String("owner", ev.Owner),
				logger.String("event_id", ev.ID),
				logger.String("kind", string(ev.Kind)))
		}
	}
	return nil
}

// Subscribe registers a subscriber for owner. The subscription ends when
// Close is called or ctx is done.
func (m *Memory) Subscribe(ctx context.Context, owner string) (Subscription, error) {
	s := &memorySub{
		hub:   m,
		owner: owner,
		ch:    make(chan domain.ChangeEvent, m.buffer),
		done:  make(chan struct{}),
	}

	m.mu.Lock()
	set, ok := m.subs[owner]
	if !ok {
		set = make(map[*memorySub]struct{})
		m.subs[owner] = set
	}
	set[s] = struct{}{}
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

// Count returns the number of live subscriptions for owner.
func (m *Memory) Count(owner string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.subs[owner])
}

func (m *Memory) remove(s *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := m.subs[s.owner]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(m.subs, s.owner)
		}
	}
	// Closed under the write lock so no Publish can be sending.
	close(s.ch)
}

func (s *memorySub) Events() <-chan domain.ChangeEvent { return s.ch }

func (s *memorySub) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s)
	})
	return nil
}
