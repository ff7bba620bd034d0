// Package feed carries row-level change events from the data service to
// subscribed views. Channels are partitioned by row owner so a subscriber
// only ever sees changes to rows it is allowed to read.
package feed

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Subscription is a live stream of change events. Events is closed once the
// subscription ends, either through Close or because the feed dropped it.
type Subscription interface {
	Events() <-chan domain.ChangeEvent
	Close() error
}

// Feed publishes and fans out change events.
type Feed interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Subscribe(ctx context.Context, owner string) (Subscription, error)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEventID returns a lexically sortable id for a change event.
func NewEventID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// Stamp fills the id and timestamp of an event if they are missing.
func Stamp(ev domain.ChangeEvent) domain.ChangeEvent {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.ID == "" {
		ev.ID = NewEventID(ev.At)
	}
	return ev
}
