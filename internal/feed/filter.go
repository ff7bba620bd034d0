package feed

import (
	"sync"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

type filtered struct {
	inner Subscription
	out   chan domain.ChangeEvent
	done  chan struct{}
	once  sync.Once
}

// Filter wraps sub so that only events for table matching filter ("*" or an
// event kind) are delivered. Closing the wrapper closes sub.
func Filter(sub Subscription, table, filter string) Subscription {
	f := &filtered{
		inner: sub,
		out:   make(chan domain.ChangeEvent),
		done:  make(chan struct{}),
	}
	go f.pump(table, filter)
	return f
}

func (f *filtered) pump(table, filter string) {
	defer close(f.out)
	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.inner.Events():
			if !ok {
				return
			}
			if !ev.Matches(table, filter) {
				continue
			}
			select {
			case f.out <- ev:
			case <-f.done:
				return
			}
		}
	}
}

func (f *filtered) Events() <-chan domain.ChangeEvent { return f.out }

func (f *filtered) Close() error {
	var err error
	f.once.Do(func() {
		close(f.done)
		err = f.inner.Close()
	})
	return err
}
