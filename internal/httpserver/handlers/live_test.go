package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/live"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// gatedView blocks every add until gate is closed.
type gatedView struct {
	gate    chan struct{}
	adds    atomic.Int32
	deletes atomic.Int32
}

func (v *gatedView) Handle(ctx context.Context, op live.Op) error {
	switch op.Op {
	case live.OpAdd:
		v.adds.Add(1)
		select {
		case <-v.gate:
		case <-ctx.Done():
		}
	case live.OpDelete:
		v.deletes.Add(1)
	}
	return nil
}

type frameLog struct {
	mu     sync.Mutex
	frames []any
}

func (l *frameLog) Send(frame any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, frame)
	return nil
}

func (l *frameLog) busyFrames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, f := range l.frames {
		if e, ok := f.(live.ErrorFrame); ok && e.Message == busyMessage {
			n++
		}
	}
	return n
}

func TestOpDispatcherBoundsSubmits(t *testing.T) {
	view := &gatedView{gate: make(chan struct{})}
	sink := &frameLog{}
	ops := newOpDispatcher(view, sink, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		ops.dispatch(ctx, live.Op{Op: live.OpAdd, Title: "Docs", URL: "https://example.com"})
	}
	// deletes do not wait for the pending submit
	for i := 0; i < 5; i++ {
		ops.dispatch(ctx, live.Op{Op: live.OpDelete, ID: "a"})
	}
	if n := view.deletes.Load(); n != 5 {
		t.Errorf("deletes handled = %d, want 5", n)
	}
	if n := sink.busyFrames(); n != 19 {
		t.Errorf("busy frames = %d, want 19", n)
	}

	deadline := time.Now().Add(2 * time.Second)
	for view.adds.Load() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := view.adds.Load(); n != 1 {
		t.Fatalf("adds in flight = %d, want 1", n)
	}

	// once the submit finished the slot is free again
	close(view.gate)
	deadline = time.Now().Add(2 * time.Second)
	for len(ops.submitting) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	ops.dispatch(ctx, live.Op{Op: live.OpAdd, Title: "Go", URL: "https://go.dev"})
	deadline = time.Now().Add(2 * time.Second)
	for view.adds.Load() != 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := view.adds.Load(); n != 2 {
		t.Errorf("adds after release = %d, want 2", n)
	}
	if n := sink.busyFrames(); n != 19 {
		t.Errorf("busy frames after release = %d, want 19", n)
	}
}
