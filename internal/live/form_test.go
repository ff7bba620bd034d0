package live

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

func TestFormSubmitSuccessClearsFields(t *testing.T) {
	var (
		mu     sync.Mutex
		states []FormState
	)
	f := NewForm(func(st FormState) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	err := f.Submit(context.Background(), "Docs", "https://example.com", func(context.Context, string, string) (*domain.Bookmark, error) {
		if !f.State().Submitting {
			t.Error("flag should be set while add runs")
		}
		return &domain.Bookmark{ID: "b1"}, nil
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if st := f.State(); st != (FormState{}) {
		t.Errorf("State() = %+v, want cleared", st)
	}
	want := []FormState{
		{Submitting: true, Title: "Docs", URL: "https://example.com"},
		{},
	}
	if len(states) != len(want) || states[0] != want[0] || states[1] != want[1] {
		t.Errorf("transitions = %+v, want %+v", states, want)
	}
}

func TestFormSubmitFailureKeepsFields(t *testing.T) {
	boom := errors.New("boom")
	f := NewForm(nil)

	err := f.Submit(context.Background(), "Docs", "https://example.com", func(context.Context, string, string) (*domain.Bookmark, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Submit() error = %v, want boom", err)
	}
	want := FormState{Title: "Docs", URL: "https://example.com"}
	if st := f.State(); st != want {
		t.Errorf("State() = %+v, want %+v", st, want)
	}
}

func TestFormSubmitPanicResetsFlag(t *testing.T) {
	f := NewForm(nil)
	func() {
		defer func() { _ = recover() }()
		_ = f.Submit(context.Background(), "Docs", "https://example.com", func(context.Context, string, string) (*domain.Bookmark, error) {
			panic("boom")
		})
	}()
	if f.State().Submitting {
		t.Error("flag should be reset after a panic")
	}
}

func TestFormRejectsConcurrentSubmit(t *testing.T) {
	f := NewForm(nil)
	started := make(chan struct{})
	release := make(chan struct{})

	errc := make(chan error, 1)
	go func() {
		errc <- f.Submit(context.Background(), "Docs", "https://example.com", func(context.Context, string, string) (*domain.Bookmark, error) {
			close(started)
			<-release
			return &domain.Bookmark{}, nil
		})
	}()
	<-started

	calls := 0
	err := f.Submit(context.Background(), "Other", "https://other.example.com", func(context.Context, string, string) (*domain.Bookmark, error) {
		calls++
		return nil, nil
	})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second Submit() error = %v, want ErrBusy", err)
	}
	if calls != 0 {
		t.Error("busy form must not call add")
	}

	close(release)
	if err := <-errc; err != nil {
		t.Errorf("first Submit() error = %v", err)
	}
	if f.State().Submitting {
		t.Error("flag should be reset")
	}
}
