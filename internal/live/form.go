package live

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// ErrBusy is returned when a form is submitted while a submission is
// still in flight.
var ErrBusy = errors.New("a submission is already in progress")

// AddFunc performs the insert behind a form submission.
type AddFunc func(ctx context.Context, title, url string) (*domain.Bookmark, error)

// FormState is a snapshot of the creation form.
type FormState struct {
	Submitting bool
	Title      string
	URL        string
}

// Form is the bookmark creation form. A single flag serialises
// submissions.
type Form struct {
	mu       sync.Mutex
	state    FormState
	onChange func(FormState)
}

// NewForm creates an empty form. onChange, if set, is called with the new
// state after every transition.
func NewForm(onChange func(FormState)) *Form {
	return &Form{onChange: onChange}
}

// State returns the current form state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit runs add with the given fields. Fields are cleared when add
// succeeds and kept otherwise; the submitting flag is reset either way.
func (f *Form) Submit(ctx context.Context, title, url string, add AddFunc) error {
	if !f.begin(title, url) {
		return ErrBusy
	}
	ok := false
	defer func() { f.end(ok) }()

	if _, err := add(ctx, title, url); err != nil {
		return err
	}
	ok = true
	return nil
}

func (f *Form) begin(title, url string) bool {
	f.mu.Lock()
	if f.state.Submitting {
		f.mu.Unlock()
		return false
	}
	f.state = FormState{Submitting: true, Title: title, URL: url}
	st := f.state
	f.mu.Unlock()

	f.notify(st)
	return true
}

func (f *Form) end(cleared bool) {
	f.mu.Lock()
	f.state.Submitting = false
	if cleared {
		f.state.Title, f.state.URL = "", ""
	}
	st := f.state
	f.mu.Unlock()

	f.notify(st)
}

func (f *Form) notify(st FormState) {
	if f.onChange != nil {
		f.onChange(st)
	}
}
