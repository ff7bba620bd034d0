package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/marks/internal/actions"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/feed"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// requestTimeout bounds server requests started by a view. They outlive an
// unmount so a delete clicked just before closing the tab still happens.
const requestTimeout = 10 * time.Second

// sessionCheckInterval is how often a mounted view confirms its session is
// still signed in.
const sessionCheckInterval = 30 * time.Second

// ErrUnmounted is returned by operations on a view that is not mounted.
var ErrUnmounted = errors.New("view is not mounted")

// Session is the data service as seen by the signed-in browser session.
type Session interface {
	actions.Session
	Bookmarks(ctx context.Context) ([]domain.Bookmark, error)
	Subscribe(ctx context.Context, table, filter string) (feed.Subscription, error)
}

// Actions are the mutation handlers a view calls.
type Actions interface {
	AddBookmark(ctx context.Context, s actions.Session, title, url string) (*domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, s actions.Session, id string) error
}

// View is the live bookmark list of one browser session. List state is
// owned by a single loop goroutine: change events and user commands are
// applied one at a time in arrival order.
type View struct {
	session Session
	actions Actions
	sink    Sink
	logger  logger.Logger

	list *List
	form *Form

	checkEvery time.Duration

	cmds    chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	sub     feed.Subscription
	mounted atomic.Bool
	once    sync.Once
}

// NewView builds an empty view. Nothing runs until Mount.
func NewView(session Session, acts Actions, sink Sink, log logger.Logger) *View {
	v := &View{
		session:    session,
		actions:    acts,
		sink:       sink,
		logger:     log,
		list:       NewList(nil),
		checkEvery: sessionCheckInterval,
		cmds:       make(chan func()),
		done:       make(chan struct{}),
	}
	v.form = NewForm(func(st FormState) { v.send(newFormFrame(st)) })
	return v
}

// CheckSessionEvery changes how often the mounted view confirms that its
// session is still signed in. Call it before Mount.
func (v *View) CheckSessionEvery(d time.Duration) {
	if d > 0 && !v.mounted.Load() {
		v.checkEvery = d
	}
}

// Mount subscribes to bookmark changes, then seeds the list from a fresh
// snapshot and starts the view loop. Changes committed while the snapshot
// loads are buffered by the subscription and replayed on top of it, which
// is harmless: INSERTs of listed rows replace them, DELETEs and UPDATEs of
// absent rows are no-ops. The initial list and form frames are pushed
// before it returns.
func (v *View) Mount(ctx context.Context) error {
	if v.mounted.Load() {
		return errors.New("view already mounted")
	}
	v.ctx, v.cancel = context.WithCancel(ctx)

	sub, err := v.session.Subscribe(v.ctx, domain.TableBookmarks, domain.EventAll)
	if err != nil {
		v.cancel()
		return fmt.Errorf("subscribe to changes: %w", err)
	}
	snapshot, err := v.session.Bookmarks(v.ctx)
	if err != nil {
		v.cancel()
		_ = sub.Close()
		return fmt.Errorf("load snapshot: %w", err)
	}
	v.list = NewList(snapshot)
	v.sub = sub
	v.mounted.Store(true)

	v.send(newListFrame("", v.list.Items()))
	v.send(newFormFrame(v.form.State()))

	go v.loop(sub.Events())
	return nil
}

// Unmount stops the loop and closes the subscription. Once it returns no
// event or pending request changes the view anymore. It is safe to call
// more than once.
func (v *View) Unmount() {
	if !v.mounted.Load() {
		return
	}
	v.once.Do(func() {
		v.cancel()
		<-v.done
		if err := v.sub.Close(); err != nil {
			v.logger.Debug("closing subscription", logger.Error(err))
		}
	})
}

// Done is closed when the view loop has exited.
func (v *View) Done() <-chan struct{} {
	return v.done
}

func (v *View) loop(events <-chan domain.ChangeEvent) {
	defer close(v.done)

	check := time.NewTicker(v.checkEvery)
	defer check.Stop()

	for {
		select {
		case <-v.ctx.Done():
			return

		case <-check.C:
			v.checkSession()

		case ev, ok := <-events:
			if !ok {
				if v.ctx.Err() != nil {
					return
				}
				// the feed dropped us; keep serving commands without live updates
				v.logger.Warn("change subscription ended")
				v.send(newErrorFrame("Live updates stopped. Reload the page to resume."))
				events = nil
				continue
			}
			if v.list.Apply(ev) {
				v.send(newListFrame(ev.ID, v.list.Items()))
			}

		case cmd := <-v.cmds:
			cmd()
		}
	}
}

// checkSession ends the view when its session was signed out or expired.
// Lookup failures other than that keep the view running.
func (v *View) checkSession() {
	ctx, cancel := context.WithTimeout(v.ctx, requestTimeout)
	defer cancel()
	_, err := v.session.User(ctx)
	switch {
	case err == nil, v.ctx.Err() != nil:
	case errors.Is(err, domain.ErrUnauthenticated):
		v.expire()
	default:
		v.logger.Debug("session check failed", logger.Error(err))
	}
}

// expire tells the browser the session is over and stops the loop. The
// owner of the connection sees Done close and tears the view down.
func (v *View) expire() {
	v.logger.Info("session ended, closing live view")
	v.send(newErrorFrame("Your session has ended. Sign in again."))
	v.cancel()
}

// do hands cmd to the loop.
func (v *View) do(cmd func()) error {
	if !v.mounted.Load() {
		return ErrUnmounted
	}
	select {
	case v.cmds <- cmd:
		return nil
	case <-v.ctx.Done():
		return ErrUnmounted
	}
}

// post is do for callers that outlive the view; after unmount cmd is dropped.
func (v *View) post(cmd func()) {
	_ = v.do(cmd)
}

// Items returns the current list. After unmount it returns the final state.
func (v *View) Items() []domain.Bookmark {
	if !v.mounted.Load() {
		return v.list.Items()
	}
	res := make(chan []domain.Bookmark, 1)
	if err := v.do(func() { res <- v.list.Items() }); err != nil {
		<-v.done
		return v.list.Items()
	}
	return <-res
}

// Form returns the current form state.
func (v *View) Form() FormState {
	return v.form.State()
}

// Delete removes id from the list right away, then asks the server to
// delete it. If the server refuses, the bookmark is put back where it was
// and an error frame is pushed.
func (v *View) Delete(id string) error {
	return v.do(func() {
		b, idx, ok := v.list.Remove(id)
		if !ok {
			return
		}
		v.send(newListFrame("", v.list.Items()))

		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(v.ctx), requestTimeout)
			defer cancel()

			err := v.actions.DeleteBookmark(ctx, v.session, id)
			if err == nil {
				return
			}
			v.post(func() {
				if errors.Is(err, domain.ErrUnauthenticated) {
					v.expire()
					return
				}
				if v.list.Restore(b, idx) {
					v.send(newListFrame("", v.list.Items()))
				}
				v.send(newErrorFrame(fmt.Sprintf("Could not delete %q: %s", b.Title, userMessage(err))))
			})
		}()
	})
}

// Submit sends the creation form. It blocks until the insert finished; the
// new row shows up through its INSERT event.
func (v *View) Submit(ctx context.Context, title, url string) error {
	if !v.mounted.Load() || v.ctx.Err() != nil {
		return ErrUnmounted
	}
	err := v.form.Submit(ctx, title, url, func(ctx context.Context, title, url string) (*domain.Bookmark, error) {
		return v.actions.AddBookmark(ctx, v.session, title, url)
	})
	switch {
	case err == nil, errors.Is(err, ErrBusy):
	case errors.Is(err, domain.ErrUnauthenticated):
		v.post(v.expire)
	default:
		v.send(newErrorFrame("Could not add bookmark: " + userMessage(err)))
	}
	return err
}

// Handle dispatches a browser operation.
func (v *View) Handle(ctx context.Context, op Op) error {
	switch op.Op {
	case OpAdd:
		return v.Submit(ctx, op.Title, op.URL)
	case OpDelete:
		return v.Delete(op.ID)
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
}

func (v *View) send(frame any) {
	if err := v.sink.Send(frame); err != nil {
		v.logger.Debug("dropping frame", logger.Error(err))
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "it no longer exists"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "your session has ended"
	case errors.Is(err, domain.ErrInvalidURL):
		return "the link must start with http:// or https://"
	case errors.Is(err, context.DeadlineExceeded):
		return "the server took too long"
	default:
		return "please try again"
	}
}
