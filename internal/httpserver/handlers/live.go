package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/live"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsMaxMessage   = 8 << 10
)

// wsSink writes frames to a websocket. gorilla connections allow one
// concurrent writer, hence the mutex.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(frame any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(frame)
}

func (s *wsSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
	_ = s.conn.Close()
}

func (s *wsSink) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// checkOrigin accepts same-host origins and, when configured, the allowed
// hosts.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // not a browser
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if len(allowed) > 0 {
			return mw.HostAllowed(u.Host, allowed)
		}
		return u.Host == r.Host
	}
}

// Live upgrades to a websocket and mounts a live view for the session
// until the socket closes.
func Live(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(d.AllowedHosts),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		client := mw.ClientFrom(r.Context())
		user := mw.UserFrom(r.Context())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return // Upgrade already replied
		}
		defer func() { _ = conn.Close() }()

		log := d.Logger.With(logger.String("user_id", user.ID))
		sink := &wsSink{conn: conn}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		view := live.NewView(client, d.Actions, sink, log)
		if d.LiveSessionCheck > 0 {
			view.CheckSessionEvery(d.LiveSessionCheck)
		}
		if err := view.Mount(ctx); err != nil {
			log.Error("failed to mount live view", logger.Error(err))
			_ = sink.Send(live.ErrorFrame{Type: live.FrameError, Message: "Live updates are unavailable."})
			return
		}
		defer view.Unmount()
		if d.LiveViews != nil {
			d.LiveViews.Add(1)
			defer d.LiveViews.Add(-1)
		}
		log.Debug("live view mounted")

		go keepAlive(ctx, view.Done(), sink, log)

		conn.SetReadLimit(wsMaxMessage)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		})

		ops := newOpDispatcher(view, sink, log)
		for {
			var op live.Op
			if err := conn.ReadJSON(&op); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("live connection closed", logger.Error(err))
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
			ops.dispatch(ctx, op)
		}
	}
}

const busyMessage = "Still saving the previous bookmark."

// opHandler is the part of live.View the read loop drives.
type opHandler interface {
	Handle(ctx context.Context, op live.Op) error
}

// opDispatcher runs browser ops for one socket. At most one submit is in
// flight; a second one is answered with a busy frame without spawning
// anything. Other ops only queue work on the view loop and run inline.
type opDispatcher struct {
	view       opHandler
	sink       live.Sink
	log        logger.Logger
	submitting chan struct{}
}

func newOpDispatcher(view opHandler, sink live.Sink, log logger.Logger) *opDispatcher {
	return &opDispatcher{view: view, sink: sink, log: log, submitting: make(chan struct{}, 1)}
}

func (o *opDispatcher) dispatch(ctx context.Context, op live.Op) {
	if op.Op != live.OpAdd {
		o.handle(ctx, op)
		return
	}
	select {
	case o.submitting <- struct{}{}:
		// a submit blocks until the insert finished, keep reading meanwhile
		go func() {
			defer func() { <-o.submitting }()
			o.handle(ctx, op)
		}()
	default:
		o.busy()
	}
}

func (o *opDispatcher) handle(ctx context.Context, op live.Op) {
	err := o.view.Handle(ctx, op)
	switch {
	case err == nil, errors.Is(err, live.ErrUnmounted):
	case errors.Is(err, live.ErrBusy):
		o.busy()
	default:
		o.log.Debug("live op failed", logger.String("op", op.Op), logger.Error(err))
	}
}

func (o *opDispatcher) busy() {
	_ = o.sink.Send(live.ErrorFrame{Type: live.FrameError, Message: busyMessage})
}

// keepAlive pings the browser until ctx ends or the view stops (for
// example after sign-out), then closes the socket so the read loop returns.
func keepAlive(ctx context.Context, viewDone <-chan struct{}, sink *wsSink, log logger.Logger) {
	t := time.NewTicker(wsPingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			sink.close()
			return
		case <-viewDone:
			sink.close()
			return
		case <-t.C:
			if err := sink.ping(); err != nil {
				log.Debug("websocket ping failed", logger.Error(err))
				return
			}
		}
	}
}
