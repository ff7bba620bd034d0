package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/feed"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Feed is a change feed on Redis pub/sub. Every instance of the app sees
// every change, so views stay in sync behind a load balancer.
type Feed struct {
	client *redis.Client
	buffer int
	logger logger.Logger
}

var _ feed.Feed = (*Feed)(nil)

// NewFeed creates a Redis-backed change feed
func NewFeed(client *redis.Client, buffer int, log logger.Logger) *Feed {
	if buffer <= 0 {
		buffer = feed.DefaultBufferSize
	}
	return &Feed{
		client: client,
		buffer: buffer,
		logger: log,
	}
}

// Publish sends ev on the owner's channel of its table
func (f *Feed) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	ev = feed.Stamp(ev)

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, ChangesChannel(ev.Table, ev.Owner), data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe listens to bookmark changes of owner. It returns once Redis has
// confirmed the subscription, so no event published afterwards is missed.
func (f *Feed) Subscribe(ctx context.Context, owner string) (feed.Subscription, error) {
	ps := f.client.Subscribe(ctx, ChangesChannel(domain.TableBookmarks, owner))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	sub := &pubsubSub{
		ps:   ps,
		out:  make(chan domain.ChangeEvent),
		done: make(chan struct{}),
	}
	go sub.pump(ps.Channel(redis.WithChannelSize(f.buffer)), f.logger)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

type pubsubSub struct {
	ps   *redis.PubSub
	out  chan domain.ChangeEvent
	done chan struct{}
	once sync.Once
}

func (s *pubsubSub) pump(msgs <-chan *redis.Message, log logger.Logger) {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("dropping malformed change event",
					logger.String("channel", msg.Channel),
					logger.Error(err))
				continue
			}
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}

func (s *pubsubSub) Events() <-chan domain.ChangeEvent { return s.out }

func (s *pubsubSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
