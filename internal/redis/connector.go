package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

// ConnectOptions defines the Redis client and its connect retry behavior.
type ConnectOptions struct {
	Addr           string        // Redis address (ex: "localhost:6379")
	User           string        // Optional username
	Password       string        // Optional password
	RedisDB        int           // Redis DB number
	DialTimeout    time.Duration // Redis dial timeout
	ReadTimeout    time.Duration // Redis read timeout
	WriteTimeout   time.Duration // Redis write timeout
	PoolSize       int           // Redis connection pool size
	ConnectTimeout time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	MaxWait        time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 2s)
	WarnThreshold  int           // warn after this many attempts
}

// RetryPolicy returns the connect retry settings. The database reuses them
// with its own total timeout.
func (o ConnectOptions) RetryPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		InitialWait: o.RetryInterval,
		MaxWait:     o.MaxWait,
		PingTimeout: o.PingTimeout,
		Total:       o.ConnectTimeout,
		WarnAfter:   o.WarnThreshold,
	}
}

// Dial creates a Redis client and pings it with exponential backoff until
// ConnectTimeout elapses or ctx is cancelled. Sessions, the page cache and the
// change feed all share the returned client.
func Dial(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := utils.WaitReady(ctx, "redis", opts.Addr, ping, opts.RetryPolicy(), log); err != nil {
		utils.Close(client)
		return nil, err
	}
	return client, nil
}
