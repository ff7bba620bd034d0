package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// RetryPolicy bounds how long a backing service may take to come up.
type RetryPolicy struct {
	InitialWait time.Duration // first wait between attempts, doubles each retry
	MaxWait     time.Duration // cap on the wait between attempts
	PingTimeout time.Duration // timeout of a single attempt
	Total       time.Duration // give up after this long
	WarnAfter   int           // attempts logged as warnings before switching to errors
}

func (p RetryPolicy) Validate() error {
	switch {
	case p.Total <= 0:
		return fmt.Errorf("connect timeout must be > 0, got %v", p.Total)
	case p.InitialWait <= 0:
		return fmt.Errorf("retry interval must be > 0, got %v", p.InitialWait)
	case p.MaxWait <= 0:
		return fmt.Errorf("max wait must be > 0, got %v", p.MaxWait)
	case p.PingTimeout <= 0:
		return fmt.Errorf("ping timeout must be > 0, got %v", p.PingTimeout)
	case p.WarnAfter < 0:
		return fmt.Errorf("warn threshold must be >= 0, got %d", p.WarnAfter)
	}
	return nil
}

// WaitReady calls ping with exponential backoff until it succeeds, ctx is
// cancelled or the policy's total timeout elapses. component and target
// only label the log lines.
func WaitReady(ctx context.Context, component, target string, ping func(context.Context) error, p RetryPolicy, log logger.Logger) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", component, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Total)
	defer cancel()

	log = log.With(logger.String("component", component), logger.String("addr", target))
	log.Info("connecting", logger.Duration("timeout", p.Total))

	start := time.Now()
	wait := p.InitialWait
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, p.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected after retry",
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected")
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("unavailable - giving up",
				logger.Int("attempts", attempt),
				logger.Duration("timeout", p.Total),
				logger.Error(err))
			return fmt.Errorf("%s unavailable at %s after %d attempts (timeout: %v): %w",
				component, target, attempt, p.Total, err)

		case <-timer.C:
			logRetry(log, attempt, timeLeft(ctx), wait, p.WarnAfter, err)
			wait *= 2
			if wait > p.MaxWait {
				wait = p.MaxWait
			}
		}
	}
}

func logRetry(log logger.Logger, attempt int, remaining, next time.Duration, warnAfter int, err error) {
	fields := []logger.Field{
		logger.Int("attempt", attempt),
		logger.Duration("next_retry_in", next),
		logger.Error(err),
	}
	switch {
	case remaining < 10*time.Second:
		log.Error("still down - retrying but timeout approaching",
			append(fields, logger.Duration("remaining", remaining))...)
	case attempt <= warnAfter:
		log.Warn("connection failed, retrying", fields...)
	default:
		log.Error("still unavailable - connection attempts failing", fields...)
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
