package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Source yields the entries to import.
type Source interface {
	Load() ([]domain.BookmarkInput, error)
}

// Target stores imported entries for an account.
type Target interface {
	Import(ctx context.Context, email string, entries []domain.BookmarkInput) (int, error)
}

// Importer periodically copies Homepage links into the owner's bookmarks.
type Importer struct {
	source        Source
	target        Target
	owner         string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	started       atomic.Bool
	done          chan struct{}
	manualTrigger chan struct{}

	mu        sync.RWMutex
	lastRun   time.Time
	lastAdded int
	lastErr   error
}

// NewImporter creates an importer. manualTrigger may be nil.
func NewImporter(
	source Source,
	target Target,
	owner string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Importer {
	return &Importer{
		source:        source,
		target:        target,
		owner:         owner,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs an import immediately and then every interval or on manual
// trigger. A failed first run is logged, the owner may not have signed up
// yet.
func (im *Importer) Start(ctx context.Context) {
	if err := im.Run(ctx); err != nil {
		im.logger.Warn("initial import failed", logger.Error(err))
	}

	ticker := time.NewTicker(im.interval)
	im.started.Store(true)
	go func() {
		defer close(im.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := im.Run(ctx); err != nil {
					im.logger.Error("failed to import bookmarks", logger.Error(err))
				}
			case <-im.manualTrigger:
				im.logger.Info("manual import triggered")
				if err := im.Run(ctx); err != nil {
					im.logger.Error("failed to import bookmarks", logger.Error(err))
				}
			case <-im.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the importer and waits for a running import to finish.
func (im *Importer) Stop() {
	im.stopOnce.Do(func() { close(im.stopCh) })
	if im.started.Load() {
		<-im.done
	}
}

// Run performs one import.
func (im *Importer) Run(ctx context.Context) error {
	added, err := im.run(ctx)

	im.mu.Lock()
	im.lastRun = time.Now()
	im.lastAdded = added
	im.lastErr = err
	im.mu.Unlock()

	return err
}

func (im *Importer) run(ctx context.Context) (int, error) {
	entries, err := im.source.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load homepage links: %w", err)
	}
	im.logger.Debug("loaded homepage links", logger.Int("count", len(entries)))

	added, err := im.target.Import(ctx, im.owner, entries)
	if err != nil {
		return added, fmt.Errorf("failed to import bookmarks: %w", err)
	}

	im.logger.Info("homepage import finished",
		logger.Int("links", len(entries)),
		logger.Int("added", added))
	return added, nil
}

func (im *Importer) LastRun() time.Time {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.lastRun
}

func (im *Importer) LastAdded() int {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.lastAdded
}

func (im *Importer) LastError() error {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.lastErr
}
