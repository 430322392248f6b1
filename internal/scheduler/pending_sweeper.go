package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

// DefaultSweepInterval is how often expired pending actions are purged
const DefaultSweepInterval = 5 * time.Minute

// PendingPurger drops pending action slots whose TTL has elapsed. Redis
// expires keys by itself; the memory store needs the sweep.
type PendingPurger interface {
	PurgeExpiredPending(ctx context.Context, now time.Time) (int, error)
}

// PendingSweeper handles cleanup of abandoned deferred actions
type PendingSweeper struct {
	store    PendingPurger
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewPendingSweeper creates a new pending action sweeper
func NewPendingSweeper(
	store PendingPurger,
	log logger.Logger,
	interval time.Duration,
) *PendingSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &PendingSweeper{
		store:    store,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (ps *PendingSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(ps.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := ps.Sweep(ctx); err != nil {
					ps.logger.Error("pending action sweep failed",
						logger.Error(err))
				}
			case <-ps.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the sweeper
func (ps *PendingSweeper) Stop() {
	close(ps.stopCh)
}

// Sweep removes every expired slot
func (ps *PendingSweeper) Sweep(ctx context.Context) error {
	purged, err := ps.store.PurgeExpiredPending(ctx, time.Now())
	if err != nil {
		return err
	}

	if purged > 0 {
		ps.logger.Info("expired pending actions purged",
			logger.Int("count", purged))
	} else {
		ps.logger.Debug("no expired pending actions")
	}
	return nil
}
