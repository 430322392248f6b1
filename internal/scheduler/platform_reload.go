package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/registry"
)

// CatalogCache keeps the last good catalog across restarts.
type CatalogCache interface {
	SavePlatforms(ctx context.Context, platforms []domain.Platform) error
	FetchPlatforms(ctx context.Context) ([]domain.Platform, error)
}

// PlatformReloader handles periodic reloading of the platform catalog
type PlatformReloader struct {
	registry      *registry.Registry
	cache         CatalogCache
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	onReload      func(source registry.Source, count int)
}

// NewPlatformReloader creates a new platform reloader. cache may be nil.
func NewPlatformReloader(
	reg *registry.Registry,
	cache CatalogCache,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *PlatformReloader {
	return &PlatformReloader{
		registry:      reg,
		cache:         cache,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// OnReload registers a callback run after every reload, e.g. to export the
// catalog size.
func (pr *PlatformReloader) OnReload(fn func(source registry.Source, count int)) {
	pr.onReload = fn
}

// Start loads the catalog once, then keeps reloading it until Stop or ctx
// is done. A zero interval only honours manual triggers.
func (pr *PlatformReloader) Start(ctx context.Context) {
	pr.Reload(ctx)

	var tick <-chan time.Time
	if pr.interval > 0 {
		ticker := time.NewTicker(pr.interval)
		tick = ticker.C
		go func() {
			<-pr.stopCh
			ticker.Stop()
		}()
	}

	go func() {
		for {
			select {
			case <-tick:
				pr.Reload(ctx)
			case <-pr.manualTrigger:
				pr.logger.Info("manual reload triggered")
				pr.Reload(ctx)
			case <-pr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the reloader
func (pr *PlatformReloader) Stop() {
	close(pr.stopCh)
}

// Reload refreshes the registry from its fetcher. A freshly fetched catalog
// is written to the cache; when the fetch fails the cached catalog is
// preferred over the built-in fallback, which never overwrites the cache.
func (pr *PlatformReloader) Reload(ctx context.Context) registry.Source {
	pr.logger.Info("reloading platform catalog")

	platforms := pr.registry.Load(ctx)
	source := pr.registry.Source()
	if source == registry.SourceFallback && pr.cache != nil {
		platforms, source = pr.restoreCached(ctx, platforms)
	}
	if pr.onReload != nil {
		pr.onReload(source, len(platforms))
	}

	if source != registry.SourceFetched || pr.cache == nil {
		return source
	}

	// Best effort: the registry already serves the new catalog
	if err := pr.cache.SavePlatforms(ctx, platforms); err != nil {
		pr.logger.Warn("failed to cache platform catalog",
			logger.Error(err))
	} else {
		pr.logger.Info("platform catalog cached",
			logger.Int("count", len(platforms)))
	}
	return source
}

func (pr *PlatformReloader) restoreCached(ctx context.Context, fallback []domain.Platform) ([]domain.Platform, registry.Source) {
	cached, err := pr.cache.FetchPlatforms(ctx)
	if err != nil {
		pr.logger.Warn("failed to read cached platform catalog",
			logger.Error(err))
		return fallback, registry.SourceFallback
	}
	if len(cached) == 0 {
		return fallback, registry.SourceFallback
	}

	pr.logger.Info("serving cached platform catalog",
		logger.Int("count", len(cached)))
	return pr.registry.Replace(cached, registry.SourceCached), registry.SourceCached
}
