package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/registry"
)

// CatalogSyncer seeds the registry from the cache on startup
type CatalogSyncer struct {
	cache    CatalogCache
	registry *registry.Registry
	logger   logger.Logger
}

// NewCatalogSyncer creates a new catalog syncer
func NewCatalogSyncer(
	cache CatalogCache,
	reg *registry.Registry,
	log logger.Logger,
) *CatalogSyncer {
	return &CatalogSyncer{
		cache:    cache,
		registry: reg,
		logger:   log,
	}
}

// Sync installs the cached catalog, if any, ahead of the first file load
func (cs *CatalogSyncer) Sync(ctx context.Context) error {
	cs.logger.Info("syncing platform catalog from cache")

	platforms, err := cs.cache.FetchPlatforms(ctx)
	if err != nil {
		return err
	}

	if len(platforms) == 0 {
		cs.logger.Info("no platform catalog found in cache")
		return nil
	}

	cs.registry.Replace(platforms, registry.SourceCached)

	cs.logger.Info("synced platform catalog from cache",
		logger.Int("count", len(platforms)))

	return nil
}
