package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

// ErrEmptyCatalog is returned by fetchers that found nothing usable.
var ErrEmptyCatalog = errors.New("platform catalog is empty")

// Fetcher is the registry collaborator. It may fail; the registry falls back
// to the built-in catalog.
type Fetcher interface {
	FetchPlatforms(ctx context.Context) ([]domain.Platform, error)
}

// Source describes where the active catalog came from.
type Source string

const (
	SourceFetched  Source = "fetched"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)

// Registry holds the read-only platform catalog. Other components only read
// it; Load swaps the whole catalog at once.
type Registry struct {
	fetcher Fetcher
	logger  logger.Logger

	mu         sync.RWMutex
	platforms  []domain.Platform
	byID       map[string]domain.Platform
	source     Source
	lastReload time.Time
}

// New returns a registry already holding the fallback catalog, so lookups
// never see an empty catalog even before the first Load.
func New(fetcher Fetcher, log logger.Logger) *Registry {
	r := &Registry{fetcher: fetcher, logger: log}
	r.install(Fallback(), SourceFallback)
	return r
}

// Load fetches the catalog. On failure or an empty result the fallback list
// is installed instead; the returned slice is never empty.
func (r *Registry) Load(ctx context.Context) []domain.Platform {
	if r.fetcher == nil {
		return r.Replace(Fallback(), SourceFallback)
	}

	platforms, err := r.fetcher.FetchPlatforms(ctx)
	if err == nil && len(platforms) == 0 {
		err = ErrEmptyCatalog
	}
	if err != nil {
		r.logger.Warn("platform catalog unavailable, using built-in fallback",
			logger.Error(err))
		return r.Replace(Fallback(), SourceFallback)
	}

	r.logger.Info("platform catalog loaded",
		logger.Int("count", len(platforms)))
	return r.Replace(platforms, SourceFetched)
}

// Replace installs platforms directly, e.g. from the Redis cache at startup.
// An empty list is ignored.
func (r *Registry) Replace(platforms []domain.Platform, source Source) []domain.Platform {
	if len(platforms) == 0 {
		return r.All()
	}
	r.install(platforms, source)
	return r.All()
}

func (r *Registry) install(platforms []domain.Platform, source Source) {
	byID := make(map[string]domain.Platform, len(platforms))
	ordered := make([]domain.Platform, 0, len(platforms))
	for _, p := range platforms {
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = p
		ordered = append(ordered, p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms = ordered
	r.byID = byID
	r.source = source
	r.lastReload = time.Now()
}

// Find looks a platform up by id.
func (r *Registry) Find(id string) (domain.Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	return p, ok
}

// All returns the catalog in its configured order.
func (r *Registry) All() []domain.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.Platform(nil), r.platforms...)
}

// Count returns the number of platforms in the catalog.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.platforms)
}

// Source reports whether the catalog was fetched or is the fallback.
func (r *Registry) Source() Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.source
}

// LastReload returns when the catalog was last swapped.
func (r *Registry) LastReload() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastReload
}
