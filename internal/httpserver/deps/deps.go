package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/qrcard/internal/binding"
	"github.com/MrSnakeDoc/qrcard/internal/deferred"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/metrics"
	"github.com/MrSnakeDoc/qrcard/internal/profile"
	"github.com/MrSnakeDoc/qrcard/internal/registry"
	"github.com/MrSnakeDoc/qrcard/internal/scanlog"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to access the server
	AdminCIDRS   []string // IPs allowed on admin, infra and reload routes
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Registry  *registry.Registry // Platform catalog
	Codes     *binding.Service   // Code lifecycle
	Profiles  *profile.Service   // Directory editing
	Deferred  *deferred.Protocol // Intent carried across authentication
	Scans     *scanlog.Log       // Scan event log
	Inventory scanlog.Inventory  // Codes and owners for the admin overview
	Store     Pinger             // Readiness probe target
	Metrics   *metrics.Metrics   // Prometheus collectors
	StoreKind string             // "redis" | "memory", reported by /infra

	PublicBaseURL     string        // Absolute base for code links
	SessionCookie     string        // Cookie name carrying the deferred action session
	SecureCookie      bool          // Mark the session cookie Secure
	PendingTTL        time.Duration // Session cookie lifetime
	ScanRateBurst     int           // Scan burst per client IP
	ScanRatePerMinute int           // Scan refill per client IP per minute
	ReloadTrigger     chan struct{} // Channel to trigger manual catalog reload
}
