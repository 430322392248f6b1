package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/qrcard/internal/binding"
	"github.com/MrSnakeDoc/qrcard/internal/config"
	"github.com/MrSnakeDoc/qrcard/internal/deferred"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/metrics"
	"github.com/MrSnakeDoc/qrcard/internal/profile"
	"github.com/MrSnakeDoc/qrcard/internal/redis"
	"github.com/MrSnakeDoc/qrcard/internal/registry"
	"github.com/MrSnakeDoc/qrcard/internal/scanlog"
	"github.com/MrSnakeDoc/qrcard/internal/scheduler"
	"github.com/MrSnakeDoc/qrcard/internal/sources/platforms"
	"github.com/MrSnakeDoc/qrcard/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/qrcard/internal/store/redis"
	"github.com/MrSnakeDoc/qrcard/internal/utils"
	"github.com/MrSnakeDoc/qrcard/internal/version"
)

// backend is everything the services need from a storage collaborator.
type backend interface {
	binding.Store
	profile.Store
	scanlog.Store
	scanlog.Inventory
	deferred.SlotStore
	scheduler.CatalogCache
	deps.Pinger
}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	registry    *registry.Registry
	reloader    *scheduler.PlatformReloader
	sweeper     *scheduler.PendingSweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	var (
		store       backend
		redisClient *goredis.Client
		sweeper     *scheduler.PendingSweeper
	)
	switch cfg.Store {
	case config.StoreMemory:
		loggerClient.Warn("using in-memory store, data is lost on restart")
		mem := memory.NewStore()
		store = mem
		sweeper = scheduler.NewPendingSweeper(mem, loggerClient, cfg.SweepInterval)
	default:
		// Initialize Redis early - fail fast if unavailable
		var err error
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		store = redisstore.NewStore(redisClient)
	}

	// Platform catalog: file when configured, built-in fallback otherwise
	var fetcher registry.Fetcher
	if cfg.PlatformFile != "" {
		fetcher = platforms.NewLoader(cfg.PlatformFile)
	} else {
		loggerClient.Info("no platform file configured, serving the built-in catalog")
	}
	reg := registry.New(fetcher, loggerClient)

	// Seed from the last good catalog before the first file load
	syncer := scheduler.NewCatalogSyncer(store, reg, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to sync platform catalog from cache",
			logger.Error(err))
	}

	m := metrics.New()

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewPlatformReloader(
		reg,
		store,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)
	reloader.OnReload(func(source registry.Source, count int) {
		m.Catalog(string(source), count)
	})

	codes := binding.NewService(store, loggerClient, cfg.CodeLength)
	profiles := profile.NewService(store, reg, loggerClient)
	scans := scanlog.New(store, loggerClient)
	protocol := deferred.New(store, codes, loggerClient, cfg.PendingTTL)

	if len(cfg.AdminCIDRS) == 0 {
		loggerClient.Warn("QRCARD_ADMIN_CIDRS is empty, admin routes are not IP restricted")
	}

	// Dependencies passed to routes
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		AllowedHosts:      cfg.AllowedHosts,
		AdminCIDRS:        cfg.AdminCIDRS,
		TrustProxy:        cfg.TrustProxy,
		Registry:          reg,
		Codes:             codes,
		Profiles:          profiles,
		Deferred:          protocol,
		Scans:             scans,
		Inventory:         store,
		Store:             store,
		Metrics:           m,
		StoreKind:         cfg.Store,
		PublicBaseURL:     cfg.PublicBaseURL,
		SessionCookie:     cfg.SessionCookie,
		SecureCookie:      cfg.SecureCookie,
		PendingTTL:        cfg.PendingTTL,
		ScanRateBurst:     cfg.ScanRateBurst,
		ScanRatePerMinute: cfg.ScanRatePerMinute,
		ReloadTrigger:     reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		registry:    reg,
		reloader:    reloader,
		sweeper:     sweeper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting qrcard v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("qrcard %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start platform reloader (loads the catalog and starts periodic refresh)
	a.reloader.Start(ctx)
	a.logger.Info("platform reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval),
		logger.String("source", string(a.registry.Source())),
		logger.Int("platforms", a.registry.Count()))

	if a.sweeper != nil {
		a.sweeper.Start(ctx)
		a.logger.Info("pending action sweeper started",
			logger.Duration("interval", a.cfg.SweepInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	a.logger.Info("✅ qrcard stopped cleanly")
	return nil
}
