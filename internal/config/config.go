package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store kinds.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout (ex: 5s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store             string        // "redis" | "memory"
	PlatformFile      string        // path to platforms.yaml (empty = built-in catalog only)
	ReloadInterval    time.Duration // interval to reload platforms.yaml (default: 24h)
	PendingTTL        time.Duration // lifetime of a stashed deferred action (default: 30m)
	SweepInterval     time.Duration // memory store: purge expired deferred actions (default: 5m)
	SessionCookie     string        // cookie carrying the deferred action session id
	SecureCookie      bool          // mark the session cookie Secure
	PublicBaseURL     string        // ex: https://card.domain.ext, used to build absolute code links
	CodeLength        int           // length of generated codes (6-12)
	ScanRateBurst     int           // scans allowed in a burst per client IP
	ScanRatePerMinute int           // scan tokens refilled per client IP per minute

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // restrict access to specific Host headers
	AdminCIDRS   []string // optional, restrict admin and infra routes to these IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("QRCARD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("QRCARD_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("QRCARD_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("QRCARD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("QRCARD_PRETTY_LOG", true),

		// Core
		Store:             strings.ToLower(getenv("QRCARD_STORE", StoreRedis)),
		PlatformFile:      getenv("QRCARD_PLATFORM_FILE", ""),
		ReloadInterval:    mustDuration("QRCARD_RELOAD_INTERVAL", 24*time.Hour),
		PendingTTL:        mustDuration("QRCARD_PENDING_TTL", 30*time.Minute),
		SweepInterval:     mustDuration("QRCARD_SWEEP_INTERVAL", 5*time.Minute),
		SessionCookie:     getenv("QRCARD_SESSION_COOKIE", "qrcard_pending"),
		SecureCookie:      mustBool("QRCARD_SECURE_COOKIE", true),
		PublicBaseURL:     strings.TrimRight(requireEnv("QRCARD_PUBLIC_BASE_URL"), "/"),
		CodeLength:        getenvInt("QRCARD_CODE_LENGTH", 8),
		ScanRateBurst:     getenvInt("QRCARD_SCAN_RATE_BURST", 30),
		ScanRatePerMinute: getenvInt("QRCARD_SCAN_RATE_PER_MINUTE", 60),

		// Access restrictions
		AllowedHosts: requireEnvSlice("QRCARD_ALLOWED_HOSTS"),
		AdminCIDRS:   parseAllowedIPs(getenv("QRCARD_ADMIN_CIDRS", "")),
		TrustProxy:   mustBool("QRCARD_TRUST_PROXY", true),
	}

	switch cfg.Store {
	case StoreRedis:
		loadRedis(cfg)
	case StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: QRCARD_STORE must be %q or %q, got %q", StoreRedis, StoreMemory, cfg.Store))
	}

	if cfg.CodeLength < 6 || cfg.CodeLength > 12 {
		panic(fmt.Sprintf("❌ FATAL: QRCARD_CODE_LENGTH must be between 6 and 12, got %d", cfg.CodeLength))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadRedis reads the Redis settings, only required when Store is redis.
func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("QRCARD_REDIS_ADDR")
	cfg.RedisUser = getenv("QRCARD_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("QRCARD_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("QRCARD_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("QRCARD_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: QRCARD_REDIS_PASSWORD is required when QRCARD_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func requireEnvSlice(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return splitAndTrim(v)
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
