package config

import (
	"reflect"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QRCARD_PUBLIC_BASE_URL", "https://card.domain.ext/")
	t.Setenv("QRCARD_ALLOWED_HOSTS", "card.domain.ext, localhost:8080")
	t.Setenv("QRCARD_LOG_LEVEL", "error")
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("%s should have panicked", name)
		}
	}()
	fn()
}

func TestLoadMemoryStore(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("QRCARD_STORE", "Memory")
	t.Setenv("QRCARD_CODE_LENGTH", "10")
	t.Setenv("QRCARD_PENDING_TTL", "15m")
	t.Setenv("QRCARD_ADMIN_CIDRS", "10.0.0.0/8, '192.168.1.4'")

	cfg := Load()

	if cfg.Store != StoreMemory {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreMemory)
	}
	if cfg.PublicBaseURL != "https://card.domain.ext" {
		t.Errorf("PublicBaseURL = %q, trailing slash should be trimmed", cfg.PublicBaseURL)
	}
	if cfg.CodeLength != 10 {
		t.Errorf("CodeLength = %d, want 10", cfg.CodeLength)
	}
	if cfg.PendingTTL != 15*time.Minute {
		t.Errorf("PendingTTL = %v, want 15m", cfg.PendingTTL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, redis settings should not load for the memory store", cfg.RedisAddr)
	}
	wantCIDRs := []string{"10.0.0.0/8", "192.168.1.4"}
	if !reflect.DeepEqual(cfg.AdminCIDRS, wantCIDRs) {
		t.Errorf("AdminCIDRS = %v, want %v", cfg.AdminCIDRS, wantCIDRs)
	}
	wantHosts := []string{"card.domain.ext", "localhost:8080"}
	if !reflect.DeepEqual(cfg.AllowedHosts, wantHosts) {
		t.Errorf("AllowedHosts = %v, want %v", cfg.AllowedHosts, wantHosts)
	}
}

func TestLoadRedisStore(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("QRCARD_REDIS_ADDR", "localhost:6379")
	t.Setenv("QRCARD_REDIS_DB", "2")
	t.Setenv("QRCARD_REDIS_PASSWORD", "s3cret")

	cfg := Load()

	if cfg.Store != StoreRedis {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreRedis)
	}
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %d, want 2", cfg.RedisDB)
	}
	if cfg.RedisPoolSize != 10 {
		t.Errorf("RedisPoolSize = %d, want default 10", cfg.RedisPoolSize)
	}
	if cfg.CodeLength != 8 {
		t.Errorf("CodeLength = %d, want default 8", cfg.CodeLength)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "redis password required",
			env: map[string]string{
				"QRCARD_REDIS_ADDR": "localhost:6379",
				"QRCARD_REDIS_DB":   "0",
			},
		},
		{
			name: "redis address missing",
			env:  map[string]string{"QRCARD_REDIS_DB": "0"},
		},
		{
			name: "unknown store",
			env:  map[string]string{"QRCARD_STORE": "postgres"},
		},
		{
			name: "code length out of range",
			env: map[string]string{
				"QRCARD_STORE":       "memory",
				"QRCARD_CODE_LENGTH": "4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			expectPanic(t, "Load()", func() { Load() })
		})
	}
}

func TestLoadRequiresPublicBaseURL(t *testing.T) {
	t.Setenv("QRCARD_STORE", "memory")
	t.Setenv("QRCARD_ALLOWED_HOSTS", "card.domain.ext")
	t.Setenv("QRCARD_PUBLIC_BASE_URL", "")

	expectPanic(t, "Load()", func() { Load() })
}

func TestRequireEnvInt(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expected  int
		wantPanic bool
	}{
		{name: "valid integer", value: "42", expected: 42},
		{name: "invalid integer", value: "not_a_number", wantPanic: true},
		{name: "missing variable", value: "", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QRCARD_TEST_INT", tt.value)

			if tt.wantPanic {
				expectPanic(t, "requireEnvInt()", func() { requireEnvInt("QRCARD_TEST_INT") })
				return
			}
			if got := requireEnvInt("QRCARD_TEST_INT"); got != tt.expected {
				t.Errorf("requireEnvInt() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "card.domain.ext", expected: []string{"card.domain.ext"}},
		{name: "spaces and quotes", input: ` "a" , 'b',c `, expected: []string{"a", "b", "c"}},
		{name: "empty parts dropped", input: "a,,b,", expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.input)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMustDurationAndBool(t *testing.T) {
	t.Setenv("QRCARD_TEST_DURATION", "90s")
	t.Setenv("QRCARD_TEST_BAD_DURATION", "soon")
	t.Setenv("QRCARD_TEST_BOOL", "false")
	t.Setenv("QRCARD_TEST_BAD_BOOL", "maybe")

	if got := mustDuration("QRCARD_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("mustDuration() = %v, want 90s", got)
	}
	if got := mustDuration("QRCARD_TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("mustDuration() with invalid value = %v, want default", got)
	}
	if got := mustBool("QRCARD_TEST_BOOL", true); got {
		t.Error("mustBool() = true, want false")
	}
	if got := mustBool("QRCARD_TEST_BAD_BOOL", true); !got {
		t.Error("mustBool() with invalid value should fall back to default")
	}
}
