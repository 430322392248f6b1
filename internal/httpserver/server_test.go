package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/qrcard/internal/binding"
	"github.com/MrSnakeDoc/qrcard/internal/deferred"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/mw"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/metrics"
	"github.com/MrSnakeDoc/qrcard/internal/profile"
	"github.com/MrSnakeDoc/qrcard/internal/registry"
	"github.com/MrSnakeDoc/qrcard/internal/scanlog"
	"github.com/MrSnakeDoc/qrcard/internal/store/memory"
)

const (
	adminIP  = "10.0.0.5:4000"
	publicIP = "203.0.113.10:4000"
	cookie   = "qrcard_pending"
)

type harness struct {
	t       *testing.T
	router  chi.Router
	deps    deps.Deps
	store   *memory.Store
	trigger chan struct{}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()
	reg := registry.New(nil, log)
	codes := binding.NewService(store, log, 8)
	trigger := make(chan struct{}, 1)

	d := deps.Deps{
		Logger:            log,
		StartTime:         time.Now(),
		Version:           "test",
		AllowedHosts:      []string{"qr.example.com"},
		AdminCIDRS:        []string{"10.0.0.0/8"},
		Registry:          reg,
		Codes:             codes,
		Profiles:          profile.NewService(store, reg, log),
		Deferred:          deferred.New(store, codes, log, time.Minute),
		Scans:             scanlog.New(store, log),
		Inventory:         store,
		Store:             store,
		Metrics:           metrics.New(),
		StoreKind:         "memory",
		PublicBaseURL:     "https://qr.example.com",
		SessionCookie:     cookie,
		PendingTTL:        time.Minute,
		ScanRateBurst:     100,
		ScanRatePerMinute: 100,
		ReloadTrigger:     trigger,
	}
	return &harness{t: t, router: NewRouter(d, time.Second), deps: d, store: store, trigger: trigger}
}

type call struct {
	method  string
	path    string
	body    any
	owner   string
	remote  string
	cookies []*http.Cookie
}

func (h *harness) do(c call) *httptest.ResponseRecorder {
	h.t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(h.t, json.NewEncoder(&body).Encode(c.body))
	}
	r := httptest.NewRequest(c.method, c.path, &body)
	r.Host = "qr.example.com"
	r.RemoteAddr = publicIP
	if c.remote != "" {
		r.RemoteAddr = c.remote
	}
	if c.owner != "" {
		r.Header.Set(mw.OwnerHeader, c.owner)
	}
	for _, ck := range c.cookies {
		r.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *harness) createCode(code string) {
	h.t.Helper()
	rec := h.do(call{method: http.MethodPost, path: "/admin/codes", body: map[string]string{"code": code}, remote: adminIP})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestScanToLinkAfterRegistration(t *testing.T) {
	h := newHarness(t)
	h.createCode("ABC123")

	rec := h.do(call{method: http.MethodGet, path: "/c/ABC123"})
	require.Equal(t, http.StatusOK, rec.Code)
	scan := decode[map[string]any](t, rec)
	assert.Equal(t, false, scan["bound"])
	assert.Equal(t, "/register?code=ABC123", scan["register"])
	assert.Equal(t, "https://qr.example.com/c/ABC123", scan["url"])

	rec = h.do(call{method: http.MethodPost, path: "/pending", body: map[string]string{"kind": "link", "code": "ABC123"}})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = h.do(call{method: http.MethodPost, path: "/auth/complete", owner: "new-owner", cookies: cookies})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome := decode[deferred.Outcome](t, rec)
	assert.Equal(t, deferred.Outcome{Kind: deferred.OutcomeLinked, Location: "/c/ABC123", Code: "ABC123"}, outcome)

	rec = h.do(call{method: http.MethodGet, path: "/c/ABC123"})
	require.Equal(t, http.StatusOK, rec.Code)
	scan = decode[map[string]any](t, rec)
	assert.Equal(t, true, scan["bound"])
	assert.Equal(t, "new-owner", scan["owner_id"])
	assert.Contains(t, scan, "directory")

	rec = h.do(call{method: http.MethodGet, path: "/admin/scans?code=ABC123", remote: adminIP})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = h.do(call{method: http.MethodGet, path: "/metrics", remote: adminIP})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `qrcard_scans_total{outcome="bound"} 1`)
	assert.Contains(t, rec.Body.String(), `qrcard_scans_total{outcome="unbound"} 1`)
	assert.Contains(t, rec.Body.String(), `qrcard_binds_total{result="ok"} 1`)
}

func TestDeferredLinkConflict(t *testing.T) {
	h := newHarness(t)
	h.createCode("ABC123")

	rec := h.do(call{method: http.MethodPost, path: "/pending", body: map[string]string{"kind": "link", "code": "ABC123"}})
	require.Equal(t, http.StatusAccepted, rec.Code)
	cookies := rec.Result().Cookies()

	rec = h.do(call{method: http.MethodPost, path: "/c/ABC123/link", owner: "fast-owner"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(call{method: http.MethodPost, path: "/auth/complete", owner: "slow-owner", cookies: cookies})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ABC123", body["code"])

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestResumeBeatsLink(t *testing.T) {
	h := newHarness(t)
	h.createCode("ABC123")

	rec := h.do(call{method: http.MethodPost, path: "/pending", body: map[string]string{"kind": "link", "code": "ABC123"}})
	require.Equal(t, http.StatusAccepted, rec.Code)
	cookies := rec.Result().Cookies()

	rec = h.do(call{method: http.MethodPost, path: "/pending", body: map[string]string{"kind": "resume", "path": "/profile"}, cookies: cookies})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, cookies[0].Value, rec.Result().Cookies()[0].Value, "session is reused")

	rec = h.do(call{method: http.MethodPost, path: "/auth/complete", owner: "alice", cookies: cookies})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, deferred.Outcome{Kind: deferred.OutcomeResume, Location: "/profile"}, decode[deferred.Outcome](t, rec))

	rec = h.do(call{method: http.MethodPost, path: "/auth/complete", owner: "alice", cookies: cookies})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, deferred.OutcomeLanding, decode[deferred.Outcome](t, rec).Kind, "intent is read once")
}

func TestStashRejectsOpenRedirect(t *testing.T) {
	h := newHarness(t)
	rec := h.do(call{method: http.MethodPost, path: "/pending", body: map[string]string{"kind": "resume", "path": "//evil.example"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLinkErrors(t *testing.T) {
	h := newHarness(t)
	h.createCode("ABC123")

	rec := h.do(call{method: http.MethodPost, path: "/c/ABC123/link"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(call{method: http.MethodPost, path: "/c/ABC123/link", owner: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(call{method: http.MethodPost, path: "/c/ABC123/link", owner: "alice"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(call{method: http.MethodPost, path: "/c/NOPE99/link", owner: "alice"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(call{method: http.MethodGet, path: "/me/codes", owner: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	codes := decode[[]map[string]any](t, rec)
	require.Len(t, codes, 1)
	assert.Equal(t, "ABC123", codes[0]["code"])
}

func TestScanErrors(t *testing.T) {
	h := newHarness(t)

	rec := h.do(call{method: http.MethodGet, path: "/c/bad-code"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(call{method: http.MethodGet, path: "/c/NOPE99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	n, err := h.store.CountScans(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "only well-formed codes are recorded")
}

func TestProfileEditing(t *testing.T) {
	h := newHarness(t)

	edits := map[string]any{"edits": []map[string]string{
		{"op": "add", "platform": "instagram", "value": "alice"},
		{"op": "add", "platform": "facebook", "value": "https://facebook.com/alice"},
		{"op": "add", "platform": "whatsapp", "value": "+1 (202) 555-0143"},
		{"op": "move", "section": "social", "platform": "facebook", "before": "instagram"},
	}}
	rec := h.do(call{method: http.MethodPut, path: "/profile", owner: "alice", body: edits})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	type link struct {
		Platform string `json:"platform"`
		Link     string `json:"link"`
	}
	type resp struct {
		Owner     string            `json:"owner"`
		Directory map[string][]link `json:"directory"`
	}
	got := decode[resp](t, rec)
	assert.Equal(t, "alice", got.Owner)
	assert.Len(t, got.Directory, 8)
	require.Len(t, got.Directory["social"], 2)
	assert.Equal(t, "facebook", got.Directory["social"][0].Platform)
	assert.Equal(t, "https://wa.me/12025550143", got.Directory["contact"][0].Link)

	bad := map[string]any{"edits": []map[string]string{
		{"op": "delete", "section": "social", "platform": "instagram"},
		{"op": "add", "platform": "facebook", "value": "nope"},
	}}
	rec = h.do(call{method: http.MethodPut, path: "/profile", owner: "alice", body: bad})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody := decode[map[string]any](t, rec)
	assert.Equal(t, "invalid url", errBody["reason"])
	assert.EqualValues(t, 1, errBody["edit"])

	rec = h.do(call{method: http.MethodGet, path: "/admin/users/alice/profile", remote: adminIP})
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[resp](t, rec)
	assert.Len(t, got.Directory["social"], 2, "failed batch left the directory untouched")

	rec = h.do(call{method: http.MethodPut, path: "/profile", owner: "alice", body: map[string]any{"unknown": true}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAdminCodeLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(call{method: http.MethodPost, path: "/admin/codes", remote: adminIP})
	require.Equal(t, http.StatusCreated, rec.Code)
	generated := decode[map[string]any](t, rec)
	assert.Len(t, generated["code"], 8)

	rec = h.do(call{method: http.MethodPost, path: "/admin/codes", body: map[string]string{"code": "OWNED1", "owner": "bob"}, remote: adminIP})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(call{method: http.MethodPost, path: "/admin/codes", body: map[string]string{"code": "OWNED1"}, remote: adminIP})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(call{method: http.MethodGet, path: "/admin/codes?owner=bob", remote: adminIP})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = h.do(call{method: http.MethodPatch, path: "/admin/codes/OWNED1/unlink", remote: adminIP})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["bound"])

	rec = h.do(call{method: http.MethodPatch, path: "/admin/codes/OWNED1/unlink", remote: adminIP})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(call{method: http.MethodDelete, path: "/admin/codes/OWNED1", remote: adminIP})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(call{method: http.MethodGet, path: "/c/OWNED1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(call{method: http.MethodGet, path: "/admin/overview", remote: adminIP})
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decode[scanlog.Overview](t, rec)
	assert.Equal(t, 1, ov.TotalCodes)
	assert.Equal(t, 0, ov.LinkedCodes)
	assert.EqualValues(t, 1, ov.TotalScans)
}

func TestAdminRoutesGuarded(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/admin/overview", "/admin/codes", "/readyz", "/infra", "/metrics"} {
		rec := h.do(call{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	r := httptest.NewRequest(http.MethodGet, "/c/ABC123", nil)
	r.Host = "evil.example"
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInfraEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(call{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	rec = h.do(call{method: http.MethodGet, path: "/readyz", remote: adminIP})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(call{method: http.MethodGet, path: "/infra", remote: adminIP})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rec)["status"], "fallback catalog")

	rec = h.do(call{method: http.MethodGet, path: "/platforms"})
	require.Equal(t, http.StatusOK, rec.Code)
	platforms := decode[map[string]any](t, rec)
	assert.Equal(t, "fallback", platforms["source"])
	assert.Len(t, platforms["categories"], 8)

	rec = h.do(call{method: http.MethodPost, path: "/reload", remote: adminIP})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	rec = h.do(call{method: http.MethodPost, path: "/reload", remote: adminIP})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	<-h.trigger
}

func TestScanRateLimit(t *testing.T) {
	h := newHarness(t)
	h.deps.ScanRateBurst = 1
	h.deps.ScanRatePerMinute = 1
	router := NewRouter(h.deps, time.Second)
	h.router = router
	h.createCode("ABC123")

	assert.Equal(t, http.StatusOK, h.do(call{method: http.MethodGet, path: "/c/ABC123"}).Code)
	rec := h.do(call{method: http.MethodGet, path: "/c/ABC123"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
