package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumigente/internal/app/server"
	"lumigente/internal/platform/config"
	"lumigente/internal/platform/jobs"
	"lumigente/internal/platform/metrics"
	"lumigente/internal/testfixtures"
)

const (
	cpfCarla  = "39053344705"
	cpfHelena = "86288366757"
	hrDept    = "122134101"
)

func newRouter(t *testing.T, ready func(context.Context) error) (http.Handler, config.Config) {
	t.Helper()
	svc := testfixtures.NewServices([]string{hrDept},
		testfixtures.Node("D1", "200", "EMPRESA > VENDAS"),
		testfixtures.Node(hrDept, "900", "EMPRESA > RH"),
	)
	svc.Hire(cpfCarla, "300", "Carla Dias", "D1")
	svc.Hire(cpfHelena, "400", "Helena Prado", hrDept)
	svc.Onboard(t)

	frontend := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(frontend, "index.html"), []byte("<html>lumigente</html>"), 0o600))

	cfg := config.Config{
		Environment:        "test",
		SessionSecret:      testfixtures.Secret,
		SessionCookieName:  "lumigente.sid",
		SessionTTL:         time.Hour,
		FrontendDir:        frontend,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 100,
		MetricsEnabled:     true,
	}
	collector := metrics.New()
	router := server.NewRouter(server.Deps{
		Config:     cfg,
		Auth:       svc.Auth,
		Directory:  svc.Directory,
		Classifier: svc.Classifier,
		Resolver:   svc.Resolver,
		Access:     svc.Access,
		Jobs:       jobs.New(&testfixtures.JobRuns{}),
		SyncAll: func(ctx context.Context) (any, error) {
			return svc.Sync.SyncAll(ctx)
		},
		Syncer:  svc.Sync,
		Metrics: collector,
		Ready:   ready,
	})
	return router, cfg
}

func TestHealthAndReadiness(t *testing.T) {
	router, _ := newRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down, _ := newRouter(t, func(context.Context) error { return errors.New("db down") })
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoginCookieOpensAPI(t *testing.T) {
	router, cfg := newRouter(t, nil)

	body := `{"cpf":"` + cpfHelena + `","password":"` + testfixtures.Password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == cfg.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	for _, path := range []string{"/api/v1/me", "/api/v1/me/permissions", "/api/v1/hierarchy/stats", "/api/v1/admin/metrics"} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(session)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFrontendFallsBackToIndex(t *testing.T) {
	router, _ := newRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/equipe/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lumigente")
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}
