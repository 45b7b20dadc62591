package adminhandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumigente/internal/domain/audit"
	"lumigente/internal/domain/users"
	"lumigente/internal/platform/jobs"
	"lumigente/internal/platform/metrics"
	adminhandler "lumigente/internal/transport/http/handlers/admin"
	"lumigente/internal/transport/http/middleware"
	"lumigente/internal/testfixtures"
)

const (
	cpfCarla  = "39053344705"
	cpfHelena = "86288366757"
	cpfIgor   = "71428793860"
	hrDept    = "122134101"
)

type fakeAudit struct {
	filter audit.Filter
	limit  int
	events []audit.Event
	err    error
}

func (f *fakeAudit) Count(_ context.Context, filter audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeAudit) List(_ context.Context, filter audit.Filter, _ bool, limit, _ int) ([]audit.Event, error) {
	f.filter = filter
	f.limit = limit
	return f.events, f.err
}

type server struct {
	svc      *testfixtures.Services
	runs     *testfixtures.JobRuns
	audit    *fakeAudit
	metrics  *metrics.Collector
	accounts map[string]users.Account
	router   http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	svc := testfixtures.NewServices([]string{hrDept},
		testfixtures.Node("D1", "200", "EMPRESA > VENDAS"),
		testfixtures.Node(hrDept, "900", "EMPRESA > RH"),
	)
	svc.Hire(cpfCarla, "300", "Carla Dias", "D1")
	svc.Hire(cpfHelena, "400", "Helena Prado", hrDept)

	s := &server{svc: svc, runs: &testfixtures.JobRuns{}, audit: &fakeAudit{}, metrics: metrics.New()}
	s.accounts = svc.Onboard(t)

	syncAll := func(ctx context.Context) (any, error) {
		result, err := svc.Sync.SyncAll(ctx)
		s.metrics.ObserveSync(err)
		return result, err
	}
	r := chi.NewRouter()
	r.Use(middleware.Auth(testfixtures.Secret, svc.Auth))
	adminhandler.NewHandler(jobs.New(s.runs), syncAll, svc.Sync, s.metrics, s.audit, svc.Access).RegisterRoutes(r)
	s.router = r
	return s
}

func (s *server) do(t *testing.T, method, cpf, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	token, _ := s.svc.Login(t, cpf)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesRequireHRAccess(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, cpfCarla, "/admin/sync").Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, cpfCarla, "/admin/audit").Code)
}

func TestSyncAllRunsAndRecordsJob(t *testing.T) {
	s := newServer(t)
	s.svc.Hire(cpfIgor, "500", "Igor Alves", "D1")

	rec := s.do(t, http.MethodPost, cpfHelena, "/admin/sync")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data struct {
			Employees int `json:"employees"`
			Created   int `json:"created"`
			Unchanged int `json:"unchanged"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 3, env.Data.Employees)
	assert.Equal(t, 1, env.Data.Created)
	assert.Equal(t, 2, env.Data.Unchanged)

	runs := s.runs.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, jobs.JobUserSync, runs[0].Type)
	assert.Equal(t, jobs.StatusCompleted, runs[0].Status)

	_, err := s.svc.Users.GetByCPF(context.Background(), cpfIgor)
	require.NoError(t, err)
}

func TestSyncAllFailureIsReported(t *testing.T) {
	s := newServer(t)
	token, _ := s.svc.Login(t, cpfHelena)
	s.svc.Feed.Err = errors.New("feed down")

	req := httptest.NewRequest(http.MethodPost, "/admin/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, jobs.StatusFailed, s.runs.Runs()[0].Status)
	assert.Equal(t, uint64(1), s.metrics.Snapshot()["sync"].(map[string]uint64)["failures"])
}

func TestSyncAllAsync(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodPost, cpfHelena, "/admin/sync?async=true")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSyncOne(t *testing.T) {
	s := newServer(t)
	carla := s.accounts[cpfCarla]

	rec := s.do(t, http.MethodPost, cpfHelena, "/admin/sync/"+carla.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"unchanged"`)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, cpfHelena, "/admin/sync/user-999").Code)
}

func TestAuditListParsesFilter(t *testing.T) {
	s := newServer(t)
	s.audit.events = []audit.Event{{ID: "e1", Action: audit.ActionSyncAll}}

	rec := s.do(t, http.MethodGet, cpfHelena, "/admin/audit?action=sync.all&since=2024-03-01&until=2024-03-08&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, audit.ActionSyncAll, s.audit.filter.Action)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), s.audit.filter.Since)
	assert.Equal(t, 10, s.audit.limit)

	rec = s.do(t, http.MethodGet, cpfHelena, "/admin/audit?since=2024-03-08&until=2024-03-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, cpfHelena, "/admin/audit?since=ontem")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsSnapshot(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, cpfHelena, "/admin/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hierarchy"`)
}
