package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organigram/internal/adapter"
	"organigram/internal/config"
	"organigram/internal/domain"
	"organigram/internal/metrics"
	"organigram/internal/service"
)

const directoryYAML = `
containers:
  - dn: ou=hq,dc=corp
    name: Headquarters
    attributes:
      site: Paris
  - dn: ou=team,ou=hq,dc=corp
    name: Team
agents:
  - dn: uid=boss,ou=hq,dc=corp
    id: 1
    last_name: Boss
  - dn: uid=xu,ou=team,ou=hq,dc=corp
    id: 2
    last_name: Xu
    manager: uid=boss,ou=hq,dc=corp
  - dn: uid=lost,ou=team,ou=hq,dc=corp
    id: 3
    last_name: Lost
    manager: uid=gone,dc=corp
`

type testServer struct {
	handler http.Handler
	svc     *service.ChartService
	metrics *metrics.Registry
	hook    *test.Hook
}

func newTestServer(t *testing.T, build bool) *testServer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(directoryYAML), 0644))

	cfg := config.DefaultConfig()
	cfg.Directory.Path = path
	cfg.Attributes = []config.AttributeConfig{{Name: "site", Default: "Remote"}}

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	reg := metrics.NewRegistry()
	svc := service.NewChartService(cfg, adapter.NewRegistry(log), service.NewEventBus(),
		service.WithLogger(log), service.WithMetrics(reg))
	if build {
		_, err := svc.Build(context.Background())
		require.NoError(t, err)
	}

	mux := http.NewServeMux()
	NewChartHandler(svc, log).Register(mux)
	mux.HandleFunc("GET /panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
	return &testServer{
		handler: Chain(mux, Recover(log), Logger(log, reg)),
		svc:     svc,
		metrics: reg,
		hook:    hook,
	}
}

func (s *testServer) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNotReadyBeforeFirstRun(t *testing.T) {
	s := newTestServer(t, false)

	for _, target := range []string{
		"/api/chart",
		"/api/agents/1",
		"/api/warnings",
		"/api/export/json",
		"/api/containers/attribute?path=ou=hq,dc=corp&name=site",
	} {
		t.Run(target, func(t *testing.T) {
			rec := s.do(http.MethodGet, target)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "Chart not ready", decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestGetChart(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/api/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	view := decode[domain.ChartView](t, rec)
	require.Len(t, view.Roots, 2)
	assert.Equal(t, "Boss", view.Roots[0].LastName)
	assert.Equal(t, "Lost", view.Roots[1].LastName)
	require.Len(t, view.Roots[0].Children, 1)
	assert.Equal(t, "Paris", view.Roots[0].Children[0].Attributes["site"])
}

func TestGetAgent(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/api/agents/2")
	require.Equal(t, http.StatusOK, rec.Code)
	node := decode[domain.ChartNode](t, rec)
	assert.Equal(t, "Xu", node.LastName)
	assert.Equal(t, "Team", node.ContainerName)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/agents/42").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/agents/xu").Code)
}

func TestGetAttribute(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/api/containers/attribute?path=ou=team,ou=hq,dc=corp&name=site")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, AttributeResponse{
		Path: "ou=team,ou=hq,dc=corp", Name: "site", Value: "Paris", Found: true,
	}, decode[AttributeResponse](t, rec))

	rec = s.do(http.MethodGet, "/api/containers/attribute?path=ou=team,ou=hq,dc=corp&name=budget")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[AttributeResponse](t, rec).Found)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/containers/attribute?name=site").Code)
}

func TestGetWarnings(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/api/warnings")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[WarningsResponse](t, rec)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 1, resp.Counts[domain.WarnUnresolvableManager])

	rec = s.do(http.MethodGet, "/api/warnings?kind=unresolvable_manager")
	resp = decode[WarningsResponse](t, rec)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "uid=lost,ou=team,ou=hq,dc=corp", resp.Warnings[0].Path)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/api/export/yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "organigram.yaml")
	assert.Contains(t, rec.Body.String(), "last_name: Boss")

	rec = s.do(http.MethodGet, "/api/export/xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK", rec.Body.String()[:2])

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/export/pdf").Code)
}

func TestRebuild(t *testing.T) {
	s := newTestServer(t, true)
	before, err := s.svc.Current()
	require.NoError(t, err)

	rec := s.do(http.MethodPost, "/api/rebuild")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RebuildResponse](t, rec)
	assert.NotEqual(t, before.RunID, resp.RunID)
	assert.Equal(t, 3, resp.Agents)

	assert.Equal(t, http.StatusMethodNotAllowed, s.do(http.MethodGet, "/api/rebuild").Code)
}

func TestMiddleware(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, logrus.ErrorLevel, s.hook.LastEntry().Level)

	s.do(http.MethodGet, "/api/chart")
	s.do(http.MethodGet, "/api/chart")
	s.do(http.MethodGet, "/nowhere")
	assert.Equal(t, float64(2), testutil.ToFloat64(
		s.metrics.HTTPRequestsTotal.WithLabelValues("GET", "GET /api/chart", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		s.metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
