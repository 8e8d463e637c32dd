package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/storage"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type testServer struct {
	server  *Server
	docs    string
	health  *observability.HealthChecker
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.html"), []byte("<h1>Docs</h1>"), 0644))

	pages, err := storage.NewFileSystemStorage(filepath.Join(docs, "api"))
	require.NoError(t, err)
	require.NoError(t, pages.WritePage("user/v1/user.md", []byte("# Protocol Documentation: user.proto\n")))
	require.NoError(t, pages.WritePage("common/v1/common.md", []byte("# Protocol Documentation: common.proto\n")))

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	health := observability.NewHealthChecker("test")

	s, err := New(Config{
		DocsDir:  docs,
		Pages:    pages,
		Health:   health,
		Registry: registry,
		Metrics:  metrics,
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	return &testServer{server: s, docs: docs, health: health, metrics: metrics}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNew_RequiresPageStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.get("/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.get("/readyz").Code)

	ts.health.RecordBuild(2, 0, nil)
	assert.Equal(t, http.StatusOK, ts.get("/readyz").Code)
}

func TestServer_ListPages(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/api/pages")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp PagesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"common/v1/common.md", "user/v1/user.md"}, resp.Pages)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, filepath.Join(ts.docs, "api"), resp.Root)
}

func TestServer_GetPage(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/api/pages/user/v1/user.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "# Protocol Documentation: user.proto\n", w.Body.String())

	w = ts.get("/api/pages/missing.md")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"page not found"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_StaticFiles(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get("/index.html")
	require.Equal(t, http.StatusMovedPermanently, w.Code, "http.FileServer redirects index.html to /")

	w = ts.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Docs</h1>")

	w = ts.get("/api/user/v1/user.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user.proto")
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)

	ts.get("/api/pages")
	ts.get("/api/pages/user/v1/user.md")
	ts.get("/api/pages/common/v1/common.md")

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/pages", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(ts.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/pages/{path:.+}", "200")),
		"page requests share their route label")

	w := ts.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "protodoc_http_requests_total")
}

func TestServer_RunAndShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	pages, err := storage.NewFileSystemStorage(t.TempDir())
	require.NoError(t, err)
	s, err := New(Config{Addr: addr, Pages: pages, Logger: quietLogger(), ShutdownTimeout: time.Second})
	require.NoError(t, err)

	cleaned := make(chan struct{})
	s.OnShutdown(func(context.Context) error {
		close(cleaned)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
	select {
	case <-cleaned:
	default:
		t.Error("shutdown functions were not run")
	}
}
