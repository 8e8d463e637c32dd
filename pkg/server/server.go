package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protodoc/pkg/httputil"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/resolver"
	"github.com/platinummonkey/protodoc/pkg/storage"
)

// DefaultAddr is the preview server listen address
const DefaultAddr = "127.0.0.1:8000"

// Config configures the preview server
type Config struct {
	Addr            string
	DocsDir         string // served as static files under /
	DocExtension    string
	ShutdownTimeout time.Duration

	Pages    storage.PageStore
	Health   *observability.HealthChecker
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Logger   *logrus.Logger
}

// PagesResponse is the body of GET /api/pages
type PagesResponse struct {
	Root  string   `json:"root"`
	Pages []string `json:"pages"`
	Count int      `json:"count"`
}

// Server serves generated documentation and operational endpoints
type Server struct {
	config   Config
	router   *mux.Router
	http     *http.Server
	shutdown *observability.ShutdownManager
	log      *logrus.Logger
}

// New creates a preview server
func New(config Config) (*Server, error) {
	if config.Pages == nil {
		return nil, errors.New("page store is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.DocExtension == "" {
		config.DocExtension = resolver.DefaultDocExtension
	}
	if config.Health == nil {
		config.Health = observability.NewHealthChecker("")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	s := &Server{
		config: config,
		router: mux.NewRouter(),
		log:    config.Logger,
	}
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.shutdown = observability.NewShutdownManager(s.log, s.http, config.ShutdownTimeout)
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(
		httputil.RequestIDMiddleware,
		mux.MiddlewareFunc(httputil.LoggingMiddleware(s.log)),
		mux.MiddlewareFunc(httputil.RecoveryMiddleware(s.log)),
	)
	if s.config.Metrics != nil {
		s.router.Use(mux.MiddlewareFunc(observability.HTTPMetricsMiddleware(s.config.Metrics, routeTemplate)))
	}

	s.router.HandleFunc("/healthz", s.config.Health.Liveness).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.config.Health.Readiness).Methods(http.MethodGet)
	if s.config.Registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.config.Registry)).Methods(http.MethodGet)
	}
	s.router.HandleFunc("/api/pages", s.listPages).Methods(http.MethodGet)
	s.router.HandleFunc("/api/pages/{path:.+}", s.getPage).Methods(http.MethodGet)

	if s.config.DocsDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.DocsDir))).Methods(http.MethodGet, http.MethodHead)
	}
}

// routeTemplate labels requests by their route so page paths do not
// explode metric cardinality
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// OnShutdown registers fn to run after the HTTP server has stopped
func (s *Server) OnShutdown(fn observability.ShutdownFunc) {
	s.shutdown.RegisterShutdownFunc(fn)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Serving documentation on http://%s", s.config.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.shutdown.Shutdown()
	}
}

// listPages handles GET /api/pages
func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.config.Pages.ListPages(s.config.DocExtension)
	if err != nil {
		s.log.WithError(err).Error("Failed to list pages")
		httputil.WriteInternalError(w)
		return
	}
	if pages == nil {
		pages = []string{}
	}

	httputil.WriteJSON(w, http.StatusOK, PagesResponse{
		Root:  s.config.Pages.Root(),
		Pages: pages,
		Count: len(pages),
	})
}

// getPage handles GET /api/pages/{path}
func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	path, ok := httputil.ParsePathStringOrError(w, r, "path")
	if !ok {
		return
	}

	data, err := s.config.Pages.ReadPage(path)
	switch {
	case errors.Is(err, storage.ErrOutsideRoot):
		httputil.WriteBadRequest(w, "invalid page path")
		return
	case errors.Is(err, fs.ErrNotExist):
		httputil.WriteNotFoundError(w, "page not found")
		return
	case err != nil:
		s.log.WithError(err).WithField("page", path).Error("Failed to read page")
		httputil.WriteInternalError(w)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(data)
}
