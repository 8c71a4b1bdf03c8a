package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"nearby_go/internal/beacon"
	"nearby_go/internal/coordinator"
	"nearby_go/internal/lifecycle"
	"nearby_go/internal/notify"
	"nearby_go/internal/store"
)

type Controller interface {
	Snapshot() coordinator.State
	Refresh()
}

type ItemLister interface {
	Items() []store.Item
}

type LifecyclePublisher interface {
	Publish(state lifecycle.State)
}

type NotificationPublisher interface {
	Publish(event notify.Event)
}

// ScannerStatus reports replay progress. Optional.
type ScannerStatus interface {
	Status() beacon.Status
}

type Deps struct {
	Controller    Controller
	Items         ItemLister
	Lifecycle     LifecyclePublisher
	Notifications NotificationPublisher
	Scanner       ScannerStatus
	Gatherer      prometheus.Gatherer
}

type Server struct {
	addr   string
	deps   Deps
	http   *http.Server
	logger *log.Entry
}

func New(addr string, deps Deps) *Server {
	s := &Server{
		addr:   strings.TrimSpace(addr),
		deps:   deps,
		logger: log.WithField("component", "httpapi"),
	}
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/state", s.handleState)
	r.Get("/items", s.handleItems)
	r.Get("/scanner", s.handleScanner)
	r.Post("/refresh", s.handleRefresh)
	r.Post("/lifecycle/{state}", s.handleLifecycle)
	r.Post("/notification/{event}", s.handleNotification)
	if s.deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves until ctx is cancelled. An empty address disables it.
func (s *Server) Run(ctx context.Context) error {
	if s.addr == "" {
		return nil
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("http listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "nearby",
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Controller.Snapshot())
}

func (s *Server) handleItems(w http.ResponseWriter, _ *http.Request) {
	items := []store.Item{}
	if s.deps.Items != nil {
		items = store.SortedByDistance(s.deps.Items.Items())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleScanner(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Scanner == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "no scanner status"})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Scanner.Status())
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.deps.Controller.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ok":    true,
		"state": s.deps.Controller.Snapshot(),
	})
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	state, err := lifecycle.ParseState(chi.URLParam(r, "state"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if s.deps.Lifecycle != nil {
		s.deps.Lifecycle.Publish(state)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"state": s.deps.Controller.Snapshot(),
	})
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	event, err := notify.ParseEvent(chi.URLParam(r, "event"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if s.deps.Notifications != nil {
		s.deps.Notifications.Publish(event)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
