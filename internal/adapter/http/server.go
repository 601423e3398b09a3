package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/georgia-health-dashboard/internal/dashboard"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

// maxPointerBody bounds the size of a pointer event request.
const maxPointerBody = 4 << 10

// pointerTarget is implemented by views that respond to pointer events.
type pointerTarget interface {
	Pointer(ev dashboard.PointerEvent) (render.HoverState, error)
}

// Server exposes the dashboard's views as JSON and SVG, plus health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dash       *dashboard.Dashboard
	renders    *cache.Cache
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server for d. Rendered SVG is cached for
// renderTTL per view and render key.
func NewServer(addr string, d *dashboard.Dashboard, renderTTL time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:    d,
		renders: cache.New(renderTTL, 2*renderTTL),
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(d))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/views", s.handleList)
	mux.HandleFunc("GET /api/views/{name}", s.withView(s.handleSnapshot))
	mux.HandleFunc("GET /views/{name}/svg", s.withView(s.handleSVG))
	mux.HandleFunc("POST /views/{name}/pointer", s.withView(s.handlePointer))
	mux.HandleFunc("POST /views/{name}/reload", s.withView(s.handleReload))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) withView(h func(http.ResponseWriter, *http.Request, dashboard.View)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		v, ok := s.dash.View(name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown view "+name)
			return
		}
		h(w, r, v)
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	views := s.dash.Views()
	out := make([]dashboard.Snapshot, len(views))
	for i, v := range views {
		out[i] = v.Snapshot()
	}
	writeJSON(w, http.StatusOK, map[string]any{"views": out})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request, v dashboard.View) {
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (s *Server) handleSVG(w http.ResponseWriter, _ *http.Request, v dashboard.View) {
	key := v.Name() + "|" + v.RenderKey()
	result := "hit"
	body, found := s.renders.Get(key)
	if !found {
		result = "miss"
		start := time.Now()
		var buf bytes.Buffer
		if err := v.WriteSVG(&buf); err != nil {
			s.logger.Error("render view", "view", v.Name(), "error", err)
			writeError(w, http.StatusInternalServerError, "render failed")
			return
		}
		s.metrics.RenderDuration.WithLabelValues(v.Name()).Observe(time.Since(start).Seconds())
		body = buf.Bytes()
		s.renders.Set(key, body, cache.DefaultExpiration)
	}
	s.metrics.Renders.WithLabelValues(v.Name(), result).Inc()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Render-Cache", result)
	w.WriteHeader(http.StatusOK)
	w.Write(body.([]byte)) //nolint:errcheck // client went away
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request, v dashboard.View) {
	target, ok := v.(pointerTarget)
	if !ok {
		writeError(w, http.StatusBadRequest, v.Name()+" does not take pointer events")
		return
	}
	var ev dashboard.PointerEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPointerBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pointer event: "+err.Error())
		return
	}

	state, err := target.Pointer(ev)
	switch {
	case errors.Is(err, dashboard.ErrNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusOK, state)
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request, v dashboard.View) {
	err := v.Reload(r.Context())
	if errors.Is(err, dashboard.ErrStale) {
		writeError(w, http.StatusConflict, "superseded by a newer load")
		return
	}
	if err != nil {
		s.logger.Warn("reload failed", "view", v.Name(), "error", err)
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
