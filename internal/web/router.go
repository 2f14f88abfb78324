// Package web wires the HTTP surface of gpt-bot: the webhook endpoint,
// health checks and metrics.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pyama86/gpt-bot/internal/logging"
)

// Router serves every route of the bot
type Router struct {
	mux    chi.Router
	logger *slog.Logger
}

// RouterConfig holds the handlers mounted by NewRouter. Metrics is
// optional.
type RouterConfig struct {
	Webhook http.Handler
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter mounts the webhook on POST / and POST /webhook, health checks
// on GET / and GET /healthz, and metrics on GET /metrics
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{mux: chi.NewRouter(), logger: logger}

	r.mux.Use(chimw.Recoverer)
	r.mux.Use(r.requestLogger)

	r.mux.Get("/", handleHealth)
	r.mux.Get("/healthz", handleHealth)
	if cfg.Webhook != nil {
		r.mux.Method(http.MethodPost, "/", cfg.Webhook)
		r.mux.Method(http.MethodPost, "/webhook", cfg.Webhook)
	}
	if cfg.Metrics != nil {
		r.mux.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	return r
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// requestLogger logs one line per request, tagged with the GitHub delivery
// ID when there is one
func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		logger := r.logger
		if id := req.Header.Get("X-GitHub-Delivery"); id != "" {
			logger = logging.FromContext(logging.WithRequestID(req.Context(), id), logger)
		}
		level := slog.LevelInfo
		if req.URL.Path == "/healthz" || req.URL.Path == "/metrics" {
			level = slog.LevelDebug
		}
		logger.Log(req.Context(), level, "http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
