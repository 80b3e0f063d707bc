package server

import (
	"log/slog"
	"net/http"
	"time"
)

// RouterConfig bundles the middleware knobs for the upload API.
type RouterConfig struct {
	AllowedOrigins string
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter wires the API routes with CORS and rate limiting applied.
func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/upload", h.Upload)
	mux.HandleFunc("/api/runs", h.Runs)

	rl := newRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)
	return corsMiddleware(cfg.AllowedOrigins, rl.middleware(mux))
}
