package server

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// corsMiddleware answers preflight requests and stamps CORS headers
// for the configured origins (comma-separated; "*" allows any).
func corsMiddleware(allowedOrigins string, next http.Handler) http.Handler {
	origins := map[string]struct{}{}
	allowAll := false
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		} else if o != "" {
			origins[o] = struct{}{}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if _, ok := origins[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimiter enforces a per-client request budget over a window,
// e.g. 50 requests per 15 minutes.
type rateLimiter struct {
	limit  rate.Limit
	burst  int
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

func newRateLimiter(requests int, window time.Duration, logger *slog.Logger) *rateLimiter {
	if requests <= 0 {
		requests = 50
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &rateLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		logger:  logger,
		clients: make(map[string]*rate.Limiter),
	}
}

func (rl *rateLimiter) allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	rl.mu.Lock()
	lim, ok := rl.clients[host]
	if !ok {
		lim = rate.NewLimiter(rl.limit, rl.burst)
		rl.clients[host] = lim
	}
	rl.mu.Unlock()

	return lim.Allow()
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			rl.logger.Warn("rate limit exceeded", "remote", r.RemoteAddr, "path", r.URL.Path)
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
