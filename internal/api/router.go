package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/synthlab/backend/internal/api/handlers"
	"github.com/wonny/synthlab/backend/pkg/database"
	"github.com/wonny/synthlab/backend/pkg/logger"
	"github.com/wonny/synthlab/backend/pkg/redis"
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Sessions *handlers.SessionHandler
	Stats    *handlers.StatsHandler

	// Optional
	Limiter     *redis.RateLimiter
	SubmitLimit int // per session per minute, 0 = unlimited
	DB          *database.DB
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps Deps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.DB)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Sessions
	api.HandleFunc("/sessions", deps.Sessions.Create).Methods("POST")
	api.HandleFunc("/sessions/{id}", deps.Sessions.Get).Methods("GET")
	api.HandleFunc("/sessions/{id}/comparison", deps.Sessions.Comparison).Methods("GET")
	api.HandleFunc("/sessions/{id}/chart", deps.Sessions.Chart).Methods("GET")
	api.HandleFunc("/sessions/{id}/stream", deps.Sessions.Stream).Methods("GET")

	submit := http.HandlerFunc(deps.Sessions.Submit)
	api.Handle("/sessions/{id}/predictions",
		submitRateLimitMiddleware(deps.Limiter, deps.SubmitLimit, log)(submit)).Methods("POST")

	// Dashboard
	api.HandleFunc("/stats", deps.Stats.Get).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health; database status is included when configured
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "synthlab-api",
		}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			health := db.HealthCheck(ctx)
			body["database"] = health
			if !health.Healthy {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// submitRateLimitMiddleware limits prediction submits per session.
// Redis failures are logged and the request is let through.
func submitRateLimitMiddleware(limiter *redis.RateLimiter, perMinute int, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := mux.Vars(r)["id"]

			allowed, remaining, err := limiter.Allow(r.Context(), redis.SubmitRateLimit(id, perMinute))
			if err != nil {
				log.WithError(err).WithField("session_id", id).Warn("Rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many prediction requests",
				})
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status; Hijack keeps websocket upgrades working
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
