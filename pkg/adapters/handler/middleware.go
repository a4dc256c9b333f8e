package handler

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/wadjakorntonsri/habit-tracker/pkg/config"
	"github.com/wadjakorntonsri/habit-tracker/pkg/logger"
	"github.com/wadjakorntonsri/habit-tracker/pkg/observability"
)

type Middleware struct {
	corsOrigin string
	log        *slog.Logger
}

func NewMiddleware(cfg *config.Config, log *slog.Logger) *Middleware {
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Middleware{
		corsOrigin: origin,
		log:        logger.WithComponent(log, logger.ComponentHTTP),
	}
}

// statusRecorder captures the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

func (rec *statusRecorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// CORS allows browser clients from the configured origin and answers
// preflight requests directly.
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", m.corsOrigin)
		if m.corsOrigin != "*" {
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Logging writes one line per request and puts the request logger in the context.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		ctx := logger.NewContext(r.Context(), m.log)
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		m.log.LogAttrs(ctx, level, "HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)))
	})
}

// Metrics records request counts and latency by route pattern. It must wrap
// the mux directly so the matched pattern is visible after dispatch.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		observability.ObserveHTTPRequest(r.Method, r.Pattern, rec.Status(), time.Since(start))
	})
}

// Recover turns a panic into a 500 response.
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				m.log.ErrorContext(r.Context(), "Panic while serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", v,
					"stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
