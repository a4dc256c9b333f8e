package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/habit-tracker/pkg/config"
	"github.com/wadjakorntonsri/habit-tracker/pkg/observability"
	"github.com/wadjakorntonsri/habit-tracker/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.HabitService) http.Handler {
	loc, err := cfg.TimeLocation()
	if err != nil {
		slog.Warn("Unknown time zone, using local time", "location", cfg.Location, "error", err)
		loc = time.Local
	}

	// Initialize Handlers
	h := NewHTTPHandler(service, loc)

	// Initialize Middleware
	mw := NewMiddleware(cfg, slog.Default())

	// Setup Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{
			"message": "ok",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&res)
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /habits", h.Create)
	mux.HandleFunc("GET /day", h.Day)
	mux.HandleFunc("PATCH /habits/{id}/toggle", h.Toggle)
	mux.HandleFunc("GET /summary", h.Summary)

	return mw.Recover(mw.CORS(mw.Logging(mw.Metrics(mux))))
}
