package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/habit-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/habit-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/habit-tracker/pkg/config"
	"github.com/wadjakorntonsri/habit-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/habit-tracker/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logger.Setup(logger.Config{Level: cfg.LogLevel, Format: "json", Component: logger.ComponentApp})

	// Note: On Vercel, the local file is ephemeral unless DATABASE_URL points to Turso (libsql://)
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	loc, err := cfg.TimeLocation()
	if err != nil {
		slog.Warn("Unknown time zone, using local time", "location", cfg.Location, "error", err)
		loc = nil
	}

	service := services.NewHabitService(repo, services.WithLocation(loc))
	mux = handler.NewRouter(cfg, service)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
