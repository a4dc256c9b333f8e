package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/wadjakorntonsri/habit-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/habit-tracker/pkg/config"
	"github.com/wadjakorntonsri/habit-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/habit-tracker/pkg/logger"
)

var CLI struct {
	Database string `help:"Database URL (defaults to DATABASE_URL)." env:"DATABASE_URL"`

	Export  ExportCmd  `cmd:"" help:"Write every habit, day and completion as JSON to stdout."`
	Import  ImportCmd  `cmd:"" help:"Restore a JSON export, skipping rows that already exist."`
	Summary SummaryCmd `cmd:"" help:"Print the per-day completion summary."`
	Day     DayCmd     `cmd:"" help:"Show the habits possible and completed on a day."`
}

func main() {
	cfg := config.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("habits"),
		kong.Description("Maintenance tool for the habit tracker database"),
		kong.UsageOnError(),
	)

	logger.Setup(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Component: logger.ComponentCLI,
		Output:    os.Stderr,
	})

	dbURL := CLI.Database
	if dbURL == "" {
		dbURL = cfg.DatabaseURL
	}
	loc, err := cfg.TimeLocation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	repo, err := sqlite.NewSQLiteRepository(dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to db: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	appCtx := &Context{
		Repo:    repo,
		Service: services.NewHabitService(repo, services.WithLocation(loc)),
		Out:     os.Stdout,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		repo.Close()
		os.Exit(1)
	}
}
