package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/habit-tracker/pkg/adapters/events"
	"github.com/wadjakorntonsri/habit-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/habit-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/habit-tracker/pkg/config"
	"github.com/wadjakorntonsri/habit-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/habit-tracker/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Setup(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Component: logger.ComponentApp,
	})

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	loc, err := cfg.TimeLocation()
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()

	opts := []services.Option{services.WithLocation(loc)}

	// Events are optional; the tracker keeps working without a broker.
	if cfg.AMQPURL != "" {
		publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Warn("Failed to initialize AMQP publisher, continuing without events", "error", err)
		} else {
			defer publisher.Close()
			opts = append(opts, services.WithPublisher(publisher))
			log.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
		}
	} else {
		log.Info("AMQP disabled - habit events will not be published")
	}

	// Initialize Service
	service := services.NewHabitService(repo, opts...)

	// Initialize Router
	mux := handler.NewRouter(cfg, service)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.AppEnv, "location", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
