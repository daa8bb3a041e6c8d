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

	"github.com/insyd/notify/backend/internal/broker"
	"github.com/insyd/notify/backend/internal/metrics"
	"github.com/insyd/notify/backend/internal/realtime"
	"github.com/insyd/notify/backend/internal/router"
	"github.com/insyd/notify/backend/pkg/config"
	"github.com/insyd/notify/backend/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("Server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the HTTP server fails. Every
// resource it opens is released before it returns.
func run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	// Load configuration
	cfg := config.Load()

	logger, err := config.NewLogger(os.Stdout, cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(logger)

	// Initialize database connections
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.SQL); err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}

	var mongoDB *mongo.Database
	if db.Mongo != nil {
		mongoDB = db.Mongo.Database(cfg.MongoDatabase)
	}

	// The hub lives as long as the process; connections rejoin after a restart
	hub := realtime.NewHub(cfg.WSSendBuffer, logger)
	defer hub.Close()

	service, err := router.NewService(ctx, db.SQL, mongoDB, hub, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize service: %w", err)
	}

	if cfg.NATSURL != "" {
		consumer, err := broker.Connect(cfg.NATSURL, cfg.NATSSubject, service, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		if err := consumer.Start(); err != nil {
			return err
		}
	}

	metricsServer := metrics.NewHTTPServer(cfg.MetricsPort, logger)
	metricsServer.Start()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, logger)
	router.SetupRoutes(e, service, hub, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Backend listening", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics shutdown failed", "error", err)
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP server: %w", err)
	default:
		return nil
	}
}
