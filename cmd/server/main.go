package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Krish120003/databind/internal/config"
	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/database"
	"github.com/Krish120003/databind/internal/logging"
	"github.com/Krish120003/databind/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database_enabled", cfg.Database.Enabled(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Audit entries go to Postgres when configured, otherwise to the log.
	var audit core.AuditStore = core.NewLogAuditStore(logger, 0)
	if cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		logger.Info("connected to database", "name", database.Name(cfg.Database.URL))

		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(ctx, pool); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}
		audit = database.NewAuditStore(pool)
	}

	service := core.NewService(core.Options{
		SessionTTL:    cfg.Session.TTL,
		MaxSessions:   cfg.Session.MaxSessions,
		PageSize:      cfg.Session.PageSize,
		MaxPageSize:   cfg.Session.MaxPageSize,
		UploadTimeout: cfg.Upload.Timeout,
		Limiter:       core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		Audit:         audit,
	})

	sweeper, err := core.NewSessionSweeper(service, cfg.Session.SweepSchedule, logger)
	if err != nil {
		logger.Error("failed to create session sweeper", "error", err)
		os.Exit(1)
	}
	sweeper.Start()

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		sweeper.Stop(shutdownCtx)

		// Wait for in-flight parses before closing the listener
		if status := service.Status(); status.Uploads.Active > 0 {
			logger.Info("waiting for uploads to complete", "active", status.Uploads.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				logger.Warn("uploads did not complete in time", "error", err)
			} else {
				logger.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		logger.Info("server stopped", "error", err)
	}
}
