package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/sheetimport/internal/config"
	"github.com/JonMunkholm/sheetimport/internal/core"
	_ "github.com/JonMunkholm/sheetimport/internal/core/layouts" // Register all layouts
	"github.com/JonMunkholm/sheetimport/internal/logging"
	"github.com/JonMunkholm/sheetimport/internal/store"
	"github.com/JonMunkholm/sheetimport/internal/web"
)

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.Database.Enabled(),
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	svcCfg := core.ServiceConfig{
		Importer: core.NewImporter(core.Options{
			StrictHeader: cfg.Import.StrictHeader,
			MaxRows:      cfg.Import.MaxRows,
			Charset:      cfg.Import.Charset,
		}, logger),
		Limiter:   core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		Timeout:   cfg.Import.Timeout,
		Retention: cfg.Import.Retention,
		Logger:    logger,
	}

	var db web.Pinger
	if cfg.Database.Enabled() {
		pool, err := store.Open(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		logger.Info("connected to database", "name", store.DatabaseName(cfg.Database.URL))
		svcCfg.Persister = store.New(pool, logger)
		db = pool
	} else {
		logger.Info("no database configured, imported records will not be saved")
	}

	service, err := core.NewService(svcCfg)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	logger.Info("layouts registered",
		"count", len(core.All()),
		"groups", len(core.Groups()),
	)
	for _, def := range core.All() {
		logger.Debug("layout", "key", def.Info.Key, "group", def.Info.Group, "sheets", len(def.Sheets))
	}

	server := web.NewServer(service, cfg, db)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if st := service.Limiter().Status(); st.Active > 0 {
			logger.Info("waiting for imports to complete", "active", st.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
}
