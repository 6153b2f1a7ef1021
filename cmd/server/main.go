package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/co2stats/internal/app"
	"github.com/JonMunkholm/co2stats/internal/config"
	"github.com/JonMunkholm/co2stats/internal/core"
	"github.com/JonMunkholm/co2stats/internal/logging"
	"github.com/JonMunkholm/co2stats/internal/metrics"
	"github.com/JonMunkholm/co2stats/internal/store"
	"github.com/JonMunkholm/co2stats/internal/web"
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

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"emissions", cfg.Data.EmissionsPath,
		"format", cfg.Data.Format,
		"db_driver", cfg.Database.Driver,
		"db_enabled", cfg.Database.Enabled(),
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	ctx := context.Background()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	var st store.Store
	if cfg.Database.Enabled() {
		st, err = store.Open(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		slog.Info("connected to store", "driver", cfg.Database.Driver)
	}

	loader := &app.Loader{Data: cfg.Data, Store: st}
	if m != nil {
		loader.Observer = m
	}
	ds, err := loader.Load(ctx)
	if err != nil {
		slog.Error("failed to load dataset", "error", err, "code", core.MapError(err).Code)
		os.Exit(1)
	}
	m.SetDataset(ds)

	server := web.NewServer(ds, web.Options{
		Server:  cfg.Server,
		Ranking: cfg.Ranking,
		Metrics: m,
		Store:   st,
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	if cfg.Data.EmissionsPath != "" {
		go core.StartReloadScheduler(jobCtx, cfg.Data.ReloadInterval, loader.Load, server.SetDataset)
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
