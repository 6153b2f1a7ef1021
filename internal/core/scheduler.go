package core

// scheduler.go re-runs the pipeline in the background so a long-running
// server picks up edited input files. A failed reload is logged and the
// previous dataset keeps being served.

import (
	"context"
	"log/slog"
	"time"
)

// ReloadFunc builds a fresh dataset.
type ReloadFunc func(ctx context.Context) (*Dataset, error)

// StartReloadScheduler calls load every interval and hands each successful
// result to apply. The initial load is the caller's job. It blocks until
// ctx is cancelled; an interval <= 0 returns immediately.
func StartReloadScheduler(ctx context.Context, interval time.Duration, load ReloadFunc, apply func(*Dataset)) {
	if interval <= 0 {
		return
	}
	slog.Info("reload scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reload scheduler stopped")
			return
		case <-ticker.C:
			runReload(ctx, load, apply)
		}
	}
}

func runReload(ctx context.Context, load ReloadFunc, apply func(*Dataset)) {
	start := time.Now()
	ds, err := load(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("reload failed, keeping current dataset", "error", err, "code", MapError(err).Code)
		}
		return
	}
	apply(ds)
	slog.Info("dataset reloaded",
		"source", ds.Source,
		"countries", ds.Registry.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
