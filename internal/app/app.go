// Package app wires configuration, the pipeline and run persistence together
// for the server and CLI entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/JonMunkholm/co2stats/internal/config"
	"github.com/JonMunkholm/co2stats/internal/core"
	"github.com/JonMunkholm/co2stats/internal/store"
)

// ErrNoSource is returned when neither an emissions file nor a store with a
// saved run is available.
var ErrNoSource = errors.New("no emissions file configured and no stored run to boot from")

// RegistryOptions converts the data settings into registry options.
func RegistryOptions(cfg config.DataConfig, logger *slog.Logger) (core.RegistryOptions, error) {
	merge, err := core.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		return core.RegistryOptions{}, err
	}
	tracking, err := core.ParseYearTracking(cfg.YearTracking)
	if err != nil {
		return core.RegistryOptions{}, err
	}
	return core.RegistryOptions{
		Merge:            merge,
		YearTracking:     tracking,
		SkipInvalidCodes: cfg.SkipInvalidCodes,
		Logger:           logger,
	}, nil
}

// LoadOptions converts the data settings into pipeline options. obs may be nil.
func LoadOptions(cfg config.DataConfig, obs core.StageObserver, logger *slog.Logger) (core.LoadOptions, error) {
	format, err := core.ParseInputFormat(cfg.Format)
	if err != nil {
		return core.LoadOptions{}, err
	}
	regOpts, err := RegistryOptions(cfg, logger)
	if err != nil {
		return core.LoadOptions{}, err
	}
	return core.LoadOptions{
		EmissionsPath:  cfg.EmissionsPath,
		ContinentsPath: cfg.ContinentsPath,
		Format:         format,
		Registry:       regOpts,
		Observer:       obs,
		Logger:         logger,
	}, nil
}

// Loader produces the dataset to serve. It is safe for the reload scheduler
// to call Load while a previous call's result is being served.
type Loader struct {
	Data     config.DataConfig
	Store    store.Store // nil disables persistence
	Observer core.StageObserver
	Logger   *slog.Logger

	mu        sync.Mutex
	lastSaved sourceState
}

// fileState identifies one version of an input file.
type fileState struct {
	size    int64
	modTime time.Time
}

// sourceState identifies the input files a run was built from.
type sourceState struct {
	emissions, continents fileState
}

func statFile(path string) (fileState, error) {
	if path == "" {
		return fileState{}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{size: info.Size(), modTime: info.ModTime()}, nil
}

func (l *Loader) sourceState() (sourceState, error) {
	emissions, err := statFile(l.Data.EmissionsPath)
	if err != nil {
		return sourceState{}, err
	}
	continents := fileState{}
	if l.Data.Format != string(core.FormatAnnotated) {
		if continents, err = statFile(l.Data.ContinentsPath); err != nil {
			return sourceState{}, err
		}
	}
	return sourceState{emissions: emissions, continents: continents}, nil
}

// Load runs the pipeline over the configured files and saves the result when
// a store is set and SaveRun is on. A run is not saved again while the input
// files keep the size and modification time of the last saved run. Without an
// emissions file it rebuilds the latest stored run instead.
func (l *Loader) Load(ctx context.Context) (*core.Dataset, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if l.Data.EmissionsPath == "" {
		return l.fromStore(ctx, logger)
	}

	opts, err := LoadOptions(l.Data, l.Observer, logger)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Stat before reading so a file replaced mid-load is saved next time.
	state, statErr := l.sourceState()
	ds, err := core.LoadDataset(ctx, opts)
	if err != nil {
		return nil, err
	}

	if l.Store == nil || !l.Data.SaveRun {
		return ds, nil
	}
	if statErr == nil && state == l.lastSaved {
		logger.Debug("source files unchanged, run not saved", "source", ds.Source)
		return ds, nil
	}
	run, err := l.Store.SaveRun(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	if statErr == nil {
		l.lastSaved = state
	}
	logger.Info("run saved", "run_id", run.ID.String(), "records", run.Records)
	return ds, nil
}

func (l *Loader) fromStore(ctx context.Context, logger *slog.Logger) (*core.Dataset, error) {
	if l.Store == nil {
		return nil, ErrNoSource
	}
	regOpts, err := RegistryOptions(l.Data, logger)
	if err != nil {
		return nil, err
	}
	ds, run, err := store.LoadDataset(ctx, l.Store, regOpts)
	if errors.Is(err, store.ErrNoRuns) {
		return nil, fmt.Errorf("%w: %v", ErrNoSource, err)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("dataset restored from store",
		"run_id", run.ID.String(),
		"source", run.Source,
		"countries", run.Countries,
		"created_at", run.CreatedAt,
	)
	return ds, nil
}
