// Package store persists pipeline runs so the service can restart without
// re-reading the source files.
//
// A run is one loaded dataset: its metadata row plus every annotated yearly
// record of every country, kept in registry order so that reloading a run
// rebuilds the same aggregates.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/co2stats/internal/config"
	"github.com/JonMunkholm/co2stats/internal/core"
)

// ErrNoRuns is returned by LatestRun when nothing has been stored yet.
var ErrNoRuns = errors.New("no stored runs")

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored dataset.
type Run struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Countries int       `json:"countries"`
	Records   int       `json:"records"`

	// MinYear and MaxYear are zero when the tracker recorded no bound.
	MinYear int `json:"min_year"`
	MaxYear int `json:"max_year"`
}

// Store saves and reloads runs.
type Store interface {
	// SaveRun stores every record of ds under a new run id.
	SaveRun(ctx context.Context, ds *core.Dataset) (Run, error)
	// LatestRun returns the most recently created run or ErrNoRuns.
	LatestRun(ctx context.Context) (Run, error)
	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// LoadRegistry rebuilds the registry of run id.
	LoadRegistry(ctx context.Context, id uuid.UUID, opts core.RegistryOptions) (*core.Registry, error)
	Close() error
}

// Open connects to the store selected by cfg.Driver and creates the schema
// if needed.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres":
		return OpenPostgres(ctx, cfg)
	case "sqlite":
		return OpenSQLite(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// LoadDataset rebuilds the dataset of the latest run.
func LoadDataset(ctx context.Context, s Store, opts core.RegistryOptions) (*core.Dataset, Run, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return nil, Run{}, err
	}
	reg, err := s.LoadRegistry(ctx, run.ID, opts)
	if err != nil {
		return nil, Run{}, err
	}
	ds := core.NewDataset(run.Source, reg)
	ds.LoadedAt = run.CreatedAt
	return ds, run, nil
}

// row is one stored yearly record.
type row struct {
	seq        int
	isoCode    string
	name       string
	continents string
	year       int
	co2        *float64
	population *int64
}

func newRun(ds *core.Dataset, records int) Run {
	run := Run{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Source:    ds.Source,
		Countries: ds.Registry.Len(),
		Records:   records,
	}
	if y, ok := ds.Registry.Years().Min(); ok {
		run.MinYear = y
	}
	if y, ok := ds.Registry.Years().Max(); ok {
		run.MaxYear = y
	}
	return run
}

// flatten lists the records of every country in registry order.
func flatten(reg *core.Registry) []row {
	var rows []row
	for _, c := range reg.All() {
		for _, rec := range c.Records() {
			r := row{
				seq:        len(rows),
				isoCode:    rec.ISOCode,
				name:       rec.Name,
				continents: strings.Join(rec.Continents, ","),
				year:       rec.Year,
			}
			if rec.HasCO2 {
				v := rec.CO2
				r.co2 = &v
			}
			if rec.HasPopulation {
				v := rec.Population
				r.population = &v
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func (r row) record() core.Record {
	rec := core.Record{
		ISOCode:    r.isoCode,
		Name:       r.name,
		Continents: []string{},
		Year:       r.year,
	}
	if r.continents != "" {
		rec.Continents = strings.Split(r.continents, ",")
	}
	if r.co2 != nil {
		rec.CO2, rec.HasCO2 = *r.co2, true
	}
	if r.population != nil {
		rec.Population, rec.HasPopulation = *r.population, true
	}
	return rec
}
