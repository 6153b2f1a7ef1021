package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/co2stats/internal/config"
	"github.com/JonMunkholm/co2stats/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	source      TEXT NOT NULL,
	countries   INTEGER NOT NULL,
	records     INTEGER NOT NULL,
	min_year    INTEGER NOT NULL,
	max_year    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS country_years (
	run_id      UUID NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	iso_code    TEXT NOT NULL,
	name        TEXT NOT NULL,
	continents  TEXT NOT NULL,
	year        INTEGER NOT NULL,
	co2         DOUBLE PRECISION,
	population  BIGINT,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS pipeline_runs_created_at_idx ON pipeline_runs (created_at DESC);
`

var countryYearColumns = []string{"run_id", "seq", "iso_code", "name", "continents", "year", "co2", "population"}

// Postgres stores runs in PostgreSQL through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// OpenPostgres creates the pool from cfg, verifies the connection and
// applies the schema.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// SaveRun inserts the run row and bulk-loads its records with COPY inside
// one transaction.
func (p *Postgres) SaveRun(ctx context.Context, ds *core.Dataset) (Run, error) {
	rows := flatten(ds.Registry)
	run := newRun(ds, len(rows))

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	_, err = tx.Exec(ctx,
		`INSERT INTO pipeline_runs (id, created_at, source, countries, records, min_year, max_year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.CreatedAt, run.Source, run.Countries, run.Records, run.MinYear, run.MaxYear)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"country_years"}, countryYearColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{run.ID, r.seq, r.isoCode, r.name, r.continents, r.year, r.co2, r.population}, nil
		}))
	if err != nil {
		return Run{}, fmt.Errorf("copy records: %w", err)
	}
	if int(copied) != len(rows) {
		return Run{}, fmt.Errorf("copy records: wrote %d of %d", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

const runColumns = `id, created_at, source, countries, records, min_year, max_year`

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Countries, &run.Records, &run.MinYear, &run.MaxYear)
	return run, err
}

// LatestRun returns the newest run.
func (p *Postgres) LatestRun(ctx context.Context) (Run, error) {
	run, err := scanRun(p.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY created_at DESC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first.
func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadRegistry replays the stored records of run id into a new registry.
func (p *Postgres) LoadRegistry(ctx context.Context, id uuid.UUID, opts core.RegistryOptions) (*core.Registry, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pipeline_runs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT seq, iso_code, name, continents, year, co2, population
		 FROM country_years WHERE run_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	reg := core.NewRegistry(opts)
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.seq, &r.isoCode, &r.name, &r.continents, &r.year, &r.co2, &r.population); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := reg.Add(r.record()); err != nil {
			return nil, fmt.Errorf("record %d: %w", r.seq, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return reg, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
