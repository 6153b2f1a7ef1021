package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/co2stats/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	source      TEXT NOT NULL,
	countries   INTEGER NOT NULL,
	records     INTEGER NOT NULL,
	min_year    INTEGER NOT NULL,
	max_year    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS country_years (
	run_id      TEXT NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	iso_code    TEXT NOT NULL,
	name        TEXT NOT NULL,
	continents  TEXT NOT NULL,
	year        INTEGER NOT NULL,
	co2         REAL,
	population  INTEGER,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS pipeline_runs_created_at_idx ON pipeline_runs (created_at DESC);
`

// sqliteTime is fixed-width so created_at orders correctly as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLite stores runs in a SQLite file (or memory) through database/sql.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens dsn with the modernc driver and applies the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps an in-memory database alive and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// SaveRun inserts the run and its records in one transaction.
func (s *SQLite) SaveRun(ctx context.Context, ds *core.Dataset) (Run, error) {
	rows := flatten(ds.Registry)
	run := newRun(ds, len(rows))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, created_at, source, countries, records, min_year, max_year)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.CreatedAt.UTC().Format(sqliteTime), run.Source,
		run.Countries, run.Records, run.MinYear, run.MaxYear)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO country_years (run_id, seq, iso_code, name, continents, year, co2, population)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	id := run.ID.String()
	for i, r := range rows {
		if i%core.ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Run{}, fmt.Errorf("operation cancelled: %w", err)
			}
		}
		var co2 sql.NullFloat64
		if r.co2 != nil {
			co2 = sql.NullFloat64{Float64: *r.co2, Valid: true}
		}
		var pop sql.NullInt64
		if r.population != nil {
			pop = sql.NullInt64{Int64: *r.population, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, r.seq, r.isoCode, r.name, r.continents, r.year, co2, pop); err != nil {
			return Run{}, fmt.Errorf("insert record %d: %w", r.seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(sc scanner) (Run, error) {
	var (
		run       Run
		id        string
		createdAt string
	)
	if err := sc.Scan(&id, &createdAt, &run.Source, &run.Countries, &run.Records, &run.MinYear, &run.MaxYear); err != nil {
		return Run{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	run.ID = parsed
	run.CreatedAt, err = time.Parse(sqliteTime, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("run created_at %q: %w", createdAt, err)
	}
	return run, nil
}

// LatestRun returns the newest run.
func (s *SQLite) LatestRun(ctx context.Context) (Run, error) {
	run, err := scanSQLiteRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY created_at DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadRegistry replays the stored records of run id into a new registry.
func (s *SQLite) LoadRegistry(ctx context.Context, id uuid.UUID, opts core.RegistryOptions) (*core.Registry, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pipeline_runs WHERE id = ?`, id.String()).Scan(&n); err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, iso_code, name, continents, year, co2, population
		 FROM country_years WHERE run_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	reg := core.NewRegistry(opts)
	for rows.Next() {
		var (
			r   row
			co2 sql.NullFloat64
			pop sql.NullInt64
		)
		if err := rows.Scan(&r.seq, &r.isoCode, &r.name, &r.continents, &r.year, &co2, &pop); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if co2.Valid {
			r.co2 = &co2.Float64
		}
		if pop.Valid {
			r.population = &pop.Int64
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

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
