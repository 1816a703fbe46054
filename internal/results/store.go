package results

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/beholders/benchsweep/internal/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store mirrors result rows into SQLite so that several sweeps can be
// queried together.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path and migrates it to the
// latest schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	// m is not closed: that would close the shared connection.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// DB exposes the connection for read-only browsing.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SweepInfo describes one recorded sweep.
type SweepInfo struct {
	ID         string
	Tool       string
	Schema     Schema
	ResultsDir string
	Iterations int
	StartedAt  time.Time
	Runs       int
}

// BeginSweep registers a sweep and returns a recorder for its rows.
func (s *Store) BeginSweep(tool string, schema Schema, resultsDir string, iterations int, started time.Time) (*Recorder, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO sweeps (sweep_id, tool, axis_column, results_dir, iterations, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, tool, schema.AxisColumn, resultsDir, iterations, started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("record sweep: %w", err)
	}
	return &Recorder{db: s.db, id: id}, nil
}

// Recorder appends the rows of one sweep.
type Recorder struct {
	db  *sql.DB
	id  string
	seq int
}

// ID is the sweep's identifier.
func (r *Recorder) ID() string { return r.id }

// Write implements the sweep's sink.
func (r *Recorder) Write(res metrics.RunResult) error {
	r.seq++
	_, err := r.db.Exec(
		`INSERT INTO runs (sweep_id, seq, file_size, chunks, nfisch, axis, mvalue, init_time, proving_time, fk20_time, fraction, secret_key, status, exit_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, r.seq,
		nullInt(res.FileSize), nullInt(res.ChunkCount), nullInt(res.NFisch),
		res.Axis, nullInt(res.M),
		nullTiming(res.InitTime), nullTiming(res.ProvingTime), nullTiming(res.FK20Time),
		res.Fraction, res.SecretKey, string(res.Status), res.ExitCode,
	)
	if err != nil {
		return fmt.Errorf("insert run %d of sweep %s: %w", r.seq, r.id, err)
	}
	return nil
}

// Import records rows parsed offline as a new sweep and returns its ID.
func (s *Store) Import(tool string, schema Schema, source string, rows []metrics.RunResult) (string, error) {
	rec, err := s.BeginSweep(tool, schema, source, 0, time.Now())
	if err != nil {
		return "", err
	}
	for _, r := range rows {
		if err := rec.Write(r); err != nil {
			return rec.ID(), err
		}
	}
	return rec.ID(), nil
}

// Sweeps lists recorded sweeps, oldest first.
func (s *Store) Sweeps() ([]SweepInfo, error) {
	rows, err := s.db.Query(`
		SELECT s.sweep_id, s.tool, s.axis_column, s.results_dir, s.iterations, s.started_at, COUNT(r.seq)
		FROM sweeps s LEFT JOIN runs r ON r.sweep_id = s.sweep_id
		GROUP BY s.sweep_id
		ORDER BY s.started_at, s.sweep_id`)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	defer rows.Close()

	var out []SweepInfo
	for rows.Next() {
		var (
			si      SweepInfo
			started string
		)
		if err := rows.Scan(&si.ID, &si.Tool, &si.Schema.AxisColumn, &si.ResultsDir, &si.Iterations, &started, &si.Runs); err != nil {
			return nil, fmt.Errorf("scan sweep: %w", err)
		}
		if si.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("sweep %s: bad start time %q: %w", si.ID, started, err)
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

// Runs returns the rows of one sweep in recording order. The sentinel
// replaces the timings of failed rows.
func (s *Store) Runs(sweepID, sentinel string) ([]metrics.RunResult, error) {
	rows, err := s.db.Query(`
		SELECT file_size, chunks, nfisch, axis, mvalue, init_time, proving_time, fk20_time, fraction, secret_key, status, exit_code
		FROM runs WHERE sweep_id = ? ORDER BY seq`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []metrics.RunResult
	for rows.Next() {
		var (
			r                   metrics.RunResult
			size, chunks, nf, m sql.NullInt64
			initT, provT, fk20T sql.NullFloat64
			status              string
		)
		if err := rows.Scan(&size, &chunks, &nf, &r.Axis, &m, &initT, &provT, &fk20T, &r.Fraction, &r.SecretKey, &status, &r.ExitCode); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FileSize, r.ChunkCount, r.NFisch, r.M = fromNullInt(size), fromNullInt(chunks), fromNullInt(nf), fromNullInt(m)
		r.Status = metrics.Status(status)
		r.InitTime = fromNullTiming(initT, r.Status, sentinel)
		r.ProvingTime = fromNullTiming(provT, r.Status, sentinel)
		r.FK20Time = fromNullTiming(fk20T, r.Status, sentinel)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTiming(t metrics.Timing) sql.NullFloat64 {
	return sql.NullFloat64{Float64: t.Seconds, Valid: t.Valid && t.Sentinel == ""}
}

func fromNullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return metrics.Int64(v.Int64)
}

func fromNullTiming(v sql.NullFloat64, status metrics.Status, sentinel string) metrics.Timing {
	switch {
	case v.Valid:
		return metrics.Seconds(v.Float64)
	case status == metrics.StatusFailure:
		return metrics.Timing{Sentinel: sentinel}
	}
	return metrics.Timing{}
}
