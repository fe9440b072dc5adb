// Package history records the outcome of each solve/solve_multi
// invocation to Postgres, strictly outside the core's call graph: the
// core (pkg/instance, pkg/model, pkg/solver, pkg/schedule) remains a
// stateless pure function of its input, and only the CLI driver layer
// reaches into this package after a solve completes.
package history

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store records and retrieves solver run history.
type Store struct {
	pool *pgxpool.Pool
}

// maxPoolConns caps connection count low: each CLI invocation records
// at most a handful of runs and expects to exit shortly after, so
// there's no point pooling for sustained concurrent load.
const maxPoolConns = 4

// Open connects to the history database and pings it to fail fast on a
// bad DSN. The pool is deliberately small and short-lived, matching a
// CLI process rather than a long-running server.
func Open(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history database DSN: %w", err)
	}
	cfg.MaxConns = maxPoolConns
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

// migration pairs an embedded SQL file with the digest of its current
// contents, so a file edited after it was applied is detected instead
// of silently skipped.
type migration struct {
	filename string
	sql      string
	checksum string
}

func checksumOf(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:])
}

// pendingMigrations reads every embedded .sql file in lexical order
// and computes its checksum.
func pendingMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		sql := string(content)
		migrations = append(migrations, migration{filename: name, sql: sql, checksum: checksumOf(sql)})
	}
	return migrations, nil
}

// appliedChecksums returns the checksum recorded against every
// filename already marked as applied.
func (s *Store) appliedChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT filename, checksum FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var filename, checksum string
		if err := rows.Scan(&filename, &checksum); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		applied[filename] = checksum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applied migrations: %w", err)
	}
	return applied, nil
}

// applyMigration runs one migration's SQL and records its checksum in
// the same transaction, so a failure midway never leaves the tracking
// table out of sync with what actually ran.
func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", m.filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.filename, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (filename, checksum) VALUES ($1, $2)`,
		m.filename, m.checksum); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.filename, err)
	}
	return nil
}

// Migrate executes every pending SQL migration file in order, skipping
// any whose checksum already matches what's recorded in
// schema_migrations. A filename that is recorded with a different
// checksum than the one embedded in this binary means the migration
// file was edited after it ran — Migrate refuses to proceed rather
// than silently re-running or ignoring the drift.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := s.appliedChecksums(ctx)
	if err != nil {
		return err
	}

	migrations, err := pendingMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		recorded, ok := applied[m.filename]
		if !ok {
			if err := s.applyMigration(ctx, m); err != nil {
				return err
			}
			continue
		}
		if recorded != m.checksum {
			return fmt.Errorf("migration %s has already been applied with checksum %s, but the embedded file now checksums to %s", m.filename, recorded, m.checksum)
		}
	}

	return nil
}

// Run is one recorded solve or solve_multi invocation.
type Run struct {
	ID              uuid.UUID
	RequestedAt     time.Time
	Mode            string // "solve" | "solve_multi"
	Status          string // solver.Status.String()
	ConfigHash      string // hex SHA-256 of the input config document
	NumCandidates   int
	NumPanels       int
	OrderBreaks     *int
	DayEndTime      string
	WallTimeSeconds float64
	ErrorMessage    string
}

// Record inserts a completed run, assigning it a fresh ID.
func (s *Store) Record(ctx context.Context, run Run) (uuid.UUID, error) {
	run.ID = uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO solver_runs
			(id, mode, status, config_hash, num_candidates, num_panels, order_breaks, day_end_time, wall_time_seconds, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.Mode, run.Status, nullableString(run.ConfigHash), run.NumCandidates, run.NumPanels, run.OrderBreaks, nullableString(run.DayEndTime), run.WallTimeSeconds, nullableString(run.ErrorMessage))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run.ID, nil
}

// Get retrieves a single run by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, requested_at, mode, status, config_hash, num_candidates, num_panels, order_breaks, day_end_time, wall_time_seconds, error_message
		FROM solver_runs WHERE id = $1
	`, id)

	var run Run
	var configHash, dayEndTime, errorMessage *string
	if err := row.Scan(&run.ID, &run.RequestedAt, &run.Mode, &run.Status, &configHash, &run.NumCandidates, &run.NumPanels, &run.OrderBreaks, &dayEndTime, &run.WallTimeSeconds, &errorMessage); err != nil {
		return nil, fmt.Errorf("failed to scan run %s: %w", id, err)
	}
	if configHash != nil {
		run.ConfigHash = *configHash
	}
	if dayEndTime != nil {
		run.DayEndTime = *dayEndTime
	}
	if errorMessage != nil {
		run.ErrorMessage = *errorMessage
	}
	return &run, nil
}

// Recent lists the most recently requested runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, requested_at, mode, status, config_hash, num_candidates, num_panels, order_breaks, day_end_time, wall_time_seconds, error_message
		FROM solver_runs ORDER BY requested_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var configHash, dayEndTime, errorMessage *string
		if err := rows.Scan(&run.ID, &run.RequestedAt, &run.Mode, &run.Status, &configHash, &run.NumCandidates, &run.NumPanels, &run.OrderBreaks, &dayEndTime, &run.WallTimeSeconds, &errorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if configHash != nil {
			run.ConfigHash = *configHash
		}
		if dayEndTime != nil {
			run.DayEndTime = *dayEndTime
		}
		if errorMessage != nil {
			run.ErrorMessage = *errorMessage
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
