// Package sqldoc stores energy records as JSON documents in a SQL table,
// on SQLite or Postgres.
package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"afdp/internal/models"
)

// ErrInvalidTableName is returned for collection names that are not plain identifiers.
var ErrInvalidTableName = errors.New("collection must be a plain SQL identifier")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	Name         string
	driver       string
	idColumn     string
	documentType string
	loadedAtType string
	placeholder  func(n int) string
	loadedAt     func(t time.Time) any
}

// Supported dialects.
var (
	SQLite = Dialect{
		Name:         "sqlite",
		driver:       "sqlite",
		idColumn:     "id INTEGER PRIMARY KEY AUTOINCREMENT",
		documentType: "TEXT",
		loadedAtType: "TEXT",
		placeholder:  func(int) string { return "?" },
		loadedAt:     func(t time.Time) any { return t.Format(time.RFC3339Nano) },
	}
	Postgres = Dialect{
		Name:         "postgres",
		driver:       "pgx",
		idColumn:     "id BIGSERIAL PRIMARY KEY",
		documentType: "JSONB",
		loadedAtType: "TIMESTAMPTZ",
		placeholder:  func(n int) string { return "$" + strconv.Itoa(n) },
		loadedAt:     func(t time.Time) any { return t },
	}
)

// Store is an insert-only document table.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	insert  string
	now     func() time.Time
}

// Open connects with dsn, verifies the connection and ensures the table exists.
func Open(ctx context.Context, dialect Dialect, dsn, table string) (*Store, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	db, err := sql.Open(dialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		table:   table,
		insert:  insertStatement(dialect, table),
		now:     time.Now,
	}

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	if err := s.ensureTable(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

func insertStatement(d Dialect, table string) string {
	params := make([]string, 7)
	for i := range params {
		params[i] = d.placeholder(i + 1)
	}

	return fmt.Sprintf(
		`INSERT INTO %s (run_id, country, year, subsector, indicator, document, loaded_at) VALUES (%s)`,
		table, strings.Join(params, ", "),
	)
}

func (s *Store) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		%s,
		run_id TEXT NOT NULL,
		country TEXT NOT NULL,
		year INTEGER NOT NULL,
		subsector TEXT NOT NULL,
		indicator TEXT NOT NULL,
		document %s NOT NULL,
		loaded_at %s NOT NULL
	)`, s.table, s.dialect.idColumn, s.dialect.documentType, s.dialect.loadedAtType)

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}

	// Non-unique on purpose: the load is insert-only and reruns append.
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_key_idx ON %s (country, year, subsector, indicator)`, s.table, s.table)
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create %s index: %w", s.table, err)
	}

	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.dialect.Name, err)
	}

	return nil
}

// InsertBatch writes records in one transaction; on error nothing from the batch is kept.
func (s *Store) InsertBatch(ctx context.Context, runID string, records []models.EnergyRecord) (n int, retErr error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}

	defer func() { _ = stmt.Close() }()

	loadedAt := s.dialect.loadedAt(s.now().UTC())

	for _, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", r.Key(), err)
		}

		if _, err := stmt.ExecContext(ctx, runID, r.Country, r.Year, string(r.Subsector), r.Indicator, string(doc), loadedAt); err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return len(records), nil
}

// Count returns how many documents were stored by runID, or in total when runID is empty.
func (s *Store) Count(ctx context.Context, runID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)

	var args []any
	if runID != "" {
		query += " WHERE run_id = " + s.dialect.placeholder(1)
		args = append(args, runID)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}

	return n, nil
}

// Documents returns the stored records of runID in insertion order.
func (s *Store) Documents(ctx context.Context, runID string) ([]models.EnergyRecord, error) {
	query := fmt.Sprintf(`SELECT document FROM %s WHERE run_id = %s ORDER BY id`, s.table, s.dialect.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.table, err)
	}

	defer func() { _ = rows.Close() }()

	var records []models.EnergyRecord

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		var r models.EnergyRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// Close releases the connection pool.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
