// Package store persists imported records to PostgreSQL.
//
// Each sheet with a target table is written with COPY; all sheets of one
// import share a transaction, so either every table receives its rows or
// none does.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetimport/internal/config"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

// Open connects a pool using cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
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
	return pool, nil
}

// DatabaseName returns the database named by a connection URL, for logging.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// copier is the part of pgx.Tx used for COPY.
type copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store writes import results through a connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ core.Persister = (*Store)(nil)

// New creates a Store. A nil logger means slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Persist copies the valid records of res into the tables of def and
// returns the rows written per schema name.
func (s *Store) Persist(ctx context.Context, def core.LayoutDefinition, res *core.Result) (map[string]int64, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed

	counts, err := copySheets(ctx, tx, def, res)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("records persisted",
		"layout", def.Info.Key,
		"tables", len(counts),
		"duration", time.Since(start),
	)
	return counts, nil
}

func copySheets(ctx context.Context, c copier, def core.LayoutDefinition, res *core.Result) (map[string]int64, error) {
	counts := make(map[string]int64)

	for _, sd := range def.Sheets {
		if sd.Table == "" {
			continue
		}
		name := sd.Binder.Name()
		if _, done := counts[name]; done {
			continue
		}

		records := res.Records(name)
		if len(records) == 0 {
			counts[name] = 0
			continue
		}

		src := &recordSource{binder: sd.Binder, records: records, idx: -1}
		n, err := c.CopyFrom(ctx, TableIdentifier(sd.Table), Columns(sd.Binder.Specs()), src)
		if err != nil {
			return nil, fmt.Errorf("copy %s into %s: %w", name, sd.Table, err)
		}
		counts[name] = n
	}
	return counts, nil
}

// Columns returns the column names for specs: the field name, or the title
// in snake case when the field has no name.
func Columns(specs []schema.FieldSpec) []string {
	cols := make([]string, len(specs))
	for i, spec := range specs {
		if spec.Name != "" {
			cols[i] = spec.Name
			continue
		}
		cols[i] = toColumnName(spec.Title)
	}
	return cols
}

// TableIdentifier splits a possibly schema-qualified table name.
func TableIdentifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

// "Transaction ID" -> "transaction_id"
func toColumnName(title string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}

// recordSource feeds bound records to COPY.
type recordSource struct {
	binder  schema.Binder
	records []any
	idx     int
	err     error
}

func (s *recordSource) Next() bool {
	if s.err != nil {
		return false
	}
	s.idx++
	return s.idx < len(s.records)
}

func (s *recordSource) Values() ([]any, error) {
	values, err := s.binder.Values(s.records[s.idx])
	if err != nil {
		s.err = err
		return nil, err
	}
	for i, v := range values {
		values[i] = columnValue(v)
	}
	return values, nil
}

func (s *recordSource) Err() error { return s.err }

// columnValue maps the empty values left by blank cells to NULL.
func columnValue(v any) any {
	switch x := v.(type) {
	case string:
		if x == "" {
			return nil
		}
	case time.Time:
		if x.IsZero() {
			return nil
		}
	}
	return v
}
