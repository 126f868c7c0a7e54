// Package sink lands accepted records in a DuckDB analytics database.
//
// Each template maps to one table named after its data type, with one column
// per generation rule. Column types are inferred from the rule methods, so
// the table matches what the engine actually emits.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// Open opens a DuckDB database at path. An empty path opens an in-memory
// database. The caller owns the returned pool and must close it.
func Open(path string) (*sql.DB, error) {
	pool, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return pool, nil
}

// DuckDBSink writes generated records to per-template DuckDB tables.
type DuckDBSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDuckDBSink creates a sink on an already-open DuckDB pool.
func NewDuckDBSink(db *sql.DB, logger *slog.Logger) *DuckDBSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDBSink{
		db:     db,
		logger: logger.With("component", "duckdb_sink"),
	}
}

// EnsureTable creates the target table for a template if it does not exist.
// Existing tables are left untouched; schema evolution after a template
// changes is not handled here.
func (s *DuckDBSink) EnsureTable(ctx context.Context, t *domain.Template) error {
	if len(t.Rules) == 0 {
		return domain.ErrValidation("template %s has no rules to derive columns from", t.ID)
	}

	cols := make([]string, 0, len(t.Rules))
	for _, rule := range t.Rules {
		cols = append(cols, quoteIdent(rule.Field)+" "+columnType(rule))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(t.DataType), strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table %s: %w", t.DataType, err)
	}

	s.logger.Debug("ensured sink table", "table", t.DataType, "columns", len(t.Rules))
	return nil
}

// InsertBatch appends records to the template's table inside one transaction.
// Fields a record does not carry are inserted as NULL.
func (s *DuckDBSink) InsertBatch(ctx context.Context, t *domain.Template, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	fields := make([]string, 0, len(t.Rules))
	quoted := make([]string, 0, len(t.Rules))
	holders := make([]string, 0, len(t.Rules))
	for _, rule := range t.Rules {
		fields = append(fields, rule.Field)
		quoted = append(quoted, quoteIdent(rule.Field))
		holders = append(holders, "?")
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(t.DataType), strings.Join(quoted, ", "), strings.Join(holders, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sink tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare sink insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(fields))
	for _, rec := range records {
		for i, f := range fields {
			if v, ok := rec[f]; ok {
				args[i] = v
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.DataType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sink tx: %w", err)
	}
	return nil
}

// columnType maps a generation rule to the DuckDB column type the engine's
// output values require.
func columnType(rule domain.GenerationRule) string {
	switch rule.Method {
	case domain.MethodLookupTable:
		return "VARCHAR"
	case domain.MethodPatternBased:
		if rule.Params.Pattern == domain.PatternBusinessHours {
			return "TIMESTAMP"
		}
		return "DOUBLE"
	default:
		return "DOUBLE"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ domain.RecordSink = (*DuckDBSink)(nil)
