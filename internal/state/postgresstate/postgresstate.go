// Package postgresstate adapts a PostgreSQL database to the state.Source
// contract (§4.3), grounded in the teacher's
// internal/storage.PostgreSQLContentStore: a *sql.DB wrapped in a small
// struct, parameterized queries, context-aware calls throughout.
package postgresstate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver, registered for database/sql

	"github.com/lerian-tools/conformist/internal/state"
)

// Source samples entity kinds from PostgreSQL tables. Each table visible to
// the connected role under the public schema is treated as one entity kind,
// unless an explicit table list is supplied.
type Source struct {
	db     *sql.DB
	tables []string // explicit table allowlist; empty discovers via information_schema
	keyCol string   // primary key column name, assumed uniform ("id" by default)

	// prepared memoizes per-kind count statements when caching is
	// enabled (§9 "half-disabled compiled-query path"); semantics are
	// unchanged either way, it only avoids re-preparing the same statement.
	cacheQueries bool
	prepared     map[string]*sql.Stmt
}

// Option configures a Source.
type Option func(*Source)

// WithTables restricts sampling to an explicit table list instead of
// discovering every table in information_schema.
func WithTables(tables ...string) Option {
	return func(s *Source) { s.tables = tables }
}

// WithKeyColumn overrides the assumed primary key column name ("id").
func WithKeyColumn(name string) Option {
	return func(s *Source) { s.keyCol = name }
}

// WithQueryCache enables reusing prepared statements across Capture calls
// (§9); it never changes what is returned, only how it is fetched.
func WithQueryCache() Option {
	return func(s *Source) { s.cacheQueries = true }
}

// New builds a Source over db.
func New(db *sql.DB, opts ...Option) *Source {
	s := &Source{db: db, keyCol: "id", prepared: make(map[string]*sql.Stmt)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ state.Source = (*Source)(nil)

func (s *Source) EntityKinds(ctx context.Context) ([]state.EntityKindDescriptor, error) {
	if len(s.tables) > 0 {
		out := make([]state.EntityKindDescriptor, len(s.tables))
		for i, t := range s.tables {
			out[i] = state.EntityKindDescriptor{Name: t, KeyFieldName: s.keyCol, TypeID: "postgres.table"}
		}
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("postgresstate: list tables: %w", err)
	}
	defer rows.Close()

	var out []state.EntityKindDescriptor
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgresstate: scan table name: %w", err)
		}
		out = append(out, state.EntityKindDescriptor{Name: name, KeyFieldName: s.keyCol, TypeID: "postgres.table"})
	}
	return out, rows.Err()
}

func (s *Source) Count(ctx context.Context, kind string) (int, error) {
	var n int
	if s.cacheQueries {
		stmt, err := s.countStmt(ctx, kind)
		if err != nil {
			return 0, err
		}
		if err := stmt.QueryRowContext(ctx).Scan(&n); err != nil {
			return 0, fmt.Errorf("postgresstate: count %s: %w", kind, err)
		}
		return n, nil
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(kind))
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgresstate: count %s: %w", kind, err)
	}
	return n, nil
}

func (s *Source) ListAll(ctx context.Context, kind string) ([]state.Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC", quoteIdent(kind), quoteIdent(s.keyCol))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgresstate: list %s: %w", kind, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []state.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("postgresstate: scan %s row: %w", kind, err)
		}
		rec := make(state.Record, len(cols))
		for i, col := range cols {
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Source) RandomKey(ctx context.Context, kind string) (any, bool, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY random() LIMIT 1", quoteIdent(s.keyCol), quoteIdent(kind))
	var key any
	err := s.db.QueryRowContext(ctx, query).Scan(&key)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgresstate: random key %s: %w", kind, err)
	}
	return key, true, nil
}

func (s *Source) countStmt(ctx context.Context, kind string) (*sql.Stmt, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(kind))
	if !s.cacheQueries {
		return s.db.PrepareContext(ctx, query)
	}
	if stmt, ok := s.prepared[kind]; ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	s.prepared[kind] = stmt
	return stmt, nil
}

func quoteIdent(ident string) string {
	return `"` + ident + `"`
}
