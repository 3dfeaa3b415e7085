package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// columnsQuery lists every user-table column in ordinal order. information_schema
// stores unquoted identifiers already folded to lowercase, which matches the
// postgres dialect's name normalization.
const columnsQuery = `
	SELECT table_schema, table_name, column_name
	FROM information_schema.columns
	WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY table_schema, table_name, ordinal_position
`

// Introspector reads table schemas from a live PostgreSQL database.
type Introspector struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewIntrospector wraps an existing connection pool.
// If logger is nil, a discard logger is used.
func NewIntrospector(db *sql.DB, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Introspector{db: db, logger: logger}
}

// Open connects to PostgreSQL with the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Introspector, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return NewIntrospector(db, logger), nil
}

// Close releases the underlying connection pool.
func (in *Introspector) Close() error {
	if in.db == nil {
		return nil
	}
	return in.db.Close()
}

// Load introspects every user table and returns a catalog keyed by
// schema.table.
func (in *Introspector) Load(ctx context.Context) (analyzer.Catalog, error) {
	if in.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := in.db.QueryContext(ctx, columnsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cat := analyzer.Catalog{}
	for rows.Next() {
		var schema, table, column string
		if err := rows.Scan(&schema, &table, &column); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		key := schema + "." + table
		cat[key] = append(cat[key], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	in.logger.Debug("introspected schema", slog.Int("tables", len(cat)))
	return cat, nil
}
