package factory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lychee-technology/fabrica"
	"github.com/lychee-technology/fabrica/internal"
)

// NewGenerator creates a generation engine over the given schema source,
// store and content backend. This is the primary way for external projects
// to obtain a fabrica.Generator.
//
// The backend may be nil; every generation then falls back to deterministic
// placeholder synthesis.
//
// Usage:
//
//	config := fabrica.DefaultConfig()
//	gen, err := factory.NewGenerator(config, schema, store, backend)
//	if err != nil {
//	    // handle error
//	}
func NewGenerator(config *fabrica.Config, schema fabrica.SchemaSource, store fabrica.Store, backend fabrica.ContentBackend) (fabrica.Generator, error) {
	return internal.NewEngine(config, schema, store, backend)
}

// queryPool is the subset of pgxpool.Pool the table check needs. Kept as an
// interface so tests can substitute a mock pool.
type queryPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// tableChecker verifies that the records table exists. Replaceable in tests.
var tableChecker = checkRecordsTable

func checkRecordsTable(pool queryPool, table string) (bool, error) {
	var exists bool
	err := pool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1)`, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to verify database connection: %w", err)
	}
	return exists, nil
}

// NewGeneratorWithPool creates a generator persisting records as JSONB rows
// in PostgreSQL. The records table must already exist; fabrica-tools init-db
// creates it. An empty table name selects the default.
func NewGeneratorWithPool(config *fabrica.Config, schema fabrica.SchemaSource, pool *pgxpool.Pool, table string, backend fabrica.ContentBackend) (fabrica.Generator, error) {
	if pool == nil {
		return nil, fabrica.NewConfigError("database pool is required")
	}

	store := internal.NewPostgresStore(pool, table)

	exists, err := tableChecker(pool, store.Table())
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("records table %q is missing, run fabrica-tools init-db first", store.Table())
	}

	return internal.NewEngine(config, schema, store, backend)
}

// NewMemoryGenerator creates a generator over the in-memory store. Intended
// for demos and tests.
func NewMemoryGenerator(config *fabrica.Config, schema fabrica.SchemaSource, backend fabrica.ContentBackend) (fabrica.Generator, *internal.MemoryStore, error) {
	store := internal.NewMemoryStore()
	gen, err := internal.NewEngine(config, schema, store, backend)
	if err != nil {
		return nil, nil, err
	}
	return gen, store, nil
}
