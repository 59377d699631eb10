package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lychee-technology/fabrica"
)

// PgxPool is the subset of pgxpool.Pool the postgres store needs. It is
// satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const defaultRecordsTable = "fabrica_records"

// PostgresStore persists generated records as JSONB documents in a single
// table keyed by (entity_type, id).
type PostgresStore struct {
	db    PgxPool
	table string
}

// NewPostgresStore creates a store over the given pool. An empty table name
// selects the default table.
func NewPostgresStore(db PgxPool, table string) *PostgresStore {
	if table == "" {
		table = defaultRecordsTable
	}
	return &PostgresStore{db: db, table: table}
}

// Table returns the records table this store writes to.
func (s *PostgresStore) Table() string {
	return s.table
}

func (s *PostgresStore) Create(ctx context.Context, typeName, id string, data map[string]any) (map[string]any, error) {
	if id == "" {
		id = uuid.NewString()
	}

	doc := copyMapDeep(data)
	delete(doc, fabrica.IdentityField)
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal record for %s: %w", typeName, err)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, entity_type, data, created_at) VALUES ($1, $2, $3, $4)`,
		pgx.Identifier{s.table}.Sanitize(),
	)
	if _, err := s.db.Exec(ctx, query, id, typeName, payload, time.Now().UnixMilli()); err != nil {
		return nil, fmt.Errorf("insert record for %s: %w", typeName, err)
	}

	doc[fabrica.IdentityField] = id
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, typeName string) ([]map[string]any, error) {
	query := fmt.Sprintf(
		`SELECT id, data FROM %s WHERE entity_type = $1 ORDER BY created_at`,
		pgx.Identifier{s.table}.Sanitize(),
	)
	rows, err := s.db.Query(ctx, query, typeName)
	if err != nil {
		return nil, fmt.Errorf("list records for %s: %w", typeName, err)
	}
	defer rows.Close()
	return scanRecords(rows, typeName)
}

func (s *PostgresStore) Search(ctx context.Context, typeName, query string) ([]map[string]any, error) {
	sql := fmt.Sprintf(
		`SELECT id, data FROM %s WHERE entity_type = $1 AND (id = $2 OR data::text ILIKE '%%' || $2 || '%%') ORDER BY created_at`,
		pgx.Identifier{s.table}.Sanitize(),
	)
	rows, err := s.db.Query(ctx, sql, typeName, query)
	if err != nil {
		return nil, fmt.Errorf("search records for %s: %w", typeName, err)
	}
	defer rows.Close()
	return scanRecords(rows, typeName)
}

func scanRecords(rows pgx.Rows, typeName string) ([]map[string]any, error) {
	records := make([]map[string]any, 0)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan record for %s: %w", typeName, err)
		}

		record := make(map[string]any)
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decode record %s for %s: %w", id, typeName, err)
		}
		record[fabrica.IdentityField] = id
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records for %s: %w", typeName, err)
	}
	return records, nil
}
