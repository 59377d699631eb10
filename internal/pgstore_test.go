package internal

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/fabrica"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresStore(mock, "")
}

func TestPostgresStoreCreate(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "fabrica_records" (id, entity_type, data, created_at)`)).
		WithArgs("p-1", "Person", []byte(`{"name":"Avery"}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := store.Create(context.Background(), "Person", "p-1", map[string]any{"name": "Avery"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", created[fabrica.IdentityField])
	assert.Equal(t, "Avery", created["name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateAssignsIdentity(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "fabrica_records"`)).
		WithArgs(pgxmock.AnyArg(), "Person", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := store.Create(context.Background(), "Person", "", map[string]any{"name": "Avery"})
	require.NoError(t, err)
	id, ok := created[fabrica.IdentityField].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateError(t *testing.T) {
	mock, store := newMockStore(t)
	boom := errors.New("unique violation")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "fabrica_records"`)).
		WithArgs("p-1", "Person", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)

	_, err := store.Create(context.Background(), "Person", "p-1", map[string]any{"name": "Avery"})
	require.ErrorIs(t, err, boom)
}

func TestPostgresStoreList(t *testing.T) {
	mock, store := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "data"}).
		AddRow("p-1", []byte(`{"name":"Avery"}`)).
		AddRow("p-2", []byte(`{"name":"Quinn"}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, data FROM "fabrica_records" WHERE entity_type = $1 ORDER BY created_at`)).
		WithArgs("Person").
		WillReturnRows(rows)

	records, err := store.List(context.Background(), "Person")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "p-1", records[0][fabrica.IdentityField])
	assert.Equal(t, "Avery", records[0]["name"])
	assert.Equal(t, "Quinn", records[1]["name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreListDecodeError(t *testing.T) {
	mock, store := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "data"}).
		AddRow("p-1", []byte(`not json`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, data FROM "fabrica_records"`)).
		WithArgs("Person").
		WillReturnRows(rows)

	_, err := store.List(context.Background(), "Person")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode record")
}

func TestPostgresStoreSearch(t *testing.T) {
	mock, store := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "data"}).
		AddRow("p-1", []byte(`{"name":"Avery Reyes"}`))
	mock.ExpectQuery(regexp.QuoteMeta(`id = $2 OR data::text ILIKE`)).
		WithArgs("Person", "avery").
		WillReturnRows(rows)

	records, err := store.Search(context.Background(), "Person", "avery")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Avery Reyes", records[0]["name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCustomTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock, "generated_entities")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "generated_entities"`)).
		WithArgs("Person").
		WillReturnRows(pgxmock.NewRows([]string{"id", "data"}))

	records, err := store.List(context.Background(), "Person")
	require.NoError(t, err)
	assert.Empty(t, records)
}
