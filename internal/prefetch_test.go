package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/fabrica"
)

func orgSchema() fabrica.MapSchema {
	return fabrica.MapSchema{
		"Employee": {
			Name: "Employee",
			Fields: []fabrica.Field{
				{Name: "fullName", Type: fabrica.TypeString},
				{Name: "department", Type: "Department", IsRelation: true, Operator: fabrica.OperatorForwardExact,
					Direction: fabrica.DirectionForward, RelatedType: "Department"},
			},
		},
		"Department": {
			Name: "Department",
			Fields: []fabrica.Field{
				{Name: "name", Type: fabrica.TypeString},
				{Name: "company", Type: "Company", IsRelation: true, Operator: fabrica.OperatorForwardExact,
					Direction: fabrica.DirectionForward, RelatedType: "Company"},
			},
		},
		"Company": {
			Name: "Company",
			Fields: []fabrica.Field{
				{Name: "name", Type: fabrica.TypeString},
			},
		},
	}
}

// erroringStore fails every read. Create is never reached in these tests.
type erroringStore struct{ err error }

func (s *erroringStore) Create(context.Context, string, string, map[string]any) (map[string]any, error) {
	return nil, s.err
}

func (s *erroringStore) List(context.Context, string) ([]map[string]any, error) {
	return nil, s.err
}

func (s *erroringStore) Search(context.Context, string, string) ([]map[string]any, error) {
	return nil, s.err
}

func seedOrg(t *testing.T, store *MemoryStore) (companyID, departmentID string) {
	t.Helper()
	ctx := context.Background()

	company, err := store.Create(ctx, "Company", "", map[string]any{"name": "Meridian Labs"})
	require.NoError(t, err)
	companyID = company[fabrica.IdentityField].(string)

	department, err := store.Create(ctx, "Department", "", map[string]any{
		"name":    "Research",
		"company": companyID,
	})
	require.NoError(t, err)
	departmentID = department[fabrica.IdentityField].(string)
	return companyID, departmentID
}

func TestPrefetchSinglePath(t *testing.T) {
	store := NewMemoryStore()
	_, departmentID := seedOrg(t, store)
	prefetcher := NewStorePrefetcher(orgSchema(), store)

	fetched, err := prefetcher.Prefetch(context.Background(), []string{"department"},
		map[string]any{"department": departmentID}, "Employee")
	require.NoError(t, err)

	require.Contains(t, fetched, "department")
	assert.Equal(t, "Research", fetched["department"]["name"])
}

func TestPrefetchNestedPathReusesAncestor(t *testing.T) {
	store := NewMemoryStore()
	_, departmentID := seedOrg(t, store)
	prefetcher := NewStorePrefetcher(orgSchema(), store)

	fetched, err := prefetcher.Prefetch(context.Background(),
		[]string{"department.company", "department"},
		map[string]any{"department": departmentID}, "Employee")
	require.NoError(t, err)

	require.Len(t, fetched, 2)
	assert.Equal(t, "Research", fetched["department"]["name"])
	assert.Equal(t, "Meridian Labs", fetched["department.company"]["name"])
}

func TestPrefetchSkipsUnresolvablePaths(t *testing.T) {
	store := NewMemoryStore()
	prefetcher := NewStorePrefetcher(orgSchema(), store)

	fetched, err := prefetcher.Prefetch(context.Background(),
		[]string{"department", "fullName", "missing"},
		map[string]any{"fullName": "Avery"}, "Employee")
	require.NoError(t, err)
	assert.Empty(t, fetched)
}

func TestPrefetchWrapsStoreErrors(t *testing.T) {
	boom := errors.New("store offline")
	prefetcher := NewStorePrefetcher(orgSchema(), &erroringStore{err: boom})

	_, err := prefetcher.Prefetch(context.Background(), []string{"department"},
		map[string]any{"department": "d-1"}, "Employee")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var fe *fabrica.FabricaError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fabrica.ErrCodePrefetchFailed, fe.Code)
}

func TestTemplateResolverRendersRecords(t *testing.T) {
	store := NewMemoryStore()
	_, departmentID := seedOrg(t, store)
	resolver := NewStoreTemplateResolver(orgSchema(), store)

	// A relation field holding a raw identity is fetched and rendered.
	out, err := resolver.Resolve(context.Background(), "Works in {department}",
		map[string]any{"department": departmentID}, "Employee")
	require.NoError(t, err)
	assert.Equal(t, "Works in Research", out)

	// An already-overlaid record renders without a fetch.
	out, err = resolver.Resolve(context.Background(), "Works in {department.name}",
		map[string]any{"department": map[string]any{"name": "Research"}}, "Employee")
	require.NoError(t, err)
	assert.Equal(t, "Works in Research", out)
}

func TestTemplateResolverFallbacks(t *testing.T) {
	store := NewMemoryStore()
	resolver := NewStoreTemplateResolver(orgSchema(), store)

	// Unresolvable references stay in place.
	out, err := resolver.Resolve(context.Background(), "Hi {missing}", map[string]any{}, "Employee")
	require.NoError(t, err)
	assert.Equal(t, "Hi {missing}", out)

	// Non-string, non-map values render with %v.
	out, err = resolver.Resolve(context.Background(), "{count} items",
		map[string]any{"count": 3}, "Employee")
	require.NoError(t, err)
	assert.Equal(t, "3 items", out)

	// A non-relation string field renders verbatim.
	out, err = resolver.Resolve(context.Background(), "Hi {fullName}",
		map[string]any{"fullName": "Avery"}, "Employee")
	require.NoError(t, err)
	assert.Equal(t, "Hi Avery", out)
}
