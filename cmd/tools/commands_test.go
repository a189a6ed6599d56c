package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/lychee-technology/eav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	eav.Store

	closed    bool
	created   *eav.CreateValueRequest
	lastQuery string
	lastPage  int
}

func (f *fakeStore) Close() { f.closed = true }

func (f *fakeStore) ListEntityTypes(ctx context.Context) ([]eav.EntityType, error) {
	return []eav.EntityType{{ID: 1, Name: "book"}, {ID: 2, Name: "film"}}, nil
}

func (f *fakeStore) GetAttribute(ctx context.Context, id int64) (*eav.Attribute, error) {
	if id != 3 {
		return nil, eav.NewNotFoundError("attribute", id)
	}
	return &eav.Attribute{ID: 3, Name: "pages", EntityTypeID: 1, ValueType: eav.ValueTypeInt}, nil
}

func (f *fakeStore) CreateValue(ctx context.Context, req *eav.CreateValueRequest) (*eav.Value, error) {
	f.created = req
	return &eav.Value{ID: 20, EntityID: req.EntityID, AttrID: req.AttrID, ValuePayload: req.ValuePayload}, nil
}

func (f *fakeStore) Search(ctx context.Context, input string, page int) ([]eav.Entity, error) {
	f.lastQuery, f.lastPage = input, page
	return []eav.Entity{{ID: 1, Name: "Dune", EntityTypeID: 1}}, nil
}

func runCLI(t *testing.T, store eav.Store, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	previous := openStore
	openStore = func(ctx context.Context, c *eav.Config) (eav.Store, error) { return store, nil }
	t.Cleanup(func() { openStore = previous })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTypesListYAML(t *testing.T) {
	store := &fakeStore{}
	out, err := runCLI(t, store, "types", "list", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: book")
	assert.Contains(t, out, "name: film")
	assert.True(t, store.closed)
}

func TestValuesCreateParsesByAttributeType(t *testing.T) {
	store := &fakeStore{}
	_, err := runCLI(t, store, "values", "create", "5", "3", "412", "--unit", "pages", "-o", "json")
	require.NoError(t, err)
	require.NotNil(t, store.created)
	assert.Equal(t, int64(5), store.created.EntityID)
	assert.Equal(t, int64(412), *store.created.ValueInt)
	assert.Equal(t, "pages", *store.created.ValueStr)

	_, err = runCLI(t, &fakeStore{}, "values", "create", "5", "3", "lots", "-o", "json")
	assert.ErrorContains(t, err, "not an integer")

	_, err = runCLI(t, &fakeStore{}, "values", "create", "5", "4", "1", "-o", "json")
	assert.ErrorIs(t, err, eav.ErrNotFound)
}

func TestSearchJoinsArgs(t *testing.T) {
	store := &fakeStore{}
	out, err := runCLI(t, store, "search", "pages", ">", "100", "--page", "2", "-o", "table")
	require.NoError(t, err)
	assert.Equal(t, "pages > 100", store.lastQuery)
	assert.Equal(t, 2, store.lastPage)
	assert.Contains(t, out, "Dune")
}

func TestRejectsUnknownOutput(t *testing.T) {
	_, err := runCLI(t, &fakeStore{}, "types", "list", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestParseIDArg(t *testing.T) {
	id, err := parseIDArg("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-1", "x"} {
		_, err := parseIDArg(bad)
		assert.Error(t, err, bad)
	}
}

func TestHealthRawProbe(t *testing.T) {
	var probed string
	previous := probeDatabase
	probeDatabase = func(ctx context.Context, dsn string, timeout time.Duration) error {
		probed = dsn
		return nil
	}
	t.Cleanup(func() {
		probeDatabase = previous
		rawProbe = false
	})
	t.Setenv("EAV_DATABASE_URL", "postgres://probe@localhost/eav")

	store := &fakeStore{}
	_, err := runCLI(t, store, "health", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "postgres://probe@localhost/eav", probed)
	assert.False(t, store.closed)
}
