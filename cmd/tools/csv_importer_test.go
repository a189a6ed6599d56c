package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lychee-technology/eav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type importStore struct {
	eav.Store

	nextID   int64
	entities []*eav.Entity
	values   []eav.CreateValueRequest
	deleted  []int64
	rejectOn string
}

func (s *importStore) Close() {}

func (s *importStore) ListEntityTypes(ctx context.Context) ([]eav.EntityType, error) {
	return []eav.EntityType{{ID: 1, Name: "book"}}, nil
}

func (s *importStore) ListAttributes(ctx context.Context, entityTypeID int64, multiOnly bool) ([]eav.Attribute, error) {
	return []eav.Attribute{
		{ID: 10, Name: "pages", EntityTypeID: 1, ValueType: eav.ValueTypeInt},
		{ID: 11, Name: "tags", EntityTypeID: 1, ValueType: eav.ValueTypeStr, AllowMultiple: true},
		{ID: 12, Name: "active", EntityTypeID: 1, ValueType: eav.ValueTypeBool},
	}, nil
}

func (s *importStore) CreateEntity(ctx context.Context, entityTypeName, name string) (*eav.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, eav.NewValidationError("INVALID_NAME", "name", "name must not be empty")
	}
	s.nextID++
	e := &eav.Entity{ID: s.nextID, Name: name, EntityTypeID: 1}
	s.entities = append(s.entities, e)
	return e, nil
}

func (s *importStore) DeleteEntity(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *importStore) CreateValue(ctx context.Context, req *eav.CreateValueRequest) (*eav.Value, error) {
	if req.ValueStr != nil && *req.ValueStr == s.rejectOn {
		return nil, eav.NewStoreError("create value", assert.AnError)
	}
	s.values = append(s.values, *req)
	return &eav.Value{ID: int64(len(s.values)), EntityID: req.EntityID, AttrID: req.AttrID, ValuePayload: req.ValuePayload}, nil
}

func TestCSVImporter(t *testing.T) {
	store := &importStore{}
	csv := "name,pages,tags,active\n" +
		"Dune,412,scifi|classic,yes\n" +
		"Solaris,,,\n" +
		"Foundation,many,,\n"

	result, err := NewCSVImporter(store, "book", "", "|").ImportFromReader(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].RowNumber)
	assert.Equal(t, "pages", result.Errors[0].CSVColumn)
	assert.Equal(t, "many", result.Errors[0].RawValue)

	require.Len(t, store.entities, 2)
	assert.Equal(t, "Dune", store.entities[0].Name)
	assert.Equal(t, "Solaris", store.entities[1].Name)

	require.Len(t, store.values, 4)
	assert.Equal(t, int64(412), *store.values[0].ValueInt)
	assert.Equal(t, "scifi", *store.values[1].ValueStr)
	assert.Equal(t, "classic", *store.values[2].ValueStr)
	assert.True(t, *store.values[3].ValueBool)
	for _, v := range store.values {
		assert.Equal(t, int64(1), v.EntityID)
	}
}

func TestCSVImporterRemovesPartialRow(t *testing.T) {
	store := &importStore{rejectOn: "broken"}
	csv := "title,tags\nDune,scifi|broken\n"

	result, err := NewCSVImporter(store, "book", "title", "|").ImportFromReader(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []int64{1}, store.deleted)
	assert.Contains(t, result.Errors[0].Error(), `column "tags"`)
}

func TestCSVImporterRejectsHeader(t *testing.T) {
	ctx := context.Background()

	_, err := NewCSVImporter(&importStore{}, "film", "", "|").ImportFromReader(ctx, strings.NewReader("name\n"))
	assert.ErrorIs(t, err, eav.ErrNotFound)

	_, err = NewCSVImporter(&importStore{}, "book", "", "|").ImportFromReader(ctx, strings.NewReader("name,weight\n"))
	assert.ErrorContains(t, err, `column "weight"`)

	_, err = NewCSVImporter(&importStore{}, "book", "", "|").ImportFromReader(ctx, strings.NewReader("pages\n"))
	assert.ErrorContains(t, err, "name column")
}

func TestImportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,pages\nDune,412\n"), 0o600))

	store := &importStore{}
	out, err := runCLI(t, store, "import-csv", "book", path, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"success_count": 1`)
	require.Len(t, store.entities, 1)
}
