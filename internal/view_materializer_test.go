package internal

import (
	"context"
	"testing"
	"time"

	"github.com/lychee-technology/eav"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selectExistingViews = prefix(`SELECT entity_type_id, entity_type, entity_id, entity, attr_id, attr, value_type, allow_multiple,`)
	selectPossible      = exact(`SELECT entity_type_id, entity_type, attr_id, attr, value_type, allow_multiple FROM "all_possible_values" WHERE entity_type_id = $1 ORDER BY attr_id`)
)

func viewRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"entity_type_id", "entity_type", "entity_id", "entity", "attr_id", "attr", "value_type", "allow_multiple",
		"value_id", "created_at", "value_str", "value_int", "value_float", "value_time", "value_bool",
	})
}

func possibleRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"entity_type_id", "entity_type", "attr_id", "attr", "value_type", "allow_multiple"})
}

func addStrView(rows *pgxmock.Rows, attrID int64, attr string, multi bool, valueID int64, value string) *pgxmock.Rows {
	return rows.AddRow(
		ptr(int64(1)), ptr("book"), ptr(int64(5)), ptr("Dune"),
		ptr(attrID), ptr(attr), ptr("str"), ptr(multi),
		ptr(valueID), ptr(fixedTime), ptr(value), (*int64)(nil), (*float64)(nil), (*time.Time)(nil), (*bool)(nil),
	)
}

func TestMaterializeViewsGapFilling(t *testing.T) {
	entity := eav.Entity{ID: 5, Name: "Dune", EntityTypeID: 1}
	title := "Dune"
	str := eav.ValueTypeStr

	existing := []eav.View{{
		EntityTypeID: ptr(int64(1)), EntityType: ptr("book"), EntityID: ptr(int64(5)), Entity: ptr("Dune"),
		AttrID: ptr(int64(10)), Attr: ptr("A"), ValueType: &str, AllowMultiple: ptr(false),
		ValueID: ptr(int64(100)), ValueStr: &title,
	}}
	possible := []possibleAttribute{
		{Attribute: eav.Attribute{ID: 10, Name: "A", EntityTypeID: 1, ValueType: eav.ValueTypeStr}, EntityTypeName: "book"},
		{Attribute: eav.Attribute{ID: 11, Name: "B", EntityTypeID: 1, ValueType: eav.ValueTypeInt}, EntityTypeName: "book"},
		{Attribute: eav.Attribute{ID: 12, Name: "C", EntityTypeID: 1, ValueType: eav.ValueTypeStr, AllowMultiple: true}, EntityTypeName: "book"},
	}

	views := materializeViews(entity, existing, possible)
	require.Len(t, views, 2)

	assert.Equal(t, "A", *views[0].Attr)
	assert.False(t, views[0].IsPlaceholder())
	assert.Equal(t, "Dune", *views[0].ValueStr)

	assert.Equal(t, "B", *views[1].Attr)
	assert.True(t, views[1].IsPlaceholder())
	assert.Nil(t, views[1].ValueInt)
	assert.Equal(t, int64(5), *views[1].EntityID)
	assert.Equal(t, "book", *views[1].EntityType)
	assert.Equal(t, eav.ValueTypeInt, *views[1].ValueType)
}

func TestMaterializeViewsDropsSingleValuedDuplicates(t *testing.T) {
	entity := eav.Entity{ID: 5, Name: "Dune", EntityTypeID: 1}
	view := func(attrID, valueID int64, multi bool) eav.View {
		return eav.View{AttrID: ptr(attrID), AllowMultiple: ptr(multi), ValueID: ptr(valueID)}
	}

	existing := []eav.View{
		view(10, 100, false),
		view(10, 101, false),
		view(12, 102, true),
		view(12, 103, true),
	}
	views := materializeViews(entity, existing, nil)
	require.Len(t, views, 3)
	assert.Equal(t, int64(100), *views[0].ValueID)
	assert.Equal(t, int64(102), *views[1].ValueID)
	assert.Equal(t, int64(103), *views[2].ValueID)
}

func TestFetchViews(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(selectEntity).
		WithArgs(int64(5)).
		WillReturnRows(entityRows().AddRow(int64(5), fixedTime, "Dune", int64(1)))
	mock.ExpectQuery(selectExistingViews).
		WithArgs(int64(5)).
		WillReturnRows(addStrView(viewRows(), 10, "A", false, 100, "Frank Herbert"))
	mock.ExpectQuery(selectPossible).
		WithArgs(int64(1)).
		WillReturnRows(possibleRows().
			AddRow(int64(1), "book", int64(10), "A", "str", false).
			AddRow(int64(1), "book", int64(11), "B", "int", false).
			AddRow(int64(1), "book", int64(12), "C", "str", true))

	views, err := store.FetchViews(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Frank Herbert", *views[0].ValueStr)
	assert.Equal(t, eav.ValueTypeStr, *views[0].ValueType)
	assert.True(t, views[1].IsPlaceholder())
	assert.Equal(t, int64(11), *views[1].AttrID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchViewsPagesCombinedList(t *testing.T) {
	cfg := eav.DefaultConfig()
	cfg.Query.PageSize = 2
	store, mock := newMockStoreWithConfig(t, cfg)

	for range 2 {
		mock.ExpectQuery(selectEntity).
			WithArgs(int64(5)).
			WillReturnRows(entityRows().AddRow(int64(5), fixedTime, "Dune", int64(1)))
		rows := viewRows()
		addStrView(rows, 12, "C", true, 100, "scifi")
		addStrView(rows, 12, "C", true, 101, "classic")
		mock.ExpectQuery(selectExistingViews).
			WithArgs(int64(5)).
			WillReturnRows(rows)
		mock.ExpectQuery(selectPossible).
			WithArgs(int64(1)).
			WillReturnRows(possibleRows().
				AddRow(int64(1), "book", int64(11), "B", "int", false).
				AddRow(int64(1), "book", int64(12), "C", "str", true))
	}

	first, err := store.FetchViews(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(100), *first[0].ValueID)
	assert.Equal(t, int64(101), *first[1].ValueID)

	second, err := store.FetchViews(context.Background(), 5, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].IsPlaceholder())
	assert.Equal(t, "B", *second[0].Attr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchViewsUnknownEntity(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(selectEntity).
		WithArgs(int64(404)).
		WillReturnRows(entityRows())

	_, err := store.FetchViews(context.Background(), 404, 1)
	assert.ErrorIs(t, err, eav.ErrNotFound)

	_, err = store.FetchViews(context.Background(), 5, 0)
	assert.ErrorIs(t, err, eav.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}
