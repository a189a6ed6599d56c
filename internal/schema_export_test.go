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
	selectEntityType = exact(`SELECT id, created_at, name FROM "entity_types" WHERE id = $1`)
	selectTypeAttrs  = exact(`SELECT id, created_at, name, entity_type_id, value_type, allow_multiple FROM "attrs" WHERE entity_type_id = $1 ORDER BY id`)
)

func expectBookSchema(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery(selectEntityType).
		WithArgs(int64(1)).
		WillReturnRows(entityTypeRows().AddRow(int64(1), fixedTime, "book"))
	mock.ExpectQuery(selectTypeAttrs).
		WithArgs(int64(1)).
		WillReturnRows(attributeRows().
			AddRow(int64(10), fixedTime, "pages", int64(1), "int", false).
			AddRow(int64(12), fixedTime, "tags", int64(1), "str", true))
}

func addIntView(rows *pgxmock.Rows, valueID, value int64) *pgxmock.Rows {
	return rows.AddRow(
		ptr(int64(1)), ptr("book"), ptr(int64(5)), ptr("Dune"),
		ptr(int64(10)), ptr("pages"), ptr("int"), ptr(false),
		ptr(valueID), ptr(fixedTime), (*string)(nil), ptr(value), (*float64)(nil), (*time.Time)(nil), (*bool)(nil),
	)
}

func TestEntityTypeSchema(t *testing.T) {
	store, mock := newMockStore(t)
	expectBookSchema(mock)

	schema, err := store.EntityTypeSchema(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "book", schema.Title)
	require.Contains(t, schema.Properties, "pages")
	assert.Equal(t, "integer", schema.Properties["pages"].Type)
	assert.Equal(t, "array", schema.Properties["tags"].Type)
	assert.Equal(t, "string", schema.Properties["tags"].Items.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateEntity(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(selectEntity).
		WithArgs(int64(5)).
		WillReturnRows(entityRows().AddRow(int64(5), fixedTime, "Dune", int64(1)))
	expectBookSchema(mock)
	rows := addIntView(viewRows(), 100, 412)
	addStrView(rows, 12, "tags", true, 101, "scifi")
	addStrView(rows, 12, "tags", true, 102, "classic")
	mock.ExpectQuery(selectExistingViews).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	require.NoError(t, store.ValidateEntity(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateEntityFlagsDuplicateSingleValue(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(selectEntity).
		WithArgs(int64(5)).
		WillReturnRows(entityRows().AddRow(int64(5), fixedTime, "Dune", int64(1)))
	expectBookSchema(mock)
	rows := addIntView(viewRows(), 100, 412)
	addIntView(rows, 101, 500)
	mock.ExpectQuery(selectExistingViews).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	err := store.ValidateEntity(context.Background(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, eav.ErrValidation)

	var eavErr *eav.EAVError
	require.ErrorAs(t, err, &eavErr)
	assert.Equal(t, eav.ErrCodeSchemaViolation, eavErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
