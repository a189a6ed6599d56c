package internal

import (
	"context"
	"math"
	"testing"

	"github.com/lychee-technology/eav"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEntitiesPaginates(t *testing.T) {
	cfg := eav.DefaultConfig()
	cfg.Query.PageSize = 2
	store, mock := newMockStoreWithConfig(t, cfg)

	query := exact(`SELECT id, created_at, name, entity_type_id FROM "entities" WHERE entity_type_id = $1 ORDER BY id LIMIT $2 OFFSET $3`)
	mock.ExpectQuery(query).
		WithArgs(int64(1), 2, 0).
		WillReturnRows(entityRows().
			AddRow(int64(1), fixedTime, "a", int64(1)).
			AddRow(int64(2), fixedTime, "b", int64(1)))
	mock.ExpectQuery(query).
		WithArgs(int64(1), 2, 2).
		WillReturnRows(entityRows().
			AddRow(int64(3), fixedTime, "c", int64(1)).
			AddRow(int64(4), fixedTime, "d", int64(1)))
	mock.ExpectQuery(query).
		WithArgs(int64(1), 2, 4).
		WillReturnRows(entityRows().AddRow(int64(5), fixedTime, "e", int64(1)))

	var ids []int64
	for page := 1; page <= 3; page++ {
		entities, err := store.ListEntities(context.Background(), 1, page)
		require.NoError(t, err)
		for _, e := range entities {
			ids = append(ids, e.ID)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)

	_, err := store.ListEntities(context.Background(), 1, 0)
	assert.ErrorIs(t, err, eav.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntity(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(exact(`SELECT id, created_at, name, entity_type_id FROM "entities" WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(entityRows().AddRow(int64(5), fixedTime, "Dune", int64(2)))
	mock.ExpectQuery(exact(`SELECT id, created_at, name, entity_type_id FROM "entities" WHERE id = $1`)).
		WithArgs(int64(6)).
		WillReturnRows(entityRows())

	e, err := store.GetEntity(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, eav.Entity{ID: 5, CreatedAt: fixedTime, Name: "Dune", EntityTypeID: 2}, *e)

	_, err = store.GetEntity(context.Background(), 6)
	assert.ErrorIs(t, err, eav.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEntityResolvesTypeByName(t *testing.T) {
	store, mock := newMockStore(t)

	insert := exact(`INSERT INTO "entities" (name, entity_type_id) SELECT $2, id FROM "entity_types" WHERE name = $1 ORDER BY id LIMIT 1 RETURNING id, created_at, name, entity_type_id`)
	mock.ExpectQuery(insert).
		WithArgs("book", "Dune").
		WillReturnRows(entityRows().AddRow(int64(8), fixedTime, "Dune", int64(2)))
	mock.ExpectQuery(insert).
		WithArgs("comic", "Watchmen").
		WillReturnRows(entityRows())

	e, err := store.CreateEntity(context.Background(), "book", "Dune")
	require.NoError(t, err)
	assert.Equal(t, int64(8), e.ID)
	assert.Equal(t, int64(2), e.EntityTypeID)

	_, err = store.CreateEntity(context.Background(), "comic", "Watchmen")
	assert.ErrorIs(t, err, eav.ErrNotFound)

	_, err = store.CreateEntity(context.Background(), "book", "")
	assert.ErrorIs(t, err, eav.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntityCascade(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(exact(`DELETE FROM "values" WHERE entity_id = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(exact(`DELETE FROM "entities" WHERE id = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	require.NoError(t, store.DeleteEntity(context.Background(), 8))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntitiesRecordsTelemetry(t *testing.T) {
	var got []recordedMetric
	RegisterTelemetryEmitter(func(ctx context.Context, name string, labels map[string]string, value any) {
		got = append(got, recordedMetric{name: name, operation: labels["operation"], value: value})
	})
	t.Cleanup(func() { RegisterTelemetryEmitter(nil) })

	store, mock := newMockStore(t)
	mock.ExpectQuery(prefix(`SELECT id, created_at, name, entity_type_id FROM "entities" WHERE entity_type_id = $1`)).
		WithArgs(int64(1), 25, math.MaxInt).
		WillReturnRows(entityRows())

	entities, err := store.ListEntities(context.Background(), 1, math.MaxInt/25+2)
	require.NoError(t, err)
	assert.Empty(t, entities)

	require.Len(t, got, 2)
	assert.Equal(t, recordedMetric{"eav_operation_rows", "list entities", int64(0)}, got[0])
	assert.Equal(t, "eav_operation_latency_ms", got[1].name)
	assert.Equal(t, "list entities", got[1].operation)
	require.NoError(t, mock.ExpectationsWereMet())
}
