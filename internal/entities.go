package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav"
)

const entityColumns = "id, created_at, name, entity_type_id"

func scanEntity(row pgx.Row) (eav.Entity, error) {
	var e eav.Entity
	err := row.Scan(&e.ID, &e.CreatedAt, &e.Name, &e.EntityTypeID)
	return e, err
}

func collectEntities(operation string, rows pgx.Rows) ([]eav.Entity, error) {
	defer rows.Close()
	out := make([]eav.Entity, 0)
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, storeError(operation, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(operation, err)
	}
	return out, nil
}

// ListEntities pages through the entities of one type in insertion order.
func (s *PostgresStore) ListEntities(ctx context.Context, entityTypeID int64, page int) ([]eav.Entity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_type_id = $1 ORDER BY id LIMIT $2 OFFSET $3",
		entityColumns, s.tables.entities)
	return s.queryEntities(ctx, "list entities", query, page, entityTypeID)
}

func (s *PostgresStore) GetEntity(ctx context.Context, id int64) (*eav.Entity, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.getEntity(ctx, pool, id)
}

func (s *PostgresStore) getEntity(ctx context.Context, q querier, id int64) (*eav.Entity, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", entityColumns, s.tables.entities)
	e, err := scanEntity(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eav.NewNotFoundError("entity", id)
	}
	if err != nil {
		return nil, storeError("get entity", err)
	}
	return &e, nil
}

// CreateEntity inserts an entity under the type named entityTypeName. When
// several types share the name the oldest one wins.
func (s *PostgresStore) CreateEntity(ctx context.Context, entityTypeName, name string) (*eav.Entity, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eav.NewValidationError(eav.ErrCodeInvalidName, "name", "entity name must not be empty")
	}
	defer track(ctx, "create entity")()

	query := fmt.Sprintf(
		"INSERT INTO %s (name, entity_type_id) SELECT $2, id FROM %s WHERE name = $1 ORDER BY id LIMIT 1 RETURNING %s",
		s.tables.entities, s.tables.entityTypes, entityColumns,
	)
	debugQuery("create entity", query, entityTypeName, name)
	e, err := scanEntity(pool.QueryRow(ctx, query, entityTypeName, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eav.NewNotFoundError("entity type", entityTypeName)
	}
	if err != nil {
		return nil, storeError("create entity", err)
	}
	return &e, nil
}

func (s *PostgresStore) DeleteEntity(ctx context.Context, id int64) error {
	return s.cascadeDelete(ctx, "entity", id, []string{
		fmt.Sprintf("DELETE FROM %s WHERE entity_id = $1", s.tables.values),
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tables.entities),
	})
}
