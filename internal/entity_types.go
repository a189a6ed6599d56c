package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav"
)

const entityTypeColumns = "id, created_at, name"

func scanEntityType(row pgx.Row) (eav.EntityType, error) {
	var et eav.EntityType
	err := row.Scan(&et.ID, &et.CreatedAt, &et.Name)
	return et, err
}

func collectEntityTypes(rows pgx.Rows) ([]eav.EntityType, error) {
	defer rows.Close()
	out := make([]eav.EntityType, 0)
	for rows.Next() {
		et, err := scanEntityType(rows)
		if err != nil {
			return nil, storeError("scan entity type", err)
		}
		out = append(out, et)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate entity types", err)
	}
	return out, nil
}

func (s *PostgresStore) ListEntityTypes(ctx context.Context) ([]eav.EntityType, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", entityTypeColumns, s.tables.entityTypes)
	debugQuery("list entity types", query)
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, storeError("list entity types", err)
	}
	return collectEntityTypes(rows)
}

// ListEntityTypesByIDs returns the entity types whose ids appear in ids, in id order.
func (s *PostgresStore) ListEntityTypesByIDs(ctx context.Context, ids []int64) ([]eav.EntityType, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []eav.EntityType{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ANY($1) ORDER BY id", entityTypeColumns, s.tables.entityTypes)
	debugQuery("list entity types by ids", query, ids)
	rows, err := pool.Query(ctx, query, ids)
	if err != nil {
		return nil, storeError("list entity types by ids", err)
	}
	return collectEntityTypes(rows)
}

func (s *PostgresStore) GetEntityType(ctx context.Context, id int64) (*eav.EntityType, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", entityTypeColumns, s.tables.entityTypes)
	et, err := scanEntityType(pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eav.NewNotFoundError("entity type", id)
	}
	if err != nil {
		return nil, storeError("get entity type", err)
	}
	return &et, nil
}

func (s *PostgresStore) CreateEntityType(ctx context.Context, name string) (*eav.EntityType, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eav.NewValidationError(eav.ErrCodeInvalidName, "name", "entity type name must not be empty")
	}
	defer track(ctx, "create entity type")()

	query := fmt.Sprintf("INSERT INTO %s (name) VALUES ($1) RETURNING %s", s.tables.entityTypes, entityTypeColumns)
	debugQuery("create entity type", query, name)
	et, err := scanEntityType(pool.QueryRow(ctx, query, name))
	if err != nil {
		return nil, storeError("create entity type", err)
	}
	return &et, nil
}

// DeleteEntityType removes the type together with its entities, attributes and
// every value hanging off either.
func (s *PostgresStore) DeleteEntityType(ctx context.Context, id int64) error {
	t := s.tables
	return s.cascadeDelete(ctx, "entity type", id, []string{
		fmt.Sprintf("DELETE FROM %s WHERE entity_id IN (SELECT id FROM %s WHERE entity_type_id = $1)", t.values, t.entities),
		fmt.Sprintf("DELETE FROM %s WHERE attr_id IN (SELECT id FROM %s WHERE entity_type_id = $1)", t.values, t.attrs),
		fmt.Sprintf("DELETE FROM %s WHERE entity_type_id = $1", t.entities),
		fmt.Sprintf("DELETE FROM %s WHERE entity_type_id = $1", t.attrs),
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.entityTypes),
	})
}
