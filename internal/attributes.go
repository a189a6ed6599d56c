package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav"
)

const attributeColumns = "id, created_at, name, entity_type_id, value_type, allow_multiple"

func scanAttribute(row pgx.Row) (eav.Attribute, error) {
	var (
		a         eav.Attribute
		valueType string
	)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.Name, &a.EntityTypeID, &valueType, &a.AllowMultiple); err != nil {
		return a, err
	}
	a.ValueType = eav.ValueType(valueType)
	return a, nil
}

// ListAttributes returns the attributes declared on a type in declaration
// order. With multiOnly set, only repeatable attributes are returned.
func (s *PostgresStore) ListAttributes(ctx context.Context, entityTypeID int64, multiOnly bool) ([]eav.Attribute, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_type_id = $1", attributeColumns, s.tables.attrs)
	if multiOnly {
		query += " AND allow_multiple"
	}
	query += " ORDER BY id"

	debugQuery("list attributes", query, entityTypeID)
	rows, err := pool.Query(ctx, query, entityTypeID)
	if err != nil {
		return nil, storeError("list attributes", err)
	}
	defer rows.Close()

	attrs := make([]eav.Attribute, 0)
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, storeError("scan attribute", err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate attributes", err)
	}
	return attrs, nil
}

func (s *PostgresStore) GetAttribute(ctx context.Context, id int64) (*eav.Attribute, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.getAttribute(ctx, pool, id)
}

func (s *PostgresStore) getAttribute(ctx context.Context, q querier, id int64) (*eav.Attribute, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", attributeColumns, s.tables.attrs)
	a, err := scanAttribute(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eav.NewNotFoundError("attribute", id)
	}
	if err != nil {
		return nil, storeError("get attribute", err)
	}
	return &a, nil
}

func (s *PostgresStore) CreateAttribute(ctx context.Context, entityTypeID int64, name string, valueType eav.ValueType, allowMultiple bool) (*eav.Attribute, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eav.NewValidationError(eav.ErrCodeInvalidName, "name", "attribute name must not be empty")
	}
	if !valueType.Valid() {
		return nil, eav.NewValidationError(eav.ErrCodeInvalidValueType, "value_type",
			fmt.Sprintf("unsupported value type %q", valueType))
	}
	defer track(ctx, "create attribute")()

	query := fmt.Sprintf(
		"INSERT INTO %s (name, entity_type_id, value_type, allow_multiple) SELECT $1, id, $3, $4 FROM %s WHERE id = $2 RETURNING %s",
		s.tables.attrs, s.tables.entityTypes, attributeColumns,
	)
	debugQuery("create attribute", query, name, entityTypeID, valueType, allowMultiple)
	a, err := scanAttribute(pool.QueryRow(ctx, query, name, entityTypeID, string(valueType), allowMultiple))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eav.NewNotFoundError("entity type", entityTypeID)
	}
	if err != nil {
		return nil, storeError("create attribute", err)
	}
	return &a, nil
}

func (s *PostgresStore) DeleteAttribute(ctx context.Context, id int64) error {
	return s.cascadeDelete(ctx, "attribute", id, []string{
		fmt.Sprintf("DELETE FROM %s WHERE attr_id = $1", s.tables.values),
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tables.attrs),
	})
}
