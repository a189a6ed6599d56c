package internal

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav"
)

const valueColumns = "id, created_at, entity_id, attr_id, value_str, value_int, value_float, value_time, value_bool"

func scanValue(row pgx.Row) (eav.Value, error) {
	var v eav.Value
	err := row.Scan(
		&v.ID,
		&v.CreatedAt,
		&v.EntityID,
		&v.AttrID,
		&v.ValueStr,
		&v.ValueInt,
		&v.ValueFloat,
		&v.ValueTime,
		&v.ValueBool,
	)
	return v, err
}

func (s *PostgresStore) GetValue(ctx context.Context, id int64) (*eav.Value, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.getValue(ctx, pool, id)
}

func (s *PostgresStore) getValue(ctx context.Context, q querier, id int64) (*eav.Value, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", valueColumns, s.tables.values)
	v, err := scanValue(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eav.NewNotFoundError("value", id)
	}
	if err != nil {
		return nil, storeError("get value", err)
	}
	return &v, nil
}

// CreateValue records a value after checking it against the attribute's
// declared type and the entity's type.
func (s *PostgresStore) CreateValue(ctx context.Context, req *eav.CreateValueRequest) (*eav.Value, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, eav.NewValidationError(eav.ErrCodeInvalidValue, "value", "request must not be nil")
	}
	defer track(ctx, "create value")()

	attr, err := s.getAttribute(ctx, pool, req.AttrID)
	if err != nil {
		return nil, err
	}
	entity, err := s.getEntity(ctx, pool, req.EntityID)
	if err != nil {
		return nil, err
	}
	if err := checkEntityAttribute(*entity, *attr); err != nil {
		return nil, err
	}
	payload, err := coerceValue(*attr, req.ValuePayload)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (entity_id, attr_id, value_str, value_int, value_float, value_time, value_bool)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING %s`,
		s.tables.values, valueColumns,
	)
	args := []any{req.EntityID, req.AttrID, payload.ValueStr, payload.ValueInt, payload.ValueFloat, payload.ValueTime, payload.ValueBool}
	debugQuery("create value", query, args...)
	v, err := scanValue(pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, storeError("create value", err)
	}
	return &v, nil
}

// UpdateValue replaces the value columns of an existing row. The payload is
// checked against the stored attribute exactly as on create.
func (s *PostgresStore) UpdateValue(ctx context.Context, req *eav.UpdateValueRequest) (*eav.Value, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, eav.NewValidationError(eav.ErrCodeInvalidValue, "value", "request must not be nil")
	}
	defer track(ctx, "update value")()

	current, err := s.getValue(ctx, pool, req.ID)
	if err != nil {
		return nil, err
	}
	attr, err := s.getAttribute(ctx, pool, current.AttrID)
	if err != nil {
		return nil, err
	}
	payload, err := coerceValue(*attr, req.ValuePayload)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`UPDATE %s SET value_str = $2, value_int = $3, value_float = $4, value_time = $5, value_bool = $6
		WHERE id = $1 RETURNING %s`,
		s.tables.values, valueColumns,
	)
	args := []any{req.ID, payload.ValueStr, payload.ValueInt, payload.ValueFloat, payload.ValueTime, payload.ValueBool}
	debugQuery("update value", query, args...)
	v, err := scanValue(pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eav.NewNotFoundError("value", req.ID)
	}
	if err != nil {
		return nil, storeError("update value", err)
	}
	return &v, nil
}

func (s *PostgresStore) DeleteValue(ctx context.Context, id int64) error {
	return s.cascadeDelete(ctx, "value", id, []string{
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tables.values),
	})
}
