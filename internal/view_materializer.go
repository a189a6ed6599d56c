package internal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav"
)

const viewColumns = `entity_type_id, entity_type, entity_id, entity, attr_id, attr, value_type, allow_multiple,
	value_id, created_at, value_str, value_int, value_float, value_time, value_bool`

// possibleAttribute is one row of the all-possible-values projection.
type possibleAttribute struct {
	eav.Attribute
	EntityTypeName string
}

func scanView(row pgx.Row) (eav.View, error) {
	var (
		v         eav.View
		valueType *string
	)
	err := row.Scan(
		&v.EntityTypeID,
		&v.EntityType,
		&v.EntityID,
		&v.Entity,
		&v.AttrID,
		&v.Attr,
		&valueType,
		&v.AllowMultiple,
		&v.ValueID,
		&v.CreatedAt,
		&v.ValueStr,
		&v.ValueInt,
		&v.ValueFloat,
		&v.ValueTime,
		&v.ValueBool,
	)
	if err != nil {
		return v, err
	}
	if valueType != nil {
		vt := eav.ValueType(*valueType)
		v.ValueType = &vt
	}
	return v, nil
}

// FetchViews returns the gap-filled view of an entity: every recorded value,
// then a placeholder for each single-valued attribute of its type that has no
// value yet. The page window applies to the combined list.
func (s *PostgresStore) FetchViews(ctx context.Context, entityID int64, page int) ([]eav.View, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	if _, _, err := pageWindow(page, s.pageSize()); err != nil {
		return nil, err
	}
	defer track(ctx, "fetch views")()

	entity, err := s.getEntity(ctx, pool, entityID)
	if err != nil {
		return nil, err
	}
	existing, err := s.existingViews(ctx, pool, entityID)
	if err != nil {
		return nil, err
	}
	possible, err := s.possibleAttributes(ctx, pool, entity.EntityTypeID)
	if err != nil {
		return nil, err
	}

	views := materializeViews(*entity, existing, possible)
	EmitRowCount(ctx, "fetch views", int64(len(views)))
	return paginate(views, page, s.pageSize())
}

func (s *PostgresStore) existingViews(ctx context.Context, q querier, entityID int64) ([]eav.View, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_id = $1 ORDER BY value_id", viewColumns, s.tables.allValues)
	debugQuery("fetch existing views", query, entityID)
	rows, err := q.Query(ctx, query, entityID)
	if err != nil {
		return nil, storeError("fetch existing views", err)
	}
	defer rows.Close()

	var views []eav.View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, storeError("scan view", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate views", err)
	}
	return views, nil
}

func (s *PostgresStore) possibleAttributes(ctx context.Context, q querier, entityTypeID int64) ([]possibleAttribute, error) {
	query := fmt.Sprintf(
		"SELECT entity_type_id, entity_type, attr_id, attr, value_type, allow_multiple FROM %s WHERE entity_type_id = $1 ORDER BY attr_id",
		s.tables.allPossibleValues,
	)
	debugQuery("fetch possible attributes", query, entityTypeID)
	rows, err := q.Query(ctx, query, entityTypeID)
	if err != nil {
		return nil, storeError("fetch possible attributes", err)
	}
	defer rows.Close()

	var attrs []possibleAttribute
	for rows.Next() {
		var (
			p         possibleAttribute
			valueType string
		)
		if err := rows.Scan(&p.EntityTypeID, &p.EntityTypeName, &p.ID, &p.Name, &valueType, &p.AllowMultiple); err != nil {
			return nil, storeError("scan possible attribute", err)
		}
		p.ValueType = eav.ValueType(valueType)
		attrs = append(attrs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate possible attributes", err)
	}
	return attrs, nil
}

// materializeViews merges recorded views with placeholders. For single-valued
// attributes only the first recorded view is kept. Repeatable attributes never
// get a placeholder.
func materializeViews(entity eav.Entity, existing []eav.View, possible []possibleAttribute) []eav.View {
	views := make([]eav.View, 0, len(existing)+len(possible))
	seen := make(map[int64]struct{}, len(possible))

	for _, v := range existing {
		if v.AttrID != nil {
			single := v.AllowMultiple == nil || !*v.AllowMultiple
			if _, dup := seen[*v.AttrID]; dup && single {
				continue
			}
			seen[*v.AttrID] = struct{}{}
		}
		views = append(views, v)
	}

	for _, p := range possible {
		if p.AllowMultiple {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		typeName := p.EntityTypeName
		views = append(views, eav.ViewFromAttribute(p.Attribute, entity, &typeName))
	}
	return views
}
