package internal

import (
	"context"
	"fmt"

	"github.com/lychee-technology/eav"
)

// compareOperators is the closed mapping from caller tokens to SQL operators.
var compareOperators = map[eav.CompareOperator]string{
	eav.CompareGreaterThan: ">",
	eav.CompareLessThan:    "<",
}

// distinctEntityColumns selects entity rows from an "e" alias.
const distinctEntityColumns = "DISTINCT e.id, e.created_at, e.name, e.entity_type_id"

func (s *PostgresStore) regexOperator() string {
	if s.cfg.Query.CaseSensitiveSearch {
		return "~"
	}
	return "~*"
}

// queryEntities runs an entity query whose last two placeholders are LIMIT and OFFSET.
func (s *PostgresStore) queryEntities(ctx context.Context, operation, query string, page int, args ...any) ([]eav.Entity, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	limit, offset, err := pageWindow(page, s.pageSize())
	if err != nil {
		return nil, err
	}
	defer track(ctx, operation)()

	args = append(args, limit, offset)
	debugQuery(operation, query, args...)
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(operation, err)
	}
	entities, err := collectEntities(operation, rows)
	if err != nil {
		return nil, err
	}
	EmitRowCount(ctx, operation, int64(len(entities)))
	return entities, nil
}

// SearchEntities matches entity names against a regular expression. With
// extended set, entities whose alternate title value matches are included too.
func (s *PostgresStore) SearchEntities(ctx context.Context, pattern string, extended bool, page int) ([]eav.Entity, error) {
	re := s.regexOperator()
	if !extended {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE name %s $1 ORDER BY id LIMIT $2 OFFSET $3",
			entityColumns, s.tables.entities, re)
		return s.queryEntities(ctx, "search entities", query, page, pattern)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE name %s $1
		OR id IN (SELECT entity_id FROM %s WHERE attr = $2 AND value_str %s $1)
		ORDER BY id LIMIT $3 OFFSET $4`,
		entityColumns, s.tables.entities, re, s.tables.allValues, re,
	)
	return s.queryEntities(ctx, "search entities extended", query, page, pattern, s.cfg.Query.AltTitleAttribute)
}

// SearchEntitiesWithAttribute returns entities holding at least one value for attrName.
func (s *PostgresStore) SearchEntitiesWithAttribute(ctx context.Context, attrName string, page int) ([]eav.Entity, error) {
	return s.queryEntities(ctx, "search entities with attribute", s.attributePresenceQuery(true), page, attrName)
}

// SearchEntitiesWithoutAttribute returns entities holding no value for attrName.
func (s *PostgresStore) SearchEntitiesWithoutAttribute(ctx context.Context, attrName string, page int) ([]eav.Entity, error) {
	return s.queryEntities(ctx, "search entities without attribute", s.attributePresenceQuery(false), page, attrName)
}

func (s *PostgresStore) attributePresenceQuery(present bool) string {
	check := "IS NULL"
	if present {
		check = "IS NOT NULL"
	}
	return fmt.Sprintf(
		`SELECT %s FROM %s e
		LEFT JOIN %s v ON v.entity_id = e.id AND v.attr = $1
		WHERE v.value_id %s
		ORDER BY e.id LIMIT $2 OFFSET $3`,
		distinctEntityColumns, s.tables.entities, s.tables.allValues, check,
	)
}

// equalityArgs derives the per-column comparison arguments for value. A nil
// argument makes its clause evaluate to NULL, which matches nothing.
func equalityArgs(value string) (intArg, floatArg any, boolArg bool) {
	switch n := tryParseNumber(value).(type) {
	case int64:
		intArg, floatArg = n, floatPrefixPattern(value)
	case float64:
		floatArg = floatPrefixPattern(value)
	}
	return intArg, floatArg, normalizeBool(value)
}

// SearchEntitiesByValue returns entities whose value for attrName equals value
// in the attribute's active column. Time attributes never match.
func (s *PostgresStore) SearchEntitiesByValue(ctx context.Context, attrName, value string, page int) ([]eav.Entity, error) {
	intArg, floatArg, boolArg := equalityArgs(value)
	return s.queryEntities(ctx, "search entities by value", s.valueEqualityQuery(), page, attrName, value, intArg, floatArg, boolArg)
}

// valueEqualityQuery has one branch per comparable value type. Time values
// have no branch and never match.
func (s *PostgresStore) valueEqualityQuery() string {
	return fmt.Sprintf(
		`SELECT %s FROM %s e
		JOIN %s v ON v.entity_id = e.id
		WHERE v.attr = $1 AND (
			(v.value_type = '%s' AND v.value_str = $2)
			OR (v.value_type = '%s' AND v.value_int = $3)
			OR (v.value_type = '%s' AND v.value_float::text ~ $4)
			OR (v.value_type = '%s' AND v.value_bool = $5)
		)
		ORDER BY e.id LIMIT $6 OFFSET $7`,
		distinctEntityColumns, s.tables.entities, s.tables.allValues,
		eav.ValueTypeStr, eav.ValueTypeInt, eav.ValueTypeFloat, eav.ValueTypeBool,
	)
}

// SearchEntitiesByComparison orders numeric values of attrName against value.
// The operator and the value are validated before anything is sent to the store.
func (s *PostgresStore) SearchEntitiesByComparison(ctx context.Context, attrName, value string, op eav.CompareOperator, page int) ([]eav.Entity, error) {
	sqlOp, ok := compareOperators[op]
	if !ok {
		return nil, eav.NewInvalidOperatorError(string(op))
	}

	var bound float64
	switch n := tryParseNumber(value).(type) {
	case int64:
		bound = float64(n)
	case float64:
		bound = n
	default:
		return nil, eav.NewValidationError(eav.ErrCodeInvalidValue, "value",
			fmt.Sprintf("comparison value %q is not a number", value))
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s e
		JOIN %s v ON v.entity_id = e.id
		WHERE v.attr = $1
			AND v.value_type IN ('%s', '%s')
			AND COALESCE(v.value_float, v.value_int::double precision) %s $2
		ORDER BY e.id LIMIT $3 OFFSET $4`,
		distinctEntityColumns, s.tables.entities, s.tables.allValues,
		eav.ValueTypeInt, eav.ValueTypeFloat, sqlOp,
	)
	return s.queryEntities(ctx, "search entities by comparison", query, page, attrName, bound)
}

// Search parses search-bar input and dispatches it to the matching search.
func (s *PostgresStore) Search(ctx context.Context, input string, page int) ([]eav.Entity, error) {
	req := eav.ParseSearch(input)
	switch req.Kind {
	case eav.SearchKindComparison:
		return s.SearchEntitiesByComparison(ctx, req.Attribute, req.Value, req.Operator, page)
	case eav.SearchKindValue:
		return s.SearchEntitiesByValue(ctx, req.Attribute, req.Value, page)
	default:
		return s.SearchEntities(ctx, req.Pattern, req.Extended, page)
	}
}
