package internal

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/eav"
)

// storeTables holds the sanitized, ready-to-interpolate relation names.
type storeTables struct {
	entityTypes       string
	entities          string
	attrs             string
	values            string
	allValues         string
	allPossibleValues string
}

func newStoreTables(names eav.TableNames) storeTables {
	return storeTables{
		entityTypes:       sanitizeIdentifier(names.EntityTypes),
		entities:          sanitizeIdentifier(names.Entities),
		attrs:             sanitizeIdentifier(names.Attributes),
		values:            sanitizeIdentifier(names.Values),
		allValues:         sanitizeIdentifier(names.AllValues),
		allPossibleValues: sanitizeIdentifier(names.AllPossibleValues),
	}
}

// indexName derives an unqualified index name from a possibly schema-qualified table.
func indexName(table, suffix string) string {
	base := table
	if i := strings.LastIndex(table, "."); i >= 0 {
		base = table[i+1:]
	}
	return sanitizeIdentifier(strings.Trim(base, "\"") + "_" + suffix)
}

// SchemaStatements returns the DDL that creates the four tables and two views
// backing the store. Every statement is idempotent.
func SchemaStatements(names eav.TableNames) []string {
	t := newStoreTables(names)

	quoted := make([]string, 0, len(eav.ValueTypes))
	for _, vt := range eav.ValueTypes {
		quoted = append(quoted, "'"+string(vt)+"'")
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	name TEXT NOT NULL
)`, t.entityTypes),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	name TEXT NOT NULL,
	entity_type_id BIGINT NOT NULL
)`, t.entities),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	name TEXT NOT NULL,
	entity_type_id BIGINT NOT NULL,
	value_type TEXT NOT NULL CHECK (value_type IN (%s)),
	allow_multiple BOOLEAN NOT NULL DEFAULT FALSE
)`, t.attrs, strings.Join(quoted, ", ")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	entity_id BIGINT NOT NULL,
	attr_id BIGINT NOT NULL,
	value_str TEXT,
	value_int BIGINT,
	value_float DOUBLE PRECISION,
	value_time TIMESTAMPTZ,
	value_bool BOOLEAN
)`, t.values),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (entity_type_id)", indexName(names.Entities, "entity_type_id_idx"), t.entities),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (entity_type_id)", indexName(names.Attributes, "entity_type_id_idx"), t.attrs),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (entity_id)", indexName(names.Values, "entity_id_idx"), t.values),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (attr_id)", indexName(names.Values, "attr_id_idx"), t.values),
		fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS
SELECT et.id AS entity_type_id, et.name AS entity_type,
	e.id AS entity_id, e.name AS entity,
	a.id AS attr_id, a.name AS attr, a.value_type, a.allow_multiple,
	v.id AS value_id, v.created_at,
	v.value_str, v.value_int, v.value_float, v.value_time, v.value_bool
FROM %s v
JOIN %s e ON e.id = v.entity_id
JOIN %s et ON et.id = e.entity_type_id
JOIN %s a ON a.id = v.attr_id`, t.allValues, t.values, t.entities, t.entityTypes, t.attrs),
		fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS
SELECT et.id AS entity_type_id, et.name AS entity_type,
	a.id AS attr_id, a.name AS attr, a.value_type, a.allow_multiple
FROM %s et
JOIN %s a ON a.entity_type_id = et.id`, t.allPossibleValues, t.entityTypes, t.attrs),
	}
}

// DropStatements returns the DDL removing everything SchemaStatements creates.
func DropStatements(names eav.TableNames) []string {
	t := newStoreTables(names)
	return []string{
		"DROP VIEW IF EXISTS " + t.allPossibleValues,
		"DROP VIEW IF EXISTS " + t.allValues,
		"DROP TABLE IF EXISTS " + t.values,
		"DROP TABLE IF EXISTS " + t.attrs,
		"DROP TABLE IF EXISTS " + t.entities,
		"DROP TABLE IF EXISTS " + t.entityTypes,
	}
}

// RequiredRelations lists the unqualified relation names the store reads.
func RequiredRelations(names eav.TableNames) []string {
	all := []string{names.EntityTypes, names.Entities, names.Attributes, names.Values, names.AllValues, names.AllPossibleValues}
	out := make([]string, 0, len(all))
	for _, n := range all {
		if i := strings.LastIndex(n, "."); i >= 0 {
			n = n[i+1:]
		}
		out = append(out, strings.Trim(n, "\""))
	}
	return out
}
