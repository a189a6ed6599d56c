package eav

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

const jsonSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// ErrCodeSchemaViolation marks an entity whose recorded values do not fit its type.
const ErrCodeSchemaViolation = "SCHEMA_VIOLATION"

func schemaForValueType(vt ValueType) *jsonschema.Schema {
	switch vt {
	case ValueTypeInt:
		return &jsonschema.Schema{Type: "integer"}
	case ValueTypeFloat:
		return &jsonschema.Schema{Type: "number"}
	case ValueTypeTime:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	case ValueTypeBool:
		return &jsonschema.Schema{Type: "boolean"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

// BuildEntityTypeSchema describes the attribute slots of an entity type as a
// JSON Schema object. Repeatable attributes become arrays.
func BuildEntityTypeSchema(et EntityType, attrs []Attribute) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(attrs))
	for _, a := range attrs {
		prop := schemaForValueType(a.ValueType)
		if a.AllowMultiple {
			prop = &jsonschema.Schema{Type: "array", Items: prop}
		}
		prop.Description = fmt.Sprintf("attribute %d (%s)", a.ID, a.ValueType)
		props[a.Name] = prop
	}
	return &jsonschema.Schema{
		Schema:     jsonSchemaDraft,
		Title:      et.Name,
		Type:       "object",
		Properties: props,
	}
}

// activeValue returns the value held in the view's active column, or nil.
func activeValue(v View) any {
	if v.ValueType == nil {
		return nil
	}
	switch *v.ValueType {
	case ValueTypeStr:
		if v.ValueStr != nil {
			return *v.ValueStr
		}
	case ValueTypeInt:
		if v.ValueInt != nil {
			return *v.ValueInt
		}
	case ValueTypeFloat:
		if v.ValueFloat != nil {
			return *v.ValueFloat
		}
	case ValueTypeTime:
		if v.ValueTime != nil {
			return v.ValueTime.UTC().Format(time.RFC3339Nano)
		}
	case ValueTypeBool:
		if v.ValueBool != nil {
			return *v.ValueBool
		}
	}
	return nil
}

// EntityDocument folds an entity's recorded views into a JSON object keyed by
// attribute name. Placeholders are skipped. A single-valued attribute with more
// than one recorded value is emitted as an array so validation flags it.
func EntityDocument(views []View) map[string]any {
	grouped := make(map[string][]any)
	multiple := make(map[string]bool)
	var order []string
	for _, v := range views {
		if v.IsPlaceholder() || v.Attr == nil {
			continue
		}
		name := *v.Attr
		if _, ok := grouped[name]; !ok {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], activeValue(v))
		multiple[name] = v.AllowMultiple != nil && *v.AllowMultiple
	}

	doc := make(map[string]any, len(order))
	for _, name := range order {
		vals := grouped[name]
		if !multiple[name] && len(vals) == 1 {
			doc[name] = vals[0]
			continue
		}
		doc[name] = vals
	}
	return doc
}

// ValidateDocument checks doc against schema. Any failure is reported as a
// validation error.
func ValidateDocument(schema *jsonschema.Schema, doc map[string]any) error {
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return NewStoreError("resolve entity schema", err)
	}

	// Round-trip through JSON so numbers and strings take their JSON forms.
	raw, err := json.Marshal(doc)
	if err != nil {
		return NewValidationError(ErrCodeSchemaViolation, "", "entity document is not valid JSON").WithCause(err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return NewValidationError(ErrCodeSchemaViolation, "", "entity document is not valid JSON").WithCause(err)
	}

	if err := resolved.Validate(instance); err != nil {
		return NewValidationError(ErrCodeSchemaViolation, "", fmt.Sprintf("entity does not match schema %q", schema.Title)).WithCause(err)
	}
	return nil
}
