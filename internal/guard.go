package internal

import (
	"fmt"

	"github.com/lychee-technology/eav"
)

// coerceValue keeps only the column selected by the attribute's value type,
// plus value_str as a unit annotation for numeric types. It rejects payloads
// whose active column is empty.
func coerceValue(attr eav.Attribute, payload eav.ValuePayload) (eav.ValuePayload, error) {
	var (
		out     eav.ValuePayload
		present bool
	)

	switch attr.ValueType {
	case eav.ValueTypeStr:
		out.ValueStr, present = payload.ValueStr, payload.ValueStr != nil
	case eav.ValueTypeInt:
		out.ValueInt, present = payload.ValueInt, payload.ValueInt != nil
		out.ValueStr = payload.ValueStr
	case eav.ValueTypeFloat:
		out.ValueFloat, present = payload.ValueFloat, payload.ValueFloat != nil
		out.ValueStr = payload.ValueStr
	case eav.ValueTypeTime:
		out.ValueTime, present = payload.ValueTime, payload.ValueTime != nil
	case eav.ValueTypeBool:
		out.ValueBool, present = payload.ValueBool, payload.ValueBool != nil
	default:
		return out, eav.NewTypeMismatchError(attr, fmt.Sprintf("attribute %q declares unsupported value type %q", attr.Name, attr.ValueType))
	}

	if !present {
		return out, eav.NewTypeMismatchError(attr, fmt.Sprintf("attribute %q expects a %s value in %s", attr.Name, attr.ValueType, attr.ValueType.Column()))
	}
	return out, nil
}

// checkEntityAttribute enforces that a value's attribute is declared on the
// value's entity type.
func checkEntityAttribute(entity eav.Entity, attr eav.Attribute) error {
	if entity.EntityTypeID == attr.EntityTypeID {
		return nil
	}
	err := eav.NewTypeMismatchError(attr, fmt.Sprintf("attribute %q does not belong to the type of entity %q", attr.Name, entity.Name)).
		WithDetail("entity_id", entity.ID).
		WithDetail("entity_type_id", entity.EntityTypeID)
	err.Code = eav.ErrCodeEntityMismatch
	return err
}
