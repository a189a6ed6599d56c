package eav

import (
	"fmt"
	"strings"
	"time"
)

// ValueType is the declared type of an attribute. It selects the physical
// column a value is stored in.
type ValueType string

const (
	ValueTypeStr   ValueType = "str"
	ValueTypeInt   ValueType = "int"
	ValueTypeFloat ValueType = "float"
	ValueTypeTime  ValueType = "time"
	ValueTypeBool  ValueType = "bool"
)

// ValueTypes lists every supported value type in declaration order.
var ValueTypes = []ValueType{ValueTypeStr, ValueTypeInt, ValueTypeFloat, ValueTypeTime, ValueTypeBool}

// ParseValueType converts free text into a ValueType.
func ParseValueType(s string) (ValueType, error) {
	vt := ValueType(strings.ToLower(strings.TrimSpace(s)))
	if !vt.Valid() {
		return "", fmt.Errorf("unsupported value type %q", s)
	}
	return vt, nil
}

// Valid reports whether the value type belongs to the closed set.
func (vt ValueType) Valid() bool {
	switch vt {
	case ValueTypeStr, ValueTypeInt, ValueTypeFloat, ValueTypeTime, ValueTypeBool:
		return true
	}
	return false
}

// Column returns the name of the value column backing this type.
func (vt ValueType) Column() string {
	return "value_" + string(vt)
}

// Numeric reports whether values of this type may carry a unit annotation in value_str.
func (vt ValueType) Numeric() bool {
	return vt == ValueTypeInt || vt == ValueTypeFloat
}

// CompareOperator is an ordering operator accepted by attribute value comparison.
type CompareOperator string

const (
	CompareGreaterThan CompareOperator = ">"
	CompareLessThan    CompareOperator = "<"
)

// Valid reports whether the operator is supported.
func (op CompareOperator) Valid() bool {
	return op == CompareGreaterThan || op == CompareLessThan
}

type EntityType struct {
	ID        int64     `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Name      string    `json:"name" yaml:"name"`
}

type Entity struct {
	ID           int64     `json:"id" yaml:"id"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	Name         string    `json:"name" yaml:"name"`
	EntityTypeID int64     `json:"entity_type_id" yaml:"entity_type_id"`
}

// Attribute declares one typed slot usable by entities of EntityTypeID.
type Attribute struct {
	ID            int64     `json:"id" yaml:"id"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	Name          string    `json:"name" yaml:"name"`
	EntityTypeID  int64     `json:"entity_type_id" yaml:"entity_type_id"`
	ValueType     ValueType `json:"value_type" yaml:"value_type"`
	AllowMultiple bool      `json:"allow_multiple" yaml:"allow_multiple"`
}

// ValuePayload carries the candidate value fields for a create or update.
// Exactly one field is expected to match the target attribute's type.
type ValuePayload struct {
	ValueStr   *string    `json:"value_str,omitempty" yaml:"value_str,omitempty"`
	ValueInt   *int64     `json:"value_int,omitempty" yaml:"value_int,omitempty"`
	ValueFloat *float64   `json:"value_float,omitempty" yaml:"value_float,omitempty"`
	ValueTime  *time.Time `json:"value_time,omitempty" yaml:"value_time,omitempty"`
	ValueBool  *bool      `json:"value_bool,omitempty" yaml:"value_bool,omitempty"`
}

// IsEmpty reports whether no field is populated.
func (p ValuePayload) IsEmpty() bool {
	return p.ValueStr == nil && p.ValueInt == nil && p.ValueFloat == nil && p.ValueTime == nil && p.ValueBool == nil
}

// Value is one recorded value row.
type Value struct {
	ID        int64     `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	EntityID  int64     `json:"entity_id" yaml:"entity_id"`
	AttrID    int64     `json:"attr_id" yaml:"attr_id"`
	ValuePayload
}

// CreateValueRequest is the input for Store.CreateValue.
type CreateValueRequest struct {
	EntityID int64 `json:"entity_id"`
	AttrID   int64 `json:"attr_id"`
	ValuePayload
}

// UpdateValueRequest is the input for Store.UpdateValue.
type UpdateValueRequest struct {
	ID int64 `json:"id"`
	ValuePayload
}

// View is a denormalized row joining an entity, one of its type's attributes
// and, when recorded, a value. Placeholder views carry nil value fields.
type View struct {
	EntityTypeID  *int64     `json:"entity_type_id" yaml:"entity_type_id"`
	EntityType    *string    `json:"entity_type" yaml:"entity_type"`
	EntityID      *int64     `json:"entity_id" yaml:"entity_id"`
	Entity        *string    `json:"entity" yaml:"entity"`
	AttrID        *int64     `json:"attr_id" yaml:"attr_id"`
	Attr          *string    `json:"attr" yaml:"attr"`
	ValueType     *ValueType `json:"value_type" yaml:"value_type"`
	AllowMultiple *bool      `json:"allow_multiple" yaml:"allow_multiple"`
	ValueID       *int64     `json:"value_id" yaml:"value_id"`
	CreatedAt     *time.Time `json:"created_at" yaml:"created_at"`
	ValueStr      *string    `json:"value_str" yaml:"value_str"`
	ValueInt      *int64     `json:"value_int" yaml:"value_int"`
	ValueFloat    *float64   `json:"value_float" yaml:"value_float"`
	ValueTime     *time.Time `json:"value_time" yaml:"value_time"`
	ValueBool     *bool      `json:"value_bool" yaml:"value_bool"`
}

// IsPlaceholder reports whether the view has no recorded value behind it.
func (v View) IsPlaceholder() bool {
	return v.ValueID == nil
}

// ViewFromAttribute builds a placeholder view for an attribute of the given entity.
func ViewFromAttribute(attr Attribute, entity Entity, entityTypeName *string) View {
	attrID, attrName := attr.ID, attr.Name
	valueType, allowMultiple := attr.ValueType, attr.AllowMultiple
	entityID, entityName, typeID := entity.ID, entity.Name, entity.EntityTypeID
	return View{
		EntityTypeID:  &typeID,
		EntityType:    entityTypeName,
		EntityID:      &entityID,
		Entity:        &entityName,
		AttrID:        &attrID,
		Attr:          &attrName,
		ValueType:     &valueType,
		AllowMultiple: &allowMultiple,
	}
}
