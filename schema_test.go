package eav

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookAttributes() []Attribute {
	return []Attribute{
		{ID: 1, Name: "title", EntityTypeID: 7, ValueType: ValueTypeStr},
		{ID: 2, Name: "pages", EntityTypeID: 7, ValueType: ValueTypeInt},
		{ID: 3, Name: "tags", EntityTypeID: 7, ValueType: ValueTypeStr, AllowMultiple: true},
		{ID: 4, Name: "published", EntityTypeID: 7, ValueType: ValueTypeTime},
		{ID: 5, Name: "read", EntityTypeID: 7, ValueType: ValueTypeBool},
		{ID: 6, Name: "rating", EntityTypeID: 7, ValueType: ValueTypeFloat},
	}
}

func recordedView(attr Attribute, valueID int64, payload ValuePayload) View {
	entity := Entity{ID: 9, Name: "Dune", EntityTypeID: attr.EntityTypeID}
	typeName := "book"
	v := ViewFromAttribute(attr, entity, &typeName)
	v.ValueID = &valueID
	v.ValueStr = payload.ValueStr
	v.ValueInt = payload.ValueInt
	v.ValueFloat = payload.ValueFloat
	v.ValueTime = payload.ValueTime
	v.ValueBool = payload.ValueBool
	return v
}

func TestBuildEntityTypeSchema(t *testing.T) {
	schema := BuildEntityTypeSchema(EntityType{ID: 7, Name: "book"}, bookAttributes())

	assert.Equal(t, "book", schema.Title)
	assert.Equal(t, "object", schema.Type)
	require.Len(t, schema.Properties, 6)
	assert.Equal(t, "string", schema.Properties["title"].Type)
	assert.Equal(t, "integer", schema.Properties["pages"].Type)
	assert.Equal(t, "number", schema.Properties["rating"].Type)
	assert.Equal(t, "boolean", schema.Properties["read"].Type)
	assert.Equal(t, "date-time", schema.Properties["published"].Format)

	tags := schema.Properties["tags"]
	assert.Equal(t, "array", tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, "string", tags.Items.Type)
}

func TestEntityDocumentAndValidate(t *testing.T) {
	attrs := bookAttributes()
	schema := BuildEntityTypeSchema(EntityType{ID: 7, Name: "book"}, attrs)

	title, unit := "Dune", "412 pages"
	pages := int64(412)
	tagA, tagB := "scifi", "classic"
	published := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	read := true
	rating := 4.5

	views := []View{
		recordedView(attrs[0], 1, ValuePayload{ValueStr: &title}),
		recordedView(attrs[1], 2, ValuePayload{ValueInt: &pages, ValueStr: &unit}),
		recordedView(attrs[2], 3, ValuePayload{ValueStr: &tagA}),
		recordedView(attrs[2], 4, ValuePayload{ValueStr: &tagB}),
		recordedView(attrs[3], 5, ValuePayload{ValueTime: &published}),
		recordedView(attrs[4], 6, ValuePayload{ValueBool: &read}),
		ViewFromAttribute(attrs[5], Entity{ID: 9, Name: "Dune", EntityTypeID: 7}, nil),
	}

	doc := EntityDocument(views)
	assert.Equal(t, "Dune", doc["title"])
	assert.Equal(t, int64(412), doc["pages"])
	assert.Equal(t, []any{"scifi", "classic"}, doc["tags"])
	assert.Equal(t, "1965-08-01T00:00:00Z", doc["published"])
	assert.Equal(t, true, doc["read"])
	assert.NotContains(t, doc, "rating")

	require.NoError(t, ValidateDocument(schema, doc))

	views = append(views, recordedView(attrs[5], 7, ValuePayload{ValueFloat: &rating}))
	require.NoError(t, ValidateDocument(schema, EntityDocument(views)))
}

func TestValidateDocumentFlagsDuplicateSingleValue(t *testing.T) {
	attrs := bookAttributes()
	schema := BuildEntityTypeSchema(EntityType{ID: 7, Name: "book"}, attrs)

	first, second := "Dune", "Dune Messiah"
	doc := EntityDocument([]View{
		recordedView(attrs[0], 1, ValuePayload{ValueStr: &first}),
		recordedView(attrs[0], 2, ValuePayload{ValueStr: &second}),
	})

	err := ValidateDocument(schema, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var eavErr *EAVError
	require.ErrorAs(t, err, &eavErr)
	assert.Equal(t, ErrCodeSchemaViolation, eavErr.Code)
}

func TestValidateDocumentFlagsEmptyActiveColumn(t *testing.T) {
	attrs := bookAttributes()
	schema := BuildEntityTypeSchema(EntityType{ID: 7, Name: "book"}, attrs)

	stray := "12"
	doc := EntityDocument([]View{
		recordedView(attrs[1], 1, ValuePayload{ValueStr: &stray}),
	})
	assert.Nil(t, doc["pages"])

	assert.ErrorIs(t, ValidateDocument(schema, doc), ErrValidation)
}
