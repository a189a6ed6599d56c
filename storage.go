package eav

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Store is the single entry point for the EAV value store. Implementations are
// not safe for concurrent use; callers serialize access.
type Store interface {
	// Connection lifecycle
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()

	// Entity types
	ListEntityTypes(ctx context.Context) ([]EntityType, error)
	ListEntityTypesByIDs(ctx context.Context, ids []int64) ([]EntityType, error)
	GetEntityType(ctx context.Context, id int64) (*EntityType, error)
	CreateEntityType(ctx context.Context, name string) (*EntityType, error)
	DeleteEntityType(ctx context.Context, id int64) error

	// Entities
	ListEntities(ctx context.Context, entityTypeID int64, page int) ([]Entity, error)
	GetEntity(ctx context.Context, id int64) (*Entity, error)
	CreateEntity(ctx context.Context, entityTypeName, name string) (*Entity, error)
	DeleteEntity(ctx context.Context, id int64) error

	// Attributes
	ListAttributes(ctx context.Context, entityTypeID int64, multiOnly bool) ([]Attribute, error)
	GetAttribute(ctx context.Context, id int64) (*Attribute, error)
	CreateAttribute(ctx context.Context, entityTypeID int64, name string, valueType ValueType, allowMultiple bool) (*Attribute, error)
	DeleteAttribute(ctx context.Context, id int64) error

	// Values and views
	FetchViews(ctx context.Context, entityID int64, page int) ([]View, error)
	GetValue(ctx context.Context, id int64) (*Value, error)
	CreateValue(ctx context.Context, req *CreateValueRequest) (*Value, error)
	UpdateValue(ctx context.Context, req *UpdateValueRequest) (*Value, error)
	DeleteValue(ctx context.Context, id int64) error

	// Search
	SearchEntities(ctx context.Context, pattern string, extended bool, page int) ([]Entity, error)
	SearchEntitiesWithAttribute(ctx context.Context, attrName string, page int) ([]Entity, error)
	SearchEntitiesWithoutAttribute(ctx context.Context, attrName string, page int) ([]Entity, error)
	SearchEntitiesByValue(ctx context.Context, attrName, value string, page int) ([]Entity, error)
	SearchEntitiesByComparison(ctx context.Context, attrName, value string, op CompareOperator, page int) ([]Entity, error)
	Search(ctx context.Context, input string, page int) ([]Entity, error)

	// Schema
	EntityTypeSchema(ctx context.Context, entityTypeID int64) (*jsonschema.Schema, error)
	ValidateEntity(ctx context.Context, entityID int64) error
}
