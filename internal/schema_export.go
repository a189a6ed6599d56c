package internal

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/eav"
)

// EntityTypeSchema exports the attribute slots of an entity type as JSON Schema.
func (s *PostgresStore) EntityTypeSchema(ctx context.Context, entityTypeID int64) (*jsonschema.Schema, error) {
	et, err := s.GetEntityType(ctx, entityTypeID)
	if err != nil {
		return nil, err
	}
	attrs, err := s.ListAttributes(ctx, entityTypeID, false)
	if err != nil {
		return nil, err
	}
	return eav.BuildEntityTypeSchema(*et, attrs), nil
}

// ValidateEntity checks an entity's recorded values against its type's schema.
func (s *PostgresStore) ValidateEntity(ctx context.Context, entityID int64) error {
	pool, err := s.conn()
	if err != nil {
		return err
	}
	entity, err := s.getEntity(ctx, pool, entityID)
	if err != nil {
		return err
	}
	schema, err := s.EntityTypeSchema(ctx, entity.EntityTypeID)
	if err != nil {
		return err
	}
	views, err := s.existingViews(ctx, pool, entityID)
	if err != nil {
		return err
	}
	return eav.ValidateDocument(schema, eav.EntityDocument(views))
}
