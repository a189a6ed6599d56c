package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lychee-technology/eav"
	"github.com/lychee-technology/eav/internal"
)

// ApplySchema creates the store's tables and views inside one transaction.
func ApplySchema(ctx context.Context, db *sql.DB, names eav.TableNames) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range internal.SchemaStatements(names) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return tx.Commit()
}

// Catalog is the seeded book/film dataset.
type Catalog struct {
	Book, Film eav.EntityType

	Pages, Rating, ISBN, Tags, Released, Active eav.Attribute

	Dune, Foundation, Solaris eav.Entity
	Alien                     eav.Entity
}

// SeedCatalog loads a small catalog through the store. Type names carry a
// random suffix so repeated runs against one database do not collide.
func SeedCatalog(ctx context.Context, store eav.Store) (*Catalog, error) {
	suffix := uuid.NewString()[:8]
	c := &Catalog{}

	book, err := store.CreateEntityType(ctx, "book-"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create book type: %w", err)
	}
	film, err := store.CreateEntityType(ctx, "film-"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create film type: %w", err)
	}
	c.Book, c.Film = *book, *film

	attrs := []struct {
		dst   *eav.Attribute
		typ   int64
		name  string
		vt    eav.ValueType
		multi bool
	}{
		{&c.Pages, book.ID, "pages", eav.ValueTypeInt, false},
		{&c.Rating, book.ID, "rating", eav.ValueTypeFloat, false},
		{&c.ISBN, book.ID, "isbn", eav.ValueTypeStr, false},
		{&c.Tags, book.ID, "tags", eav.ValueTypeStr, true},
		{&c.Active, book.ID, "active", eav.ValueTypeBool, false},
		{&c.Released, film.ID, "released", eav.ValueTypeTime, false},
	}
	for _, a := range attrs {
		created, err := store.CreateAttribute(ctx, a.typ, a.name, a.vt, a.multi)
		if err != nil {
			return nil, fmt.Errorf("create attribute %s: %w", a.name, err)
		}
		*a.dst = *created
	}

	entities := []struct {
		dst      *eav.Entity
		typeName string
		name     string
	}{
		{&c.Dune, book.Name, "Dune"},
		{&c.Foundation, book.Name, "Foundation"},
		{&c.Solaris, book.Name, "Solaris"},
		{&c.Alien, film.Name, "Alien"},
	}
	for _, e := range entities {
		created, err := store.CreateEntity(ctx, e.typeName, e.name)
		if err != nil {
			return nil, fmt.Errorf("create entity %s: %w", e.name, err)
		}
		*e.dst = *created
	}

	values := []eav.CreateValueRequest{
		{EntityID: c.Dune.ID, AttrID: c.Pages.ID, ValuePayload: eav.ValuePayload{ValueInt: ptr(int64(412))}},
		{EntityID: c.Dune.ID, AttrID: c.Rating.ID, ValuePayload: eav.ValuePayload{ValueFloat: ptr(4.5)}},
		{EntityID: c.Dune.ID, AttrID: c.Tags.ID, ValuePayload: eav.ValuePayload{ValueStr: ptr("scifi")}},
		{EntityID: c.Dune.ID, AttrID: c.Tags.ID, ValuePayload: eav.ValuePayload{ValueStr: ptr("classic")}},
		{EntityID: c.Dune.ID, AttrID: c.Active.ID, ValuePayload: eav.ValuePayload{ValueBool: ptr(true)}},
		{EntityID: c.Foundation.ID, AttrID: c.Pages.ID, ValuePayload: eav.ValuePayload{ValueInt: ptr(int64(255))}},
		{EntityID: c.Foundation.ID, AttrID: c.ISBN.ID, ValuePayload: eav.ValuePayload{ValueStr: ptr("978-0553293357")}},
		{EntityID: c.Foundation.ID, AttrID: c.Active.ID, ValuePayload: eav.ValuePayload{ValueBool: ptr(false)}},
	}
	for i := range values {
		if _, err := store.CreateValue(ctx, &values[i]); err != nil {
			return nil, fmt.Errorf("create value %d: %w", i, err)
		}
	}
	return c, nil
}

func ptr[T any](v T) *T { return &v }
