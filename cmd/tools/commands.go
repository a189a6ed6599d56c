package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lychee-technology/eav"
	"github.com/lychee-technology/eav/factory"
	"github.com/lychee-technology/eav/internal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// openStore is replaced in tests.
var openStore = factory.ConnectStore

var (
	typesCmd    = newTypesCmd()
	entitiesCmd = newEntitiesCmd()
	attrsCmd    = newAttrsCmd()
	valuesCmd   = newValuesCmd()
	searchCmd   = newSearchCmd()
)

var (
	rawProbe      bool
	probeDatabase = internal.PostgresHealthCheck
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the value store is reachable and initialized",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rawProbe {
			// reachability only, usable before init-db
			if err := probeDatabase(cmd.Context(), cfg.Database.URL, cfg.Database.ConnectTimeout); err != nil {
				return err
			}
			pterm.Success.Println("database is reachable")
			return nil
		}
		return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
			if err := store.Ping(ctx); err != nil {
				return nil, err
			}
			pterm.Success.Println("value store is healthy")
			return nil, nil
		})
	},
}

// withStore connects, runs fn and renders whatever it returns.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store eav.Store) (any, error)) error {
	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := fn(ctx, store)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return render(cmd.OutOrStdout(), outputFormat, result)
}

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "types", Short: "Manage entity types"}

	var ids []int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List entity types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				var (
					types []eav.EntityType
					err   error
				)
				if cmd.Flags().Changed("ids") {
					types, err = store.ListEntityTypesByIDs(ctx, ids)
				} else {
					types, err = store.ListEntityTypes(ctx)
				}
				return entityTypeTable(types), err
			})
		},
	}
	list.Flags().Int64SliceVar(&ids, "ids", nil, "only these ids")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				et, err := store.GetEntityType(ctx, id)
				if err != nil {
					return nil, err
				}
				return entityTypeTable{*et}, nil
			})
		},
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				et, err := store.CreateEntityType(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return entityTypeTable{*et}, nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity type with its entities, attributes and values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				if err := store.DeleteEntityType(ctx, id); err != nil {
					return nil, err
				}
				pterm.Success.Printf("deleted entity type %d\n", id)
				return nil, nil
			})
		},
	}

	schema := &cobra.Command{
		Use:   "schema <id>",
		Short: "Print the JSON Schema of an entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				return store.EntityTypeSchema(ctx, id)
			})
		},
	}

	cmd.AddCommand(list, get, create, del, schema)
	return cmd
}

func newEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "entities", Short: "Manage entities"}

	var page int
	list := &cobra.Command{
		Use:   "list <entity-type-id>",
		Short: "List the entities of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				entities, err := store.ListEntities(ctx, typeID, page)
				return entityTable(entities), err
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				e, err := store.GetEntity(ctx, id)
				if err != nil {
					return nil, err
				}
				return entityTable{*e}, nil
			})
		},
	}

	create := &cobra.Command{
		Use:   "create <entity-type-name> <name>",
		Short: "Create an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				e, err := store.CreateEntity(ctx, args[0], args[1])
				if err != nil {
					return nil, err
				}
				return entityTable{*e}, nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity and its values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				if err := store.DeleteEntity(ctx, id); err != nil {
					return nil, err
				}
				pterm.Success.Printf("deleted entity %d\n", id)
				return nil, nil
			})
		},
	}

	var viewPage int
	views := &cobra.Command{
		Use:   "views <id>",
		Short: "Show every attribute slot of an entity, filled or not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				v, err := store.FetchViews(ctx, id, viewPage)
				return viewTable(v), err
			})
		},
	}
	views.Flags().IntVar(&viewPage, "page", 1, "page number")

	validate := &cobra.Command{
		Use:   "validate <id>",
		Short: "Validate an entity's values against its type schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				if err := store.ValidateEntity(ctx, id); err != nil {
					return nil, err
				}
				pterm.Success.Printf("entity %d is valid\n", id)
				return nil, nil
			})
		},
	}

	cmd.AddCommand(list, get, create, del, views, validate)
	return cmd
}

func newAttrsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "attrs", Short: "Manage attributes"}

	var multiOnly bool
	list := &cobra.Command{
		Use:   "list <entity-type-id>",
		Short: "List the attributes of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				attrs, err := store.ListAttributes(ctx, typeID, multiOnly)
				return attributeTable(attrs), err
			})
		},
	}
	list.Flags().BoolVar(&multiOnly, "multi-only", false, "only repeatable attributes")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one attribute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				a, err := store.GetAttribute(ctx, id)
				if err != nil {
					return nil, err
				}
				return attributeTable{*a}, nil
			})
		},
	}

	var multiple bool
	create := &cobra.Command{
		Use:   "create <entity-type-id> <name> <value-type>",
		Short: "Create an attribute (value type: str, int, float, time, bool)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			vt, err := eav.ParseValueType(args[2])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				a, err := store.CreateAttribute(ctx, typeID, args[1], vt, multiple)
				if err != nil {
					return nil, err
				}
				return attributeTable{*a}, nil
			})
		},
	}
	create.Flags().BoolVar(&multiple, "multiple", false, "allow more than one value per entity")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an attribute and its values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				if err := store.DeleteAttribute(ctx, id); err != nil {
					return nil, err
				}
				pterm.Success.Printf("deleted attribute %d\n", id)
				return nil, nil
			})
		},
	}

	cmd.AddCommand(list, get, create, del)
	return cmd
}

// parsePayload reads raw as the attribute's value type. unit is stored in
// value_str next to numeric values.
func parsePayload(vt eav.ValueType, raw, unit string) (eav.ValuePayload, error) {
	var p eav.ValuePayload
	switch vt {
	case eav.ValueTypeStr:
		p.ValueStr = &raw
		return p, nil
	case eav.ValueTypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return p, fmt.Errorf("%q is not an integer", raw)
		}
		p.ValueInt = &n
	case eav.ValueTypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return p, fmt.Errorf("%q is not a number", raw)
		}
		p.ValueFloat = &f
	case eav.ValueTypeTime:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if err != nil {
			return p, fmt.Errorf("%q is not an RFC 3339 timestamp", raw)
		}
		p.ValueTime = &t
		return p, nil
	case eav.ValueTypeBool:
		b, err := parseBool(raw)
		if err != nil {
			return p, err
		}
		p.ValueBool = &b
		return p, nil
	default:
		return p, fmt.Errorf("unknown value type %q", vt)
	}
	if unit != "" {
		p.ValueStr = &unit
	}
	return p, nil
}

func newValuesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "values", Short: "Manage values"}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				v, err := store.GetValue(ctx, id)
				if err != nil {
					return nil, err
				}
				return valueTable{*v}, nil
			})
		},
	}

	var createUnit string
	create := &cobra.Command{
		Use:   "create <entity-id> <attr-id> <value>",
		Short: "Record a value, parsed as the attribute's value type",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			attrID, err := parseIDArg(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				attr, err := store.GetAttribute(ctx, attrID)
				if err != nil {
					return nil, err
				}
				payload, err := parsePayload(attr.ValueType, args[2], createUnit)
				if err != nil {
					return nil, err
				}
				v, err := store.CreateValue(ctx, &eav.CreateValueRequest{EntityID: entityID, AttrID: attrID, ValuePayload: payload})
				if err != nil {
					return nil, err
				}
				return valueTable{*v}, nil
			})
		},
	}
	create.Flags().StringVar(&createUnit, "unit", "", "unit annotation for numeric values")

	var updateUnit string
	update := &cobra.Command{
		Use:   "update <id> <value>",
		Short: "Replace a value, parsed as its attribute's value type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				current, err := store.GetValue(ctx, id)
				if err != nil {
					return nil, err
				}
				attr, err := store.GetAttribute(ctx, current.AttrID)
				if err != nil {
					return nil, err
				}
				payload, err := parsePayload(attr.ValueType, args[1], updateUnit)
				if err != nil {
					return nil, err
				}
				v, err := store.UpdateValue(ctx, &eav.UpdateValueRequest{ID: id, ValuePayload: payload})
				if err != nil {
					return nil, err
				}
				return valueTable{*v}, nil
			})
		},
	}
	update.Flags().StringVar(&updateUnit, "unit", "", "unit annotation for numeric values")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				if err := store.DeleteValue(ctx, id); err != nil {
					return nil, err
				}
				pterm.Success.Printf("deleted value %d\n", id)
				return nil, nil
			})
		},
	}

	cmd.AddCommand(get, create, update, del)
	return cmd
}

func newSearchCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search entities using the search-bar grammar",
		Long: `Search entities. The query is one of:
  attr > n, attr < n   numeric comparison
  attr: value          attribute equality
  !pattern             name regex only
  pattern              name regex, also matching the alternate title attribute`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			return withStore(cmd, func(ctx context.Context, store eav.Store) (any, error) {
				entities, err := store.Search(ctx, input, page)
				return entityTable(entities), err
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

// parseBool accepts strconv's forms plus the yes/no tokens the search bar uses.
func parseBool(raw string) (bool, error) {
	token := strings.TrimSpace(raw)
	switch strings.ToLower(token) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(token)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", raw)
	}
	return b, nil
}
