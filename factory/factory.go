package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/lychee-technology/eav"
	"github.com/lychee-technology/eav/internal"
	"go.uber.org/zap"
)

// NewStore validates the configuration and returns a Postgres-backed Store.
// The store is not connected; call Connect before use.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/eav"
//	    "github.com/lychee-technology/eav/factory"
//	)
//
//	config := eav.DefaultConfig()
//	store, err := factory.NewStore(config)
//	if err != nil {
//	    // handle error
//	}
//	if err := store.Connect(ctx); err != nil {
//	    // handle error
//	}
//	defer store.Close()
func NewStore(config *eav.Config) (eav.Store, error) {
	return newStore(config, internal.DialPostgres)
}

// ConnectStore creates a store, connects it and checks that every table and
// view it reads exists.
func ConnectStore(ctx context.Context, config *eav.Config) (eav.Store, error) {
	return connectStore(ctx, config, internal.DialPostgres)
}

func newStore(config *eav.Config, dial internal.Dialer) (*internal.PostgresStore, error) {
	if config == nil {
		config = eav.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	return internal.NewPostgresStore(config, internal.WithDialer(dial)), nil
}

func connectStore(ctx context.Context, config *eav.Config, dial internal.Dialer) (eav.Store, error) {
	store, err := newStore(config, dial)
	if err != nil {
		return nil, err
	}
	if err := store.Connect(ctx); err != nil {
		return nil, err
	}

	missing, err := store.MissingRelations(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	if len(missing) > 0 {
		store.Close()
		return nil, fmt.Errorf("required relations are missing in the database: %s (run `eav-tools init-db`)", strings.Join(missing, ", "))
	}

	zap.S().Infow("value store ready", "tables", config.Database.TableNames)
	return store, nil
}
