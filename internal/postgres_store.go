package internal

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/eav"
	"go.uber.org/zap"
)

// StorePool is the subset of *pgxpool.Pool the store relies on.
type StorePool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// querier is satisfied by both StorePool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Dialer opens a pool for the given database settings.
type Dialer func(ctx context.Context, cfg eav.DatabaseConfig) (StorePool, error)

// PostgresStore implements eav.Store on top of PostgreSQL. It is not safe for
// concurrent use.
type PostgresStore struct {
	cfg    eav.Config
	tables storeTables
	dial   Dialer
	pool   StorePool
}

type Option func(*PostgresStore)

// WithDialer replaces the pgxpool dialer used by Connect.
func WithDialer(dial Dialer) Option {
	return func(s *PostgresStore) {
		if dial != nil {
			s.dial = dial
		}
	}
}

var _ eav.Store = (*PostgresStore)(nil)

func NewPostgresStore(cfg *eav.Config, opts ...Option) *PostgresStore {
	if cfg == nil {
		cfg = eav.DefaultConfig()
	}
	s := &PostgresStore{
		cfg:    *cfg,
		tables: newStoreTables(cfg.Database.TableNames),
		dial:   DialPostgres,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PoolConfig translates DatabaseConfig into a pgxpool configuration.
func PoolConfig(cfg eav.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = int32(cfg.MinConnections)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	return poolCfg, nil
}

// DialPostgres is the default Dialer.
func DialPostgres(ctx context.Context, cfg eav.DatabaseConfig) (StorePool, error) {
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	return pool, nil
}

// Connect establishes the pool. Calling it again once connected is a no-op.
func (s *PostgresStore) Connect(ctx context.Context) error {
	if s.pool != nil {
		return nil
	}

	timeout := s.cfg.Database.AcquireTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := s.dial(ctx, s.cfg.Database)
	if err != nil {
		return eav.NewConnectionError(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return eav.NewConnectionError(errors.Wrap(err, "ping"))
	}

	zap.S().Debugw("connected to value store", "maxConnections", s.cfg.Database.MaxConnections)
	s.pool = pool
	return nil
}

// Ping reports whether the connected pool is still reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	pool, err := s.conn()
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return eav.NewConnectionError(err)
	}
	return nil
}

// Close releases the pool. The store may be connected again afterwards.
func (s *PostgresStore) Close() {
	if s.pool == nil {
		return
	}
	s.pool.Close()
	s.pool = nil
}

func (s *PostgresStore) conn() (StorePool, error) {
	if s.pool == nil {
		return nil, eav.NewNotConnectedError()
	}
	return s.pool, nil
}

func (s *PostgresStore) pageSize() int {
	return s.cfg.Query.PageSize
}

// MissingRelations reports which required tables or views are absent from the
// connected database's search path.
func (s *PostgresStore) MissingRelations(ctx context.Context) ([]string, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = ANY(current_schemas(false))`)
	if err != nil {
		return nil, storeError("list relations", err)
	}
	defer rows.Close()

	present := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeError("scan relation", err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate relations", err)
	}

	var missing []string
	for _, name := range RequiredRelations(s.cfg.Database.TableNames) {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// storeError wraps a driver failure as a store error. Errors that already carry
// a kind pass through untouched.
func storeError(operation string, err error) error {
	var eavErr *eav.EAVError
	if errors.As(err, &eavErr) {
		return err
	}
	return eav.NewStoreError(operation, errors.WithStack(err))
}

func debugQuery(operation, sql string, args ...any) {
	zap.S().Debugw("executing statement", "operation", operation, "sql", sql, "args", args)
}

// track records the latency of an operation through the telemetry hook.
func track(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		EmitLatency(ctx, operation, time.Since(start).Milliseconds())
	}
}
