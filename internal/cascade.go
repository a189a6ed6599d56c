package internal

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav"
)

// cascadeDelete runs statements in order inside one transaction. Every
// statement takes the root id as $1; the last one removes the root row and
// must affect exactly one row, otherwise the transaction is rolled back and a
// not-found error is returned.
func (s *PostgresStore) cascadeDelete(ctx context.Context, kind string, id int64, statements []string) error {
	pool, err := s.conn()
	if err != nil {
		return err
	}
	operation := "delete " + kind
	defer track(ctx, operation)()

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer tx.Rollback(ctx) // no-op if committed

	var removed int64
	for i, stmt := range statements {
		debugQuery(operation, stmt, id)
		tag, err := tx.Exec(ctx, stmt, id)
		if err != nil {
			return storeError(fmt.Sprintf("%s step %d", operation, i+1), err)
		}
		removed += tag.RowsAffected()
		if i == len(statements)-1 && tag.RowsAffected() == 0 {
			return eav.NewNotFoundError(kind, id)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("commit transaction", errors.Wrap(err, operation))
	}
	EmitRowCount(ctx, operation, removed)
	return nil
}
