package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/eav/internal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recreate   bool
	confirmed  bool
	dialSchema = internal.DialPostgres
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the value store tables, indexes and views",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stmts []string
		if recreate {
			stmts = append(stmts, internal.DropStatements(cfg.Database.TableNames)...)
		}
		stmts = append(stmts, internal.SchemaStatements(cfg.Database.TableNames)...)

		if err := runSchema(cmd.Context(), stmts); err != nil {
			return err
		}
		pterm.Success.Println("Database initialized successfully.")
		return nil
	},
}

var dropDBCmd = &cobra.Command{
	Use:   "drop-db",
	Short: "Drop the value store tables and views",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmed {
			return fmt.Errorf("refusing to drop without --yes")
		}
		if err := runSchema(cmd.Context(), internal.DropStatements(cfg.Database.TableNames)); err != nil {
			return err
		}
		pterm.Success.Println("Database dropped.")
		return nil
	},
}

func init() {
	initDBCmd.Flags().BoolVar(&recreate, "recreate", false, "drop existing tables and views first")
	dropDBCmd.Flags().BoolVar(&confirmed, "yes", false, "confirm dropping all data")
	healthCmd.Flags().BoolVar(&rawProbe, "raw", false, "only check that the database accepts connections")
}

func runSchema(ctx context.Context, stmts []string) error {
	if err := internal.ValidatePostgresConfig(cfg.Database); err != nil {
		return err
	}
	pool, err := dialSchema(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	return withTx(ctx, pool, func(tx pgx.Tx) error {
		return applyStatements(ctx, tx, stmts)
	})
}

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func applyStatements(ctx context.Context, tx pgx.Tx, stmts []string) error {
	for _, stmt := range stmts {
		zap.S().Debugw("applying schema statement", "sql", stmt)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func withTx(ctx context.Context, db txStarter, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
