package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TxContextKey struct{}

type pgxTransactor struct {
	pool *pgxpool.Pool
}

func NewPgxTransactor(pool *pgxpool.Pool) Transactor {
	return &pgxTransactor{pool: pool}
}

// WithinTransaction runs fn inside a transaction. When ctx already carries a
// transaction a savepoint is used instead, so workflows can be composed.
func (t *pgxTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	var (
		tx  pgx.Tx
		err error
	)
	if outer, ok := ctx.Value(TxContextKey{}).(pgx.Tx); ok {
		tx, err = outer.Begin(ctx)
	} else {
		tx, err = t.pool.Begin(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Rollback after a successful commit returns pgx.ErrTxClosed and is ignored.
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err = fn(context.WithValue(ctx, TxContextKey{}, tx)); err != nil {
		return fmt.Errorf("transaction function failed: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func GetPgxExecutorFromContext(ctx context.Context, pool *pgxpool.Pool) Executor {
	if tx, ok := ctx.Value(TxContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}
