package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is the subset of *sqlx.DB / *sqlx.Tx that repositories depend on,
// so the same repository method runs either standalone or inside a unit of
// work without the ORM-style lazy-navigation and implicit-transaction
// patterns flagged in SPEC_FULL.md §9.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

// UnitOfWork is the explicit replacement for declarative/annotation-driven
// transactions (SPEC_FULL.md §9): it carries the transaction plus a list of
// hooks to run only after a successful commit.
type UnitOfWork struct {
	Tx *sqlx.Tx

	hooks []func()
}

// OnCommit registers a hook to run after the unit of work commits
// successfully. Used by the import engine to evict the rates cache only
// once the reconcile transaction has actually landed.
func (u *UnitOfWork) OnCommit(hook func()) {
	u.hooks = append(u.hooks, hook)
}

// WithinTx opens a transaction, runs body, commits on success (running any
// registered after-commit hooks), and rolls back on error or panic.
func WithinTx(ctx context.Context, conn *sqlx.DB, body func(ctx context.Context, uow *UnitOfWork) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	uow := &UnitOfWork{Tx: tx}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := body(ctx, uow); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, hook := range uow.hooks {
		hook()
	}

	return nil
}
