package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/mediator/core/lane"
)

type txContextKey struct{}

// WithTx returns a context carrying tx. A nil tx leaves ctx unchanged.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext returns the transaction stored with WithTx, if any.
// Handlers running under TxScope use it for their queries.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx, ok
}

// Beginner starts transactions. *pgxpool.Pool, *pgx.Conn and pgx.Tx implement it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxScope returns a scope factory that runs every handler invocation in its
// own transaction: committed when the handler succeeds, rolled back when it
// fails. Retries of one invocation share its transaction.
//
// When the publishing context already carries a transaction, the handler gets
// a savepoint inside it instead, so the outer caller keeps control of the commit.
//
// Example:
//
//	m := mediator.New(mediator.WithScopeFactory(pg.TxScope(pool)))
//
//	func saveOrder(ctx context.Context, o OrderPlaced) error {
//		tx, _ := pg.TxFromContext(ctx)
//		_, err := tx.Exec(ctx, "INSERT INTO orders (id) VALUES ($1)", o.ID)
//		return err
//	}
func TxScope(db Beginner) lane.ScopeFactory {
	return func(ctx context.Context) (context.Context, lane.Scope, error) {
		var b Beginner = db
		if outer, ok := TxFromContext(ctx); ok {
			b = outer
		}

		tx, err := b.Begin(ctx)
		if err != nil {
			return ctx, nil, errors.Join(ErrFailedToBeginTx, err)
		}
		return WithTx(ctx, tx), &txScope{ctx: context.WithoutCancel(ctx), tx: tx}, nil
	}
}

type txScope struct {
	ctx context.Context
	tx  pgx.Tx
}

// Close commits on success and rolls back on failure. Commit and rollback
// use a context detached from the handler's, so a cancelled handler still
// releases its connection.
func (s *txScope) Close(err error) error {
	if err != nil {
		if rbErr := s.tx.Rollback(s.ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return rbErr
		}
		return nil
	}
	if err := s.tx.Commit(s.ctx); err != nil {
		return wrapCommit(err)
	}
	return nil
}
