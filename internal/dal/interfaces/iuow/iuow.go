package iuow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iproductrepo"
)

// UnitOfWork groups repositories behind one transaction. Before Begin the repositories
// read and write outside any transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
	ProductRepository() iproductrepo.IProductRepository
}

// Factory creates a fresh unit of work per logical operation.
type Factory func() UnitOfWork

// WithinTx runs fn inside a transaction on u. The transaction is committed when fn
// returns nil and rolled back on an error or a panic, which is re-raised after rollback.
func WithinTx(ctx context.Context, u UnitOfWork, fn func(ctx context.Context, u UnitOfWork) error) (err error) {
	if err := u.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := u.Rollback(ctx); rbErr != nil {
				slog.Error("Error rolling back transaction after panic", "error", rbErr)
			}
			panic(p)
		}
		if err != nil {
			if rbErr := u.Rollback(ctx); rbErr != nil {
				slog.Error("Error rolling back transaction", "error", rbErr)
			}
		}
	}()

	if err = fn(ctx, u); err != nil {
		return err
	}

	if err = u.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
