package memory

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iuow"
)

var ErrTxInProgress = errors.New("transaction already in progress")

// unitOfWork reads and writes committed data directly until Begin, then a staged copy.
type unitOfWork struct {
	store  *Store
	staged *state
}

// NewUnitOfWork creates a unit of work over store.
func NewUnitOfWork(store *Store) iuow.UnitOfWork {
	return &unitOfWork{store: store}
}

// NewFactory returns a factory producing a fresh unit of work per call.
func NewFactory(store *Store) iuow.Factory {
	return func() iuow.UnitOfWork {
		return NewUnitOfWork(store)
	}
}

// with runs fn against the staged copy inside a transaction, or the committed data under the lock.
func (u *unitOfWork) with(fn func(s *state) error) error {
	if u.staged != nil {
		return fn(u.staged)
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	return fn(u.store.data)
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.staged != nil {
		return ErrTxInProgress
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.store.mu.Lock()
	u.staged = u.store.data.clone()

	return nil
}

func (u *unitOfWork) Commit(_ context.Context) error {
	if u.staged == nil {
		return nil
	}
	u.store.data = u.staged
	u.staged = nil
	u.store.mu.Unlock()

	return nil
}

func (u *unitOfWork) Rollback(_ context.Context) error {
	if u.staged == nil {
		return nil
	}
	u.staged = nil
	u.store.mu.Unlock()

	return nil
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &orderRepository{uow: u}
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &orderItemRepository{uow: u}
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &outboxRepository{uow: u}
}

func (u *unitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return &productRepository{uow: u}
}
