package iorderrepo

import (
	"context"
	"errors"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
)

var ErrNotFound = errors.New("order not found")

// IOrderRepository is an interface for order repository.
type IOrderRepository interface {
	// Insert stores the order header and returns it with the storage-assigned id.
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	// Query returns orders newest first, without items.
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status, updatedAt time.Time) (order.Order, error)
}
