package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/google/uuid"
)

type orderRepository struct {
	uow *unitOfWork
}

func (r *orderRepository) Insert(_ context.Context, o order.Order) (order.Order, error) {
	err := r.uow.with(func(s *state) error {
		o.ID = uuid.NewString()
		o.Items = nil
		s.orders = append(s.orders, o)

		return nil
	})

	return o, err
}

func (r *orderRepository) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var result []order.Order
	err := r.uow.with(func(s *state) error {
		// Insertion order reversed, so equal timestamps still list the latest insert first.
		for i := len(s.orders) - 1; i >= 0; i-- {
			o := s.orders[i]
			if filter != nil && len(filter.Ids) > 0 && !slices.Contains(filter.Ids, o.ID) {
				continue
			}
			result = append(result, o)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter != nil {
		result = paginate(result, filter.Offset, filter.Limit)
	}
	if result == nil {
		result = []order.Order{}
	}

	return result, nil
}

func (r *orderRepository) UpdateStatus(
	_ context.Context,
	id string,
	status order.Status,
	updatedAt time.Time,
) (order.Order, error) {
	var updated order.Order
	err := r.uow.with(func(s *state) error {
		for i := range s.orders {
			if s.orders[i].ID == id {
				s.orders[i].Status = status
				s.orders[i].UpdatedAt = updatedAt
				updated = s.orders[i]

				return nil
			}
		}

		return iorderrepo.ErrNotFound
	})

	return updated, err
}

type orderItemRepository struct {
	uow *unitOfWork
}

func (r *orderItemRepository) BulkInsert(
	_ context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	result := make([]orderitem.OrderItem, 0, len(orderItems))
	err := r.uow.with(func(s *state) error {
		for _, item := range orderItems {
			s.itemSeq++
			item.ID = s.itemSeq
			s.items = append(s.items, item)
			result = append(result, item)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *orderItemRepository) Query(
	_ context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	result := []orderitem.OrderItem{}
	err := r.uow.with(func(s *state) error {
		for _, item := range s.items {
			if filter != nil {
				if len(filter.OrderIds) > 0 && !slices.Contains(filter.OrderIds, item.OrderID) {
					continue
				}
				if len(filter.ProductIds) > 0 && !slices.Contains(filter.ProductIds, item.ProductID) {
					continue
				}
			}
			result = append(result, item)
		}

		return nil
	})

	return result, err
}

type outboxRepository struct {
	uow *unitOfWork
}

func (r *outboxRepository) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	return r.uow.with(func(s *state) error {
		s.outboxSeq++
		msg.ID = s.outboxSeq
		s.outbox = append(s.outbox, msg)

		return nil
	})
}

func (r *outboxRepository) GetPendingMessages(
	_ context.Context,
	limit int,
	now time.Time,
) ([]outbox.OutboxMessage, error) {
	var result []outbox.OutboxMessage
	err := r.uow.with(func(s *state) error {
		for _, msg := range s.outbox {
			if msg.NextRetryAt.After(now) || msg.RetryCount >= msg.MaxRetries {
				continue
			}
			result = append(result, msg)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].NextRetryAt.Before(result[j].NextRetryAt)
	})

	return paginate(result, 0, limit), nil
}

func (r *outboxRepository) Delete(_ context.Context, id int64) error {
	return r.uow.with(func(s *state) error {
		s.outbox = slices.DeleteFunc(s.outbox, func(msg outbox.OutboxMessage) bool {
			return msg.ID == id
		})

		return nil
	})
}

func (r *outboxRepository) UpdateRetry(
	_ context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	return r.uow.with(func(s *state) error {
		for i := range s.outbox {
			if s.outbox[i].ID == id {
				s.outbox[i].RetryCount = retryCount
				s.outbox[i].LastError = lastError
				s.outbox[i].NextRetryAt = nextRetryAt
				s.outbox[i].UpdatedAt = time.Now()
			}
		}

		return nil
	})
}

type productRepository struct {
	uow *unitOfWork
}

func (r *productRepository) Query(_ context.Context, filter *product.QueryProductsModel) ([]product.Product, error) {
	var result []product.Product
	err := r.uow.with(func(s *state) error {
		for _, p := range s.products {
			if filter != nil {
				if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, p.ID) {
					continue
				}
				if len(filter.Categories) > 0 && !slices.Contains(filter.Categories, p.Category) {
					continue
				}
				if filter.AvailableOnly && !p.Available {
					continue
				}
			}
			result = append(result, p)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}

		return result[i].Name < result[j].Name
	})

	if filter != nil {
		result = paginate(result, filter.Offset, filter.Limit)
	}
	if result == nil {
		result = []product.Product{}
	}

	return result, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
