package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrValidation     = errors.New("invalid order")
	ErrUnknownProduct = errors.New("unknown product")
	ErrPersistence    = errors.New("order could not be saved, please try again")
	ErrOrderNotFound  = errors.New("order not found")
)

// OrderCreatedEvent is published for every placed order.
type OrderCreatedEvent struct {
	Event string      `json:"event"`
	Order order.Order `json:"order"`
}

// OrderService is a service for managing orders.
type OrderService struct {
	newUOW      iuow.Factory
	deliveryFee decimal.Decimal
	countryCode string
	queue       string
	maxRetries  int
	now         func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	fee, err := decimal.NewFromString(viper.GetString("checkout.delivery_fee"))
	if err != nil {
		fee = decimal.Zero
	}

	s := &OrderService{
		deliveryFee: fee,
		countryCode: viper.GetString("checkout.country_code"),
		queue:       viper.GetString("rabbitmq.queue"),
		maxRetries:  viper.GetInt("rabbitmq.outbox.max_retries"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: unit of work factory is required")
	}
	if s.queue == "" {
		s.queue = "storefront.order.created"
	}
	if s.maxRetries <= 0 {
		s.maxRetries = 5
	}

	return s
}

// WithUnitOfWorkFactory sets the unit of work factory for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory iuow.Factory) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithDeliveryFee overrides the configured delivery fee.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDeliveryFee(fee decimal.Decimal) option {
	return func(s *OrderService) {
		s.deliveryFee = fee
	}
}

// WithCountryCode overrides the configured phone country code.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCountryCode(code string) option {
	return func(s *OrderService) {
		s.countryCode = code
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// SubmitOrder validates the draft and stores the order, its items and its created event
// in one transaction. Failures before the transaction wrap ErrValidation, unknown products
// wrap ErrUnknownProduct, and storage failures wrap ErrPersistence. Nothing is stored on error.
func (s *OrderService) SubmitOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	ctx, span := otel.Tracer("storefront").Start(ctx, "ordersvc.SubmitOrder")
	defer span.End()

	pending, err := s.prepare(draft)
	if err != nil {
		return order.Order{}, err
	}

	var placed order.Order
	err = iuow.WithinTx(ctx, s.newUOW(), func(ctx context.Context, work iuow.UnitOfWork) error {
		if err := s.ensureProductsExist(ctx, work, pending.Items); err != nil {
			return err
		}

		created, err := work.OrderRepository().Insert(ctx, pending)
		if err != nil {
			return err
		}

		items := make([]orderitem.OrderItem, len(pending.Items))
		for i, item := range pending.Items {
			item.OrderID = created.ID
			item.CreatedAt = created.CreatedAt
			items[i] = item
		}
		created.Items, err = work.OrderItemRepository().BulkInsert(ctx, items)
		if err != nil {
			return err
		}

		if err := s.enqueueCreated(ctx, work, created); err != nil {
			return err
		}

		placed = created

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownProduct) {
			return order.Order{}, err
		}
		slog.Error("Error saving order", "error", err)

		return order.Order{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	span.SetAttributes(attribute.String("order.id", placed.ID))
	slog.Info("Order submitted", "order_id", placed.ID, "items", len(placed.Items), "total", placed.TotalAmount.String())

	return placed, nil
}

// prepare validates the draft and builds the order to insert, with the server-side total.
func (s *OrderService) prepare(draft order.Draft) (order.Order, error) {
	name := strings.TrimSpace(draft.CustomerName)
	if name == "" {
		return order.Order{}, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	phone := order.NormalizePhone(draft.CustomerPhone, s.countryCode)
	if phone == "" {
		return order.Order{}, fmt.Errorf("%w: customer phone is required", ErrValidation)
	}
	address := strings.TrimSpace(draft.CustomerAddress)
	if address == "" && draft.Location != nil {
		address = strings.TrimSpace(draft.Location.Address)
	}
	if address == "" {
		return order.Order{}, fmt.Errorf("%w: customer address is required", ErrValidation)
	}

	var location *order.Location
	if draft.Location != nil {
		if !order.ValidCoordinates(draft.Location.Lat, draft.Location.Lng) {
			return order.Order{}, fmt.Errorf("%w: %w", ErrValidation, order.ErrInvalidCoordinates)
		}
		location = &order.Location{Lat: draft.Location.Lat, Lng: draft.Location.Lng, Address: draft.Location.Address}
		if strings.TrimSpace(location.Address) == "" {
			location.Address = address
		}
	}

	if len(draft.Items) == 0 {
		return order.Order{}, fmt.Errorf("%w: the order has no items", ErrValidation)
	}
	items, err := orderitem.Normalize(draft.Items)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	total := orderitem.Subtotal(items).Add(s.deliveryFee)
	if !draft.Total.IsZero() && !draft.Total.Equal(total) {
		slog.Warn("Client total differs from computed total",
			"client_total", draft.Total.String(),
			"computed_total", total.String(),
		)
	}

	now := s.now().UTC()

	return order.Order{
		CustomerName:    name,
		CustomerPhone:   phone,
		CustomerAddress: address,
		Location:        location,
		Items:           items,
		TotalAmount:     total,
		PaymentMethod:   order.PaymentMethodCash,
		Status:          order.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *OrderService) ensureProductsExist(ctx context.Context, work iuow.UnitOfWork, items []orderitem.OrderItem) error {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := work.ProductRepository().Query(ctx, &product.QueryProductsModel{Ids: ids})
	if err != nil {
		return err
	}

	found := make(map[string]struct{}, len(products))
	for _, p := range products {
		found[p.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
		}
	}

	return nil
}

func (s *OrderService) enqueueCreated(ctx context.Context, work iuow.UnitOfWork, created order.Order) error {
	payload, err := json.Marshal(OrderCreatedEvent{Event: "order.created", Order: created})
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	now := s.now().UTC()

	return work.OutboxRepository().Insert(ctx, outbox.OutboxMessage{
		QueueName:   s.queue,
		RoutingKey:  s.queue,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  s.maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}

// GetOrders retrieves orders with their items, newest first.
func (s *OrderService) GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderItemQuery := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		orderItemQuery.OrderIds = append(orderItemQuery.OrderIds, o.ID)
	}
	orderItems, err := work.OrderItemRepository().Query(ctx, orderItemQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	byOrder := make(map[string][]orderitem.OrderItem, len(orders))
	for _, item := range orderItems {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []orderitem.OrderItem{}
		}
	}

	return orders, nil
}

// GetOrdersWithTotal lists every order with the sum of its item prices. Quantities are not
// applied and orders without items total zero.
func (s *OrderService) GetOrdersWithTotal(ctx context.Context) ([]order.WithTotal, error) {
	orders, err := s.GetOrders(ctx, order.QueryOrdersModel{})
	if err != nil {
		return nil, err
	}

	result := make([]order.WithTotal, 0, len(orders))
	for _, o := range orders {
		result = append(result, order.WithTotal{
			ID:              o.ID,
			CustomerName:    o.CustomerName,
			CustomerAddress: o.CustomerAddress,
			Items:           o.Items,
			Total:           orderitem.SumPrices(o.Items),
		})
	}

	return result, nil
}

// UpdateStatus moves an order to another status and stamps the update time.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status string) (order.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return order.Order{}, fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	parsed, err := order.ParseStatus(status)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	updated, err := s.newUOW().OrderRepository().UpdateStatus(ctx, id, parsed, s.now().UTC())
	if err != nil {
		if errors.Is(err, iorderrepo.ErrNotFound) {
			return order.Order{}, ErrOrderNotFound
		}

		return order.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	slog.Info("Order status updated", "order_id", id, "status", parsed.String())

	return updated, nil
}
