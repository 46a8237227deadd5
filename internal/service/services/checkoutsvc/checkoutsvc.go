package checkoutsvc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/corray333/backend-labs/storefront/internal/service/models/cart"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// OrderSubmitter persists a draft and returns the stored order.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, draft order.Draft) (order.Order, error)
}

// HistoryRecorder remembers ordered product ids. It never fails.
type HistoryRecorder interface {
	Record(ctx context.Context, ids ...string)
}

// LocationWatcher is the live location subscription stopped once an order is confirmed.
type LocationWatcher interface {
	StopWatch()
}

// OrdersState is the client-side list of submitted orders, newest first.
type OrdersState struct {
	mu     sync.RWMutex
	orders []order.Order
}

// Prepend adds a just-submitted order to the front.
func (s *OrdersState) Prepend(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]order.Order{o}, s.orders...)
}

// Replace sets the list, e.g. after fetching it from the server.
func (s *OrdersState) Replace(orders []order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]order.Order(nil), orders...)
}

// List returns a copy of the orders, newest first.
func (s *OrdersState) List() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]order.Order(nil), s.orders...)
}

// Confirmation is what the customer sees after a successful order.
type Confirmation struct {
	Order order.Order
	Code  string
	// Cart is the cart after checkout: cleared for cart orders, untouched for direct ones.
	Cart cart.State
}

// CheckoutService turns checkout input into a submitted order.
type CheckoutService struct {
	submitter OrderSubmitter
	history   HistoryRecorder
	watcher   LocationWatcher
	pricing   Pricing
	orders    *OrdersState
}

type option func(*CheckoutService)

// MustNewCheckoutService creates a new CheckoutService.
func MustNewCheckoutService(opts ...option) *CheckoutService {
	fee, err := decimal.NewFromString(viper.GetString("checkout.delivery_fee"))
	if err != nil {
		fee = decimal.Zero
	}
	s := &CheckoutService{
		pricing: Pricing{
			DeliveryFee: fee,
			CountryCode: viper.GetString("checkout.country_code"),
		},
		orders: &OrdersState{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.submitter == nil {
		panic("checkoutsvc: order submitter is required")
	}

	return s
}

// WithSubmitter sets where orders are sent.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSubmitter(submitter OrderSubmitter) option {
	return func(s *CheckoutService) {
		s.submitter = submitter
	}
}

// WithHistory sets the order history recorder.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHistory(history HistoryRecorder) option {
	return func(s *CheckoutService) {
		s.history = history
	}
}

// WithLocationWatcher sets the location watch to stop after confirmation.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithLocationWatcher(watcher LocationWatcher) option {
	return func(s *CheckoutService) {
		s.watcher = watcher
	}
}

// WithPricing overrides the configured delivery fee and country code.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPricing(pricing Pricing) option {
	return func(s *CheckoutService) {
		s.pricing = pricing
	}
}

// Orders returns the orders submitted in this session.
func (s *CheckoutService) Orders() *OrdersState {
	return s.orders
}

// Pricing returns the pricing applied to drafts.
func (s *CheckoutService) Pricing() Pricing {
	return s.pricing
}

// Checkout builds the draft, submits it and updates local state. Validation errors wrap
// ErrValidation and nothing is submitted.
func (s *CheckoutService) Checkout(ctx context.Context, src Source, customer Customer) (Confirmation, error) {
	ctx, span := otel.Tracer("storefront").Start(ctx, "checkoutsvc.Checkout")
	defer span.End()

	draft, err := BuildDraft(src, customer, s.pricing)
	if err != nil {
		return Confirmation{}, err
	}

	placed, err := s.submitter.SubmitOrder(ctx, draft)
	if err != nil {
		slog.Error("Error submitting order", "error", err)

		return Confirmation{}, fmt.Errorf("failed to submit order: %w", err)
	}

	s.orders.Prepend(placed)

	if s.watcher != nil {
		s.watcher.StopWatch()
	}

	if s.history != nil {
		ids := make([]string, 0, len(draft.Items))
		for _, item := range draft.Items {
			if id, ok := item.ResolveProductID(); ok {
				ids = append(ids, id)
			}
		}
		s.history.Record(ctx, ids...)
	}

	next := src.Cart
	if !draft.Direct {
		next = cart.Reduce(src.Cart, cart.Clear{})
	}

	slog.Info("Order placed", "order_id", placed.ID, "total", placed.TotalAmount.String())

	return Confirmation{
		Order: placed,
		Code:  order.ShortCode(placed.ID),
		Cart:  next,
	}, nil
}
