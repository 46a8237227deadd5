package checkoutsvc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/models/cart"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/shopspring/decimal"
)

var (
	ErrValidation = errors.New("validation failed")

	errEmptyName     = fmt.Errorf("%w: customer name is required", ErrValidation)
	errEmptyPhone    = fmt.Errorf("%w: customer phone is required", ErrValidation)
	errNoLocation    = fmt.Errorf("%w: a delivery location is required", ErrValidation)
	errEmptyCart     = fmt.Errorf("%w: the cart is empty", ErrValidation)
	errNoProduct     = fmt.Errorf("%w: no product selected", ErrValidation)
	errEmptyLocation = fmt.Errorf("%w: the delivery location has no address", ErrValidation)
)

// DirectProduct is a single product bought without going through the cart.
type DirectProduct struct {
	Product product.Product
	// Quantity defaults to 1.
	Quantity int
}

// Source is where order lines come from: the cart, or a direct purchase when Direct is set.
type Source struct {
	Cart   cart.State
	Direct *DirectProduct
	// IsDirect marks the direct path even when Direct is missing, so that case is reported.
	IsDirect bool
}

// CartSource orders the cart contents.
func CartSource(state cart.State) Source {
	return Source{Cart: state}
}

// DirectSource orders a single product.
func DirectSource(p *DirectProduct) Source {
	return Source{Direct: p, IsDirect: true}
}

// Customer is what the customer typed and picked at checkout.
type Customer struct {
	Name          string
	Phone         string
	ManualAddress string
	Location      *order.Location
}

// Pricing holds the per-order constants.
type Pricing struct {
	DeliveryFee decimal.Decimal
	CountryCode string
}

// BuildDraft validates checkout input and assembles the order to submit. It has no side effects.
func BuildDraft(src Source, customer Customer, pricing Pricing) (order.Draft, error) {
	name := strings.TrimSpace(customer.Name)
	if name == "" {
		return order.Draft{}, errEmptyName
	}
	phone := order.NormalizePhone(customer.Phone, pricing.CountryCode)
	if phone == "" {
		return order.Draft{}, errEmptyPhone
	}
	if customer.Location == nil {
		return order.Draft{}, errNoLocation
	}
	if !order.ValidCoordinates(customer.Location.Lat, customer.Location.Lng) {
		return order.Draft{}, fmt.Errorf("%w: %w", ErrValidation, order.ErrInvalidCoordinates)
	}

	address := strings.TrimSpace(customer.Location.Address)
	if address == "" {
		address = strings.TrimSpace(customer.ManualAddress)
	}
	if address == "" {
		return order.Draft{}, errEmptyLocation
	}

	items, err := lineItems(src)
	if err != nil {
		return order.Draft{}, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	location := *customer.Location
	location.Address = address

	return order.Draft{
		CustomerName:    name,
		CustomerPhone:   phone,
		CustomerAddress: address,
		Location:        &location,
		Items:           items,
		Subtotal:        subtotal,
		DeliveryFee:     pricing.DeliveryFee,
		Total:           subtotal.Add(pricing.DeliveryFee),
		PaymentMethod:   order.PaymentMethodCash,
		Status:          order.StatusPending,
		Direct:          src.IsDirect,
	}, nil
}

func lineItems(src Source) ([]orderitem.LineItem, error) {
	if src.IsDirect {
		if src.Direct == nil {
			return nil, errNoProduct
		}
		quantity := src.Direct.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		return []orderitem.LineItem{lineItem(src.Direct.Product, quantity)}, nil
	}

	if src.Cart.IsEmpty() {
		return nil, errEmptyCart
	}
	items := make([]orderitem.LineItem, 0, len(src.Cart.Items))
	for _, item := range src.Cart.Items {
		items = append(items, lineItem(item.Product, item.Quantity))
	}

	return items, nil
}

func lineItem(p product.Product, quantity int) orderitem.LineItem {
	return orderitem.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  quantity,
		Price:     p.Price,
		Product: &orderitem.ProductRef{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price,
			Image: p.Image,
		},
	}
}
