package orderitem

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingProductIdentifier = errors.New("a product id is missing from an item in the order")
	ErrInvalidQuantity          = errors.New("item quantity must be at least 1")
	ErrInvalidPrice             = errors.New("item price must not be negative")
)

// OrderItem is the canonical, persisted shape of an order line.
type OrderItem struct {
	ID        int64           `json:"-"`
	OrderID   string          `json:"-"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"-"`
}

// Subtotal returns price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductRef is the product payload a line item may carry instead of an explicit product id.
type ProductRef struct {
	ID       string          `json:"id,omitempty"`
	LegacyID string          `json:"_id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
}

// LineItem is an order line as submitted by a client: cart entries and direct-buy payloads
// carry the product under different fields.
type LineItem struct {
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *ProductRef     `json:"product,omitempty"`
}

// ResolveProductID returns the first non-empty identifier among productId, product.id and product._id.
func (l LineItem) ResolveProductID() (string, bool) {
	if id := strings.TrimSpace(l.ProductID); id != "" {
		return id, true
	}
	if l.Product == nil {
		return "", false
	}
	if id := strings.TrimSpace(l.Product.ID); id != "" {
		return id, true
	}
	if id := strings.TrimSpace(l.Product.LegacyID); id != "" {
		return id, true
	}

	return "", false
}

// Normalize converts submitted lines to the canonical {productId, name, quantity, price} shape.
// It fails on the first line without a resolvable product id.
func Normalize(lines []LineItem) ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(lines))
	for i, l := range lines {
		productID, ok := l.ResolveProductID()
		if !ok {
			return nil, fmt.Errorf("%w (item %d)", ErrMissingProductIdentifier, i)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w (item %d)", ErrInvalidQuantity, i)
		}

		name := l.Name
		price := l.Price
		if l.Product != nil {
			if name == "" {
				name = l.Product.Name
			}
			if price.IsZero() {
				price = l.Product.Price
			}
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%w (item %d)", ErrInvalidPrice, i)
		}

		items = append(items, OrderItem{
			ProductID: productID,
			Name:      name,
			Quantity:  l.Quantity,
			Price:     price,
		})
	}

	return items, nil
}

// Subtotal sums price times quantity over items.
func Subtotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	return total
}

// SumPrices sums unit prices over items, ignoring quantities. Used by order reporting.
func SumPrices(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}

	return total
}
