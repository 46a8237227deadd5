package order

import (
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

// Order represents a persisted customer order.
type Order struct {
	ID              string                `json:"id"`
	CustomerName    string                `json:"customerName"`
	CustomerPhone   string                `json:"customerPhone"`
	CustomerAddress string                `json:"customerAddress"`
	Location        *Location             `json:"location"`
	Items           []orderitem.OrderItem `json:"items"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	PaymentMethod   PaymentMethod         `json:"paymentMethod"`
	Status          Status                `json:"status"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// ShortCode is the human-friendly order code: the last 6 characters of the id, upper-cased.
func ShortCode(id string) string {
	if len(id) > 6 {
		id = id[len(id)-6:]
	}

	return strings.ToUpper(id)
}

// WithTotal is an order as listed by the reporting read path.
type WithTotal struct {
	ID              string                `json:"id"`
	CustomerName    string                `json:"customerName"`
	CustomerAddress string                `json:"customerAddress"`
	Items           []orderitem.OrderItem `json:"items"`
	Total           decimal.Decimal       `json:"total"`
}
