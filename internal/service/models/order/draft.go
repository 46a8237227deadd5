package order

import (
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

// Draft is an order assembled at checkout, before submission.
type Draft struct {
	CustomerName    string               `json:"customerName"`
	CustomerPhone   string               `json:"customerPhone"`
	CustomerAddress string               `json:"customerAddress"`
	Location        *Location            `json:"location"`
	Items           []orderitem.LineItem `json:"items"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	DeliveryFee     decimal.Decimal      `json:"deliveryFee"`
	Total           decimal.Decimal      `json:"total"`
	PaymentMethod   PaymentMethod        `json:"paymentMethod"`
	Status          Status               `json:"status"`
	Direct          bool                 `json:"-"`
}
