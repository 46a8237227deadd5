package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// service is an interface for the service layer.
type service interface {
	SubmitOrder(ctx context.Context, draft order.Draft) (order.Order, error)
}

var validate = validator.New()

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	CustomerName    string               `json:"customerName"    validate:"required"`
	CustomerPhone   string               `json:"customerPhone"   validate:"required"`
	CustomerAddress string               `json:"customerAddress" validate:"required"`
	Location        *order.Location      `json:"location"`
	Items           []orderitem.LineItem `json:"items"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	Total           decimal.Decimal      `json:"total"`
	PaymentMethod   string               `json:"paymentMethod"`
	Status          string               `json:"status"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validate.Struct(r)
}

// toModel converts createOrderRequest to order.Draft. totalAmount wins over total.
func (r *createOrderRequest) toModel() order.Draft {
	total := r.TotalAmount
	if total.IsZero() {
		total = r.Total
	}

	return order.Draft{
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
		Location:        r.Location,
		Items:           r.Items,
		Total:           total,
		PaymentMethod:   order.PaymentMethodCash,
		Status:          order.StatusPending,
	}
}

// CreateOrder handles the order submission request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err.Error())
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest,
			"Missing required fields: customerName, customerPhone, customerAddress", err.Error())
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	created, err := service.SubmitOrder(r.Context(), req.toModel())
	if err != nil {
		switch {
		case errors.Is(err, ordersvc.ErrValidation), errors.Is(err, ordersvc.ErrUnknownProduct):
			response.Error(w, http.StatusBadRequest, "Invalid order", err.Error())
		default:
			response.Error(w, http.StatusInternalServerError, ordersvc.ErrPersistence.Error(), err.Error())
		}
		slog.Error("Error creating order", "error", err)

		return
	}

	response.JSON(w, http.StatusCreated, created)
}
