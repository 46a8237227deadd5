package updateorderstatus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type service interface {
	UpdateStatus(ctx context.Context, id string, status string) (order.Order, error)
}

var validate = validator.New()

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderStatus moves the order named by the {id} path parameter to a new status.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request, service service) {
	req := updateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", err.Error())
		slog.Error("Error decoding request body for status update", "error", err)

		return
	}
	if err := validate.Struct(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Missing required field: status", err.Error())

		return
	}

	updated, err := service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ordersvc.ErrValidation):
			response.Error(w, http.StatusBadRequest, "Invalid status update", err.Error())
		case errors.Is(err, ordersvc.ErrOrderNotFound):
			response.Error(w, http.StatusNotFound, "Order not found", "")
		default:
			response.Error(w, http.StatusInternalServerError, "Failed to update order", err.Error())
			slog.Error("Error updating order status", "error", err)
		}

		return
	}

	response.JSON(w, http.StatusOK, updated)
}
