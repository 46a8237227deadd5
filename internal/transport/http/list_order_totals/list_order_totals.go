package listordertotals

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
)

type service interface {
	GetOrdersWithTotal(ctx context.Context) ([]order.WithTotal, error)
}

// ListOrderTotals returns every order with the sum of its item prices.
func ListOrderTotals(w http.ResponseWriter, r *http.Request, service service) {
	orders, err := service.GetOrdersWithTotal(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch order totals", err.Error())
		slog.Error("Error getting order totals", "error", err)

		return
	}

	response.JSON(w, http.StatusOK, orders)
}
