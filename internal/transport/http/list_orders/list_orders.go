package listorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/gorilla/schema"
)

type service interface {
	GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error)
}

type queryOrdersRequest struct {
	Ids    []string `schema:"ids,omitempty"`
	Limit  int      `schema:"limit,omitempty"`
	Offset int      `schema:"offset,omitempty"`
}

func (q *queryOrdersRequest) ToModel() order.QueryOrdersModel {
	return order.QueryOrdersModel{
		Ids:    q.Ids,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// ListOrders returns persisted orders, newest first.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid query", err.Error())
		slog.Error("Error decoding request", "error", err)

		return
	}
	if query.Limit < 0 || query.Offset < 0 {
		response.Error(w, http.StatusBadRequest, "Invalid query", "limit and offset must not be negative")

		return
	}

	orders, err := service.GetOrders(r.Context(), query.ToModel())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch orders", err.Error())
		slog.Error("Error getting orders", "error", err)

		return
	}

	response.JSON(w, http.StatusOK, orders)
}
