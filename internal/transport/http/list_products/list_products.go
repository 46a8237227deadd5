package listproducts

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/gorilla/schema"
)

type service interface {
	ListProducts(ctx context.Context, query product.QueryProductsModel, prioritize []string) ([]product.Product, error)
}

type queryProductsRequest struct {
	Ids        []string `schema:"ids,omitempty"`
	Category   []string `schema:"category,omitempty"`
	Available  bool     `schema:"available,omitempty"`
	Prioritize string   `schema:"prioritize,omitempty"`
	Limit      int      `schema:"limit,omitempty"`
	Offset     int      `schema:"offset,omitempty"`
}

func (q *queryProductsRequest) ToModel() (product.QueryProductsModel, error) {
	categories := make([]product.Category, 0, len(q.Category))
	for _, c := range q.Category {
		parsed, err := product.ParseCategory(c)
		if err != nil {
			return product.QueryProductsModel{}, err
		}
		categories = append(categories, parsed)
	}

	return product.QueryProductsModel{
		Ids:           q.Ids,
		Categories:    categories,
		AvailableOnly: q.Available,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}, nil
}

// prioritized splits the comma-separated prioritize parameter.
func (q *queryProductsRequest) prioritized() []string {
	var ids []string
	for _, id := range strings.Split(q.Prioritize, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// ListProducts returns the catalog, with previously ordered products first when prioritize is given.
func ListProducts(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryProductsRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid query", err.Error())
		slog.Error("Error decoding request", "error", err)

		return
	}
	model, err := query.ToModel()
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid query", err.Error())

		return
	}

	products, err := service.ListProducts(r.Context(), model, query.prioritized())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch products", err.Error())
		slog.Error("Error getting products", "error", err)

		return
	}

	response.JSON(w, http.StatusOK, products)
}
