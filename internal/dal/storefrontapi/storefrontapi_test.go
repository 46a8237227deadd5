package storefrontapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var draft order.Draft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, "Mona", draft.CustomerName)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(order.Order{
			ID:           "8c1b1f44-8a5e-4f0b-9d6b-2a9c3e7d4f11",
			CustomerName: draft.CustomerName,
			TotalAmount:  decimal.NewFromInt(90),
			Status:       order.StatusPending,
		})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL + "/api/"))
	created, err := c.SubmitOrder(context.Background(), order.Draft{
		CustomerName: "Mona",
		Items:        []orderitem.LineItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(55)}},
	})

	require.NoError(t, err)
	assert.Equal(t, "8c1b1f44-8a5e-4f0b-9d6b-2a9c3e7d4f11", created.ID)
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(90)))
}

func TestSubmitOrder_ErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		rejected bool
		message  string
	}{
		{"validation", http.StatusBadRequest, `{"error":"Invalid order","details":"customer phone is required"}`, true, "Invalid order"},
		{"persistence", http.StatusInternalServerError, `{"error":"order could not be saved, please try again","details":"boom"}`, false, "order could not be saved, please try again"},
		{"no body", http.StatusBadGateway, ``, false, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).SubmitOrder(context.Background(), order.Draft{})

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.rejected, errors.Is(err, ErrRejected))
		})
	}
}

func TestListProducts_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "Boxes", r.URL.Query().Get("category"))
		assert.Equal(t, "a,b", r.URL.Query().Get("prioritize"))

		_ = json.NewEncoder(w).Encode([]product.Product{{ID: "b", Name: "Box"}})
	}))
	defer srv.Close()

	products, err := NewClient(WithBaseURL(srv.URL)).ListProducts(context.Background(), "Boxes", []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "b", products[0].ID)
}

func TestListOrders_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).ListOrders(context.Background())

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
