package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/storefront/internal/dal/memory"
	"github.com/corray333/backend-labs/storefront/internal/dal/nominatim"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/service/services/addresssvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct{}

func (stubGeocoder) Reverse(_ context.Context, _, _ float64) (*nominatim.ReverseResult, error) {
	return &nominatim.ReverseResult{Address: map[string]string{"road": "Tahrir Street", "city": "Cairo"}}, nil
}

// brokenUOW fails to open a transaction.
type brokenUOW struct {
	iuow.UnitOfWork
}

func (brokenUOW) Begin(context.Context) error {
	return errors.New("connection refused")
}

func newTestServer(t *testing.T, factory iuow.Factory) *httptest.Server {
	t.Helper()

	orders := ordersvc.MustNewOrderService(
		ordersvc.WithUnitOfWorkFactory(factory),
		ordersvc.WithDeliveryFee(decimal.NewFromInt(35)),
		ordersvc.WithCountryCode("20"),
	)
	catalog := catalogsvc.MustNewCatalogService(catalogsvc.WithUnitOfWorkFactory(factory))
	addresses := addresssvc.MustNewAddressService(addresssvc.WithGeocoder(stubGeocoder{}))

	transport := NewHTTPTransport(orders, catalog, addresses)
	transport.RegisterRoutes()

	srv := httptest.NewServer(transport.Handler())
	t.Cleanup(srv.Close)

	return srv
}

func orderBody(p product.Product, phone string) map[string]any {
	return map[string]any{
		"customerName":    "Mona",
		"customerPhone":   phone,
		"customerAddress": "Tahrir Street, Cairo",
		"location":        map[string]any{"lat": 30.0444, "lng": 31.2357, "address": "Tahrir Street, Cairo"},
		"items": []map[string]any{
			{"productId": p.ID, "name": p.Name, "quantity": 2, "price": p.Price.String()},
		},
		"totalAmount":   p.Price.Mul(decimal.NewFromInt(2)).Add(decimal.NewFromInt(35)).String(),
		"paymentMethod": "cash",
		"status":        "pending",
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestCreateOrder_MissingPhoneIsRejected(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	srv := newTestServer(t, memory.NewFactory(store))

	resp := postJSON(t, srv.URL+"/api/orders", orderBody(store.Products()[0], ""))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[response.ErrorBody](t, resp)
	assert.Contains(t, body.Error, "customerPhone")

	orders, items, messages := store.Counts()
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Zero(t, messages)
}

func TestCreateOrder_PersistsAndListsNewestFirst(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	srv := newTestServer(t, memory.NewFactory(store))
	products := store.Products()

	first := postJSON(t, srv.URL+"/api/orders", orderBody(products[0], "01000000001"))
	require.Equal(t, http.StatusCreated, first.StatusCode)
	second := postJSON(t, srv.URL+"/api/orders", orderBody(products[1], "+20 100 000 0002"))
	require.Equal(t, http.StatusCreated, second.StatusCode)

	created := decode[order.Order](t, second)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "+201000000002", created.CustomerPhone)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.Equal(t, order.PaymentMethodCash, created.PaymentMethod)
	require.Len(t, created.Items, 1)
	assert.Equal(t, products[1].ID, created.Items[0].ProductID)
	assert.True(t, created.TotalAmount.Equal(products[1].Price.Mul(decimal.NewFromInt(2)).Add(decimal.NewFromInt(35))))

	resp, err := http.Get(srv.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listed := decode[[]order.Order](t, resp)
	require.Len(t, listed, 2)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Len(t, listed[0].Items, 1)
}

func TestCreateOrder_InvalidItemsAreRejected(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	srv := newTestServer(t, memory.NewFactory(store))

	body := orderBody(store.Products()[0], "01000000001")
	body["items"] = []map[string]any{{"name": "ghost", "quantity": 1, "price": "10"}}

	resp := postJSON(t, srv.URL+"/api/orders", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	orders, _, _ := store.Counts()
	assert.Zero(t, orders)
}

func TestCreateOrder_UnknownProductIsRejected(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	srv := newTestServer(t, memory.NewFactory(store))

	unknown := product.Product{ID: "3f1c2b9e-0000-4000-8000-000000000000", Name: "ghost", Price: decimal.NewFromInt(10)}
	resp := postJSON(t, srv.URL+"/api/orders", orderBody(unknown, "01000000001"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	orders, items, _ := store.Counts()
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateOrder_PersistenceFailure(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	factory := func() iuow.UnitOfWork { return brokenUOW{memory.NewUnitOfWork(store)} }
	srv := newTestServer(t, factory)

	resp := postJSON(t, srv.URL+"/api/orders", orderBody(store.Products()[0], "01000000001"))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[response.ErrorBody](t, resp)
	assert.Equal(t, ordersvc.ErrPersistence.Error(), body.Error)
	assert.Contains(t, body.Details, "connection refused")
}

func TestUpdateOrderStatus(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	srv := newTestServer(t, memory.NewFactory(store))

	created := decode[order.Order](t, postJSON(t, srv.URL+"/api/orders", orderBody(store.Products()[0], "01000000001")))

	put := func(id, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/orders/"+id, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })

		return resp
	}

	resp := put(created.ID, `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[order.Order](t, resp)
	assert.Equal(t, order.StatusConfirmed, updated.Status)

	assert.Equal(t, http.StatusBadRequest, put(created.ID, `{"status":"teleported"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, put("not-a-uuid", `{"status":"confirmed"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, put(created.ID, `{}`).StatusCode)
	assert.Equal(t, http.StatusNotFound,
		put("3f1c2b9e-0000-4000-8000-000000000000", `{"status":"confirmed"}`).StatusCode)
}

func TestListOrderTotals(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	srv := newTestServer(t, memory.NewFactory(store))
	p := store.Products()[0]

	postJSON(t, srv.URL+"/api/orders", orderBody(p, "01000000001"))

	resp, err := http.Get(srv.URL + "/api/orders/totals")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	totals := decode[[]order.WithTotal](t, resp)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].Total.Equal(p.Price))
}

func TestListProducts(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	srv := newTestServer(t, memory.NewFactory(store))

	resp, err := http.Get(srv.URL + "/api/products?category=Boxes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	boxes := decode[[]product.Product](t, resp)
	require.NotEmpty(t, boxes)
	for _, p := range boxes {
		assert.Equal(t, product.CategoryBoxes, p.Category)
	}

	last := boxes[len(boxes)-1]
	resp2, err := http.Get(srv.URL + "/api/products?category=Boxes&prioritize=" + last.ID)
	require.NoError(t, err)
	defer resp2.Body.Close()
	prioritized := decode[[]product.Product](t, resp2)
	require.Len(t, prioritized, len(boxes))
	assert.Equal(t, last.ID, prioritized[0].ID)

	bad, err := http.Get(srv.URL + "/api/products?category=Pizza")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestReverseGeocode(t *testing.T) {
	store := memory.NewStore()
	srv := newTestServer(t, memory.NewFactory(store))

	resp, err := http.Get(srv.URL + "/api/geocode/reverse?lat=30.0444&lng=31.2357")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loc := decode[order.Location](t, resp)
	assert.Equal(t, "Tahrir Street, Cairo", loc.Address)

	for _, query := range []string{"lat=91&lng=0", "lat=abc&lng=0", "lng=31"} {
		bad, err := http.Get(srv.URL + "/api/geocode/reverse?" + query)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, bad.StatusCode, query)
		_ = bad.Body.Close()
	}
}
