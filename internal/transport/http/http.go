package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	createorder "github.com/corray333/backend-labs/storefront/internal/transport/http/create_order"
	listordertotals "github.com/corray333/backend-labs/storefront/internal/transport/http/list_order_totals"
	listorders "github.com/corray333/backend-labs/storefront/internal/transport/http/list_orders"
	listproducts "github.com/corray333/backend-labs/storefront/internal/transport/http/list_products"
	reversegeocode "github.com/corray333/backend-labs/storefront/internal/transport/http/reverse_geocode"
	updateorderstatus "github.com/corray333/backend-labs/storefront/internal/transport/http/update_order_status"
	"github.com/corray333/backend-labs/storefront/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type orderService interface {
	SubmitOrder(ctx context.Context, draft order.Draft) (order.Order, error)
	GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error)
	GetOrdersWithTotal(ctx context.Context) ([]order.WithTotal, error)
	UpdateStatus(ctx context.Context, id string, status string) (order.Order, error)
}

type catalogService interface {
	ListProducts(ctx context.Context, query product.QueryProductsModel, prioritize []string) ([]product.Product, error)
}

type addressService interface {
	ResolveAddress(ctx context.Context, lat, lng float64) string
}

// HTTPTransport serves the storefront API under /api.
type HTTPTransport struct {
	server    *http.Server
	router    *chi.Mux
	orders    orderService
	catalog   catalogService
	addresses addressService
}

func NewHTTPTransport(orders orderService, catalog catalogService, addresses addressService) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:    server,
		router:    router,
		orders:    orders,
		catalog:   catalog,
		addresses: addresses,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router, for serving the API from tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.listOrders)
		r.Post("/orders", h.createOrder)
		r.Get("/orders/totals", h.listOrderTotals)
		r.Put("/orders/{id}", h.updateOrderStatus)
		r.Get("/products", h.listProducts)
		r.Get("/geocode/reverse", h.reverseGeocode)
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orders)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) listOrderTotals(w http.ResponseWriter, r *http.Request) {
	listordertotals.ListOrderTotals(w, r, h.orders)
}

func (h *HTTPTransport) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	updateorderstatus.UpdateOrderStatus(w, r, h.orders)
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	listproducts.ListProducts(w, r, h.catalog)
}

func (h *HTTPTransport) reverseGeocode(w http.ResponseWriter, r *http.Request) {
	reversegeocode.ReverseGeocode(w, r, h.addresses)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
