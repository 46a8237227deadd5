package storefrontapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrRejected = errors.New("request rejected by the storefront")

// APIError is a non-2xx storefront response.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("storefront returned %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}

	return fmt.Sprintf("storefront returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match client errors with errors.Is(err, ErrRejected).
func (e *APIError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrRejected
	}

	return nil
}

// Client talks to the storefront HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, for example http://localhost:8080/api.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client from the api.* configuration.
func NewClient(opts ...Option) *Client {
	timeout := time.Duration(viper.GetInt("api.timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL: viper.GetString("api.base_url"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	return c
}

// SubmitOrder posts the draft and returns the persisted order.
func (c *Client) SubmitOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to encode order: %w", err)
	}

	var created order.Order
	if err := c.do(ctx, http.MethodPost, "/orders", bytes.NewReader(body), http.StatusCreated, &created); err != nil {
		return order.Order{}, err
	}

	return created, nil
}

// ListOrders fetches persisted orders, newest first.
func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, http.StatusOK, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListProducts fetches the catalog, optionally filtered by category and with the given ids first.
func (c *Client) ListProducts(ctx context.Context, category string, prioritize []string) ([]product.Product, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}
	if len(prioritize) > 0 {
		query.Set("prioritize", strings.Join(prioritize, ","))
	}

	path := "/products"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var products []product.Product
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &products); err != nil {
		return nil, err
	}

	return products, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}

		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
