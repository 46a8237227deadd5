package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/config"
	"github.com/corray333/backend-labs/storefront/internal/dal/kvstore/file"
	redisstore "github.com/corray333/backend-labs/storefront/internal/dal/kvstore/redis"
	"github.com/corray333/backend-labs/storefront/internal/dal/locator"
	"github.com/corray333/backend-labs/storefront/internal/dal/nominatim"
	"github.com/corray333/backend-labs/storefront/internal/dal/storefrontapi"
	"github.com/corray333/backend-labs/storefront/internal/otel"
	"github.com/corray333/backend-labs/storefront/internal/service/models/cart"
	"github.com/corray333/backend-labs/storefront/internal/service/models/geo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/service/services/addresssvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/geolocationsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/historysvc"
	"github.com/spf13/viper"
)

var ErrUnknownItem = errors.New("no product matches the requested item")

// Catalog is the storefront API as seen by the checkout client.
type Catalog interface {
	checkoutsvc.OrderSubmitter
	ListProducts(ctx context.Context, category string, prioritize []string) ([]product.Product, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
}

// CheckoutApp places one order from the command line.
type CheckoutApp struct {
	api            Catalog
	history        *historysvc.HistoryService
	acquirer       *geolocationsvc.Acquirer
	checkout       *checkoutsvc.CheckoutService
	otelController *otel.OtelController
	closers        []io.Closer
	out            io.Writer
}

// MustNewCheckoutApp wires the checkout client from the checkout.*, api.* and history.* configuration.
func MustNewCheckoutApp(out io.Writer) *CheckoutApp {
	otelController := otel.MustInitOtel("storefront-checkout")

	a := &CheckoutApp{
		api:            storefrontapi.NewClient(),
		otelController: otelController,
		out:            out,
	}
	a.history = historysvc.MustNewHistoryService(
		historysvc.WithStore(a.mustNewHistoryStore()),
		historysvc.WithKey(viper.GetString("history.key")),
	)

	addressSvc := addresssvc.MustNewAddressService(
		addresssvc.WithGeocoder(nominatim.NewClient()),
	)
	a.acquirer = geolocationsvc.MustNewAcquirer(
		geolocationsvc.WithLocator(newLocator()),
		geolocationsvc.WithAddressResolver(addressSvc),
		geolocationsvc.WithNotifier(a.notify),
	)

	a.checkout = checkoutsvc.MustNewCheckoutService(
		checkoutsvc.WithSubmitter(a.api),
		checkoutsvc.WithHistory(a.history),
		checkoutsvc.WithLocationWatcher(a.acquirer),
		checkoutsvc.WithPricing(checkoutsvc.Pricing{
			DeliveryFee: config.DeliveryFee(),
			CountryCode: viper.GetString("checkout.country_code"),
		}),
	)

	return a
}

func (a *CheckoutApp) mustNewHistoryStore() historysvc.Store {
	switch backend := viper.GetString("history.backend"); backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store := redisstore.MustNewStore(ctx, viper.GetString("history.redis_addr"), "storefront:")
		a.closers = append(a.closers, store)

		return store
	case "file":
		return file.NewStore(viper.GetString("history.path"))
	default:
		panic("unknown history.backend: " + backend)
	}
}

// newLocator reports the device fix given with --lat/--lng, or no fix at all.
func newLocator() geolocationsvc.Locator {
	if !viper.IsSet("checkout.device_lat") || !viper.IsSet("checkout.device_lng") {
		return &locator.Static{}
	}

	return locator.NewStatic(
		viper.GetFloat64("checkout.device_lat"),
		viper.GetFloat64("checkout.device_lng"),
		viper.GetFloat64("checkout.device_accuracy"),
	)
}

// Run places the configured order, or lists orders when checkout.list_orders is set.
func (a *CheckoutApp) Run(ctx context.Context) error {
	defer a.shutdown()

	if viper.GetBool("checkout.list_orders") {
		return a.printOrders(ctx)
	}

	products, err := a.api.ListProducts(ctx, "", a.history.Load(ctx))
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	src, err := buildSource(products, viper.GetStringSlice("checkout.items"), viper.GetBool("checkout.direct"))
	if err != nil {
		return err
	}

	location, err := a.locate(ctx)
	if err != nil {
		return fmt.Errorf("failed to determine the delivery location: %w", err)
	}

	customer := checkoutsvc.Customer{
		Name:          viper.GetString("checkout.customer_name"),
		Phone:         viper.GetString("checkout.customer_phone"),
		ManualAddress: viper.GetString("checkout.customer_address"),
		Location:      location,
	}

	confirmation, err := a.checkout.Checkout(ctx, src, customer)
	if err != nil {
		var apiErr *storefrontapi.APIError
		if errors.As(err, &apiErr) && apiErr.Details != "" {
			_, _ = fmt.Fprintf(a.out, "Order failed: %s\n%s\n", apiErr.Message, apiErr.Details)
		}

		return err
	}

	_, _ = fmt.Fprintf(a.out, "Order %s placed for %s\nDeliver to: %s\nTotal: %s (cash on delivery)\n",
		confirmation.Code,
		confirmation.Order.CustomerName,
		confirmation.Order.CustomerAddress,
		confirmation.Order.TotalAmount.StringFixed(2),
	)

	return nil
}

// locate returns the delivery location: a manual pin when checkout.manual_pin is set,
// otherwise the best automatic fix. An order needs a location, so a failed acquisition
// is returned after the remediation hint is printed.
func (a *CheckoutApp) locate(ctx context.Context) (*order.Location, error) {
	if viper.GetBool("checkout.manual_pin") {
		loc, err := a.acquirer.SetManual(ctx, viper.GetFloat64("checkout.device_lat"), viper.GetFloat64("checkout.device_lng"))
		if err != nil {
			slog.Warn("Manual location rejected", "error", err)

			return nil, err
		}

		return &loc, nil
	}

	if _, err := a.acquirer.Acquire(ctx); err != nil {
		geoErr := geo.AsError(err)
		slog.Warn("Location unavailable", "code", geoErr.Code.String(), "error", err)
		_, _ = fmt.Fprintln(a.out, geoErr.Remediation())
		_, _ = fmt.Fprintln(a.out, "Pin the delivery point with --pin --lat <lat> --lng <lng> instead.")

		return nil, geoErr
	}

	if err := a.acquirer.StartWatch(); err != nil {
		slog.Warn("Error watching location", "error", err)
	}

	wait := time.Duration(viper.GetInt("checkout.refine_wait_ms")) * time.Millisecond
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}

	loc, ok := a.acquirer.Current()
	if !ok {
		return nil, geo.NewError(geo.PositionUnavailable, nil)
	}

	return &loc, nil
}

func (a *CheckoutApp) notify(n geolocationsvc.Notification) {
	slog.Info("Location updated", "kind", string(n.Kind), "address", n.Location.Address)
}

func (a *CheckoutApp) printOrders(ctx context.Context) error {
	orders, err := a.api.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	for _, o := range orders {
		_, _ = fmt.Fprintf(a.out, "%s  %-16s  %8s  %s  %s\n",
			order.ShortCode(o.ID),
			o.Status,
			o.TotalAmount.StringFixed(2),
			o.CreatedAt.Local().Format(time.DateTime),
			o.CustomerAddress,
		)
	}

	return nil
}

func (a *CheckoutApp) shutdown() {
	a.acquirer.Close()

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			slog.Error("Error closing history store", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	}
}

// buildSource turns "id-or-name[=qty]" entries into a cart, or a direct order of the first entry.
func buildSource(products []product.Product, entries []string, direct bool) (checkoutsvc.Source, error) {
	state := cart.Empty()

	for _, entry := range entries {
		ref, qty, err := parseItemEntry(entry)
		if err != nil {
			return checkoutsvc.Source{}, err
		}
		p, ok := findProduct(products, ref)
		if !ok {
			return checkoutsvc.Source{}, fmt.Errorf("%w: %s", ErrUnknownItem, ref)
		}

		if direct {
			return checkoutsvc.DirectSource(&checkoutsvc.DirectProduct{Product: p, Quantity: qty}), nil
		}

		state = cart.Reduce(state, cart.AddItem{Product: p})
		state = cart.Reduce(state, cart.UpdateQuantity{ProductID: p.ID, Quantity: qtyInCart(state, p.ID) + qty - 1})
	}

	if direct {
		return checkoutsvc.DirectSource(nil), nil
	}

	return checkoutsvc.CartSource(state), nil
}

func parseItemEntry(entry string) (string, int, error) {
	ref, rawQty, found := strings.Cut(entry, "=")
	ref = strings.TrimSpace(ref)
	if !found {
		return ref, 1, nil
	}

	qty, err := strconv.Atoi(strings.TrimSpace(rawQty))
	if err != nil || qty < 1 {
		return "", 0, fmt.Errorf("invalid quantity in item %q", entry)
	}

	return ref, qty, nil
}

func findProduct(products []product.Product, ref string) (product.Product, bool) {
	for _, p := range products {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}

	return product.Product{}, false
}

func qtyInCart(state cart.State, productID string) int {
	for _, item := range state.Items {
		if item.Product.ID == productID {
			return item.Quantity
		}
	}

	return 0
}
