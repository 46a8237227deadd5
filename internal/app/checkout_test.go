package app

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/kvstore/file"
	"github.com/corray333/backend-labs/storefront/internal/dal/locator"
	"github.com/corray333/backend-labs/storefront/internal/dal/memory"
	"github.com/corray333/backend-labs/storefront/internal/dal/nominatim"
	"github.com/corray333/backend-labs/storefront/internal/dal/storefrontapi"
	"github.com/corray333/backend-labs/storefront/internal/otel"
	"github.com/corray333/backend-labs/storefront/internal/service/models/geo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/service/services/addresssvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/geolocationsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/historysvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	httptransport "github.com/corray333/backend-labs/storefront/internal/transport/http"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct{}

type offlineGeocoder struct{}

func (offlineGeocoder) Reverse(context.Context, float64, float64) (*nominatim.ReverseResult, error) {
	return nil, errors.New("offline")
}

func (stubResolver) ResolveAddress(context.Context, float64, float64) string {
	return "Tahrir Street, Cairo"
}

type checkoutFixture struct {
	app     *CheckoutApp
	store   *memory.Store
	history *historysvc.HistoryService
	out     *bytes.Buffer
}

func newCheckoutFixture(t *testing.T, loc geolocationsvc.Locator) *checkoutFixture {
	t.Helper()
	t.Cleanup(viper.Reset)
	viper.Set("checkout.refine_wait_ms", 0)

	store := memory.NewStore(memory.DefaultCatalog()...)
	newUOW := memory.NewFactory(store)
	transport := httptransport.NewHTTPTransport(
		ordersvc.MustNewOrderService(
			ordersvc.WithUnitOfWorkFactory(newUOW),
			ordersvc.WithDeliveryFee(decimal.NewFromInt(35)),
			ordersvc.WithCountryCode("20"),
		),
		catalogsvc.MustNewCatalogService(catalogsvc.WithUnitOfWorkFactory(newUOW)),
		addresssvc.MustNewAddressService(addresssvc.WithGeocoder(offlineGeocoder{})),
	)
	transport.RegisterRoutes()
	srv := httptest.NewServer(transport.Handler())
	t.Cleanup(srv.Close)

	api := storefrontapi.NewClient(storefrontapi.WithBaseURL(srv.URL + "/api"))
	history := historysvc.MustNewHistoryService(
		historysvc.WithStore(file.NewStore(filepath.Join(t.TempDir(), "history.json"))),
		historysvc.WithKey("previousOrders"),
	)
	acquirer := geolocationsvc.MustNewAcquirer(
		geolocationsvc.WithLocator(loc),
		geolocationsvc.WithAddressResolver(stubResolver{}),
		geolocationsvc.WithRefinementDelay(time.Millisecond),
	)
	out := &bytes.Buffer{}

	return &checkoutFixture{
		app: &CheckoutApp{
			api:      api,
			history:  history,
			acquirer: acquirer,
			checkout: checkoutsvc.MustNewCheckoutService(
				checkoutsvc.WithSubmitter(api),
				checkoutsvc.WithHistory(history),
				checkoutsvc.WithLocationWatcher(acquirer),
				checkoutsvc.WithPricing(checkoutsvc.Pricing{DeliveryFee: decimal.NewFromInt(35), CountryCode: "20"}),
			),
			otelController: otel.MustInitOtel("storefront-checkout-test"),
			out:            out,
		},
		store:   store,
		history: history,
		out:     out,
	}
}

func TestCheckoutApp_PlacesCartOrderWithDeviceLocation(t *testing.T) {
	f := newCheckoutFixture(t, locator.NewStatic(30.0444, 31.2357, 15))
	sandwich := f.store.Products()[0]

	viper.Set("checkout.items", []string{sandwich.Name + "=2"})
	viper.Set("checkout.customer_name", "Mona")
	viper.Set("checkout.customer_phone", "010 1234 5678")

	require.NoError(t, f.app.Run(context.Background()))

	assert.Contains(t, f.out.String(), "placed for Mona")
	assert.Contains(t, f.out.String(), "Deliver to: Tahrir Street, Cairo")
	total := sandwich.Price.Mul(decimal.NewFromInt(2)).Add(decimal.NewFromInt(35))
	assert.Contains(t, f.out.String(), "Total: "+total.StringFixed(2))

	orders, items, _ := f.store.Counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, items)
	assert.Equal(t, []string{sandwich.ID}, f.history.Load(context.Background()))
	assert.False(t, f.app.acquirer.Watching())
}

func TestCheckoutApp_FailsWithoutLocation(t *testing.T) {
	f := newCheckoutFixture(t, &locator.Static{})

	viper.Set("checkout.items", []string{f.store.Products()[1].ID})
	viper.Set("checkout.customer_name", "Omar")
	viper.Set("checkout.customer_phone", "01000000000")
	viper.Set("checkout.customer_address", "12 Nile Corniche")

	err := f.app.Run(context.Background())

	var geoErr *geo.Error
	require.ErrorAs(t, err, &geoErr)
	assert.Equal(t, geo.PositionUnavailable, geoErr.Code)
	assert.Contains(t, f.out.String(), "location services")
	orders, _, _ := f.store.Counts()
	assert.Zero(t, orders)
}

func TestCheckoutApp_ManualPinWithoutDeviceFix(t *testing.T) {
	f := newCheckoutFixture(t, &locator.Static{})

	viper.Set("checkout.items", []string{f.store.Products()[1].ID})
	viper.Set("checkout.customer_name", "Omar")
	viper.Set("checkout.customer_phone", "01000000000")
	viper.Set("checkout.manual_pin", true)
	viper.Set("checkout.device_lat", 30.05)
	viper.Set("checkout.device_lng", 31.24)

	require.NoError(t, f.app.Run(context.Background()))

	assert.Contains(t, f.out.String(), "Deliver to: Tahrir Street, Cairo")
	orders, _, _ := f.store.Counts()
	assert.Equal(t, 1, orders)
}

func TestCheckoutApp_RejectsMissingName(t *testing.T) {
	f := newCheckoutFixture(t, locator.NewStatic(30.0444, 31.2357, 15))

	viper.Set("checkout.items", []string{f.store.Products()[0].ID})
	viper.Set("checkout.customer_phone", "01000000000")

	err := f.app.Run(context.Background())

	require.ErrorIs(t, err, checkoutsvc.ErrValidation)
	orders, _, _ := f.store.Counts()
	assert.Zero(t, orders)
}

func TestCheckoutApp_ListsOrders(t *testing.T) {
	f := newCheckoutFixture(t, locator.NewStatic(30.0444, 31.2357, 15))

	viper.Set("checkout.items", []string{f.store.Products()[0].ID})
	viper.Set("checkout.customer_name", "Mona")
	viper.Set("checkout.customer_phone", "01012345678")
	require.NoError(t, f.app.Run(context.Background()))

	f.out.Reset()
	viper.Set("checkout.list_orders", true)
	require.NoError(t, f.app.Run(context.Background()))

	assert.Contains(t, f.out.String(), "pending")
	assert.Contains(t, f.out.String(), "Tahrir Street, Cairo")
}

func TestBuildSource(t *testing.T) {
	products := []product.Product{
		{ID: "a", Name: "Falafel Wrap", Price: decimal.NewFromInt(20)},
		{ID: "b", Name: "Fries", Price: decimal.NewFromInt(15)},
	}

	src, err := buildSource(products, []string{"falafel wrap=2", "b", "a"}, false)
	require.NoError(t, err)
	require.Len(t, src.Cart.Items, 2)
	assert.Equal(t, 3, src.Cart.Items[0].Quantity)
	assert.Equal(t, 1, src.Cart.Items[1].Quantity)
	assert.True(t, src.Cart.Total.Equal(decimal.NewFromInt(75)))

	direct, err := buildSource(products, []string{"b=4", "a"}, true)
	require.NoError(t, err)
	require.NotNil(t, direct.Direct)
	assert.True(t, direct.IsDirect)
	assert.Equal(t, "b", direct.Direct.Product.ID)
	assert.Equal(t, 4, direct.Direct.Quantity)

	_, err = buildSource(products, []string{"pizza"}, false)
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = buildSource(products, []string{"a=0"}, false)
	assert.Error(t, err)
}
