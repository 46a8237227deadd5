package checkoutsvc

import (
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/service/models/cart"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pricing = Pricing{DeliveryFee: decimal.NewFromInt(35), CountryCode: "20"}

func testProduct(id string, price int64) product.Product {
	return product.Product{ID: id, Name: "product " + id, Price: decimal.NewFromInt(price), Available: true}
}

func testCustomer() Customer {
	return Customer{
		Name:     "  Mona Ali ",
		Phone:    "010 1234-5678",
		Location: &order.Location{Lat: 30.0444, Lng: 31.2357, Address: "Tahrir Street, Cairo"},
	}
}

func cartWith(items ...cart.Item) cart.State {
	state := cart.Empty()
	for _, item := range items {
		state = cart.Reduce(state, cart.AddItem{Product: item.Product})
		state = cart.Reduce(state, cart.UpdateQuantity{ProductID: item.Product.ID, Quantity: item.Quantity})
	}

	return state
}

func TestBuildDraft_CartTotals(t *testing.T) {
	state := cartWith(
		cart.Item{Product: testProduct("p1", 55), Quantity: 2},
		cart.Item{Product: testProduct("p2", 120), Quantity: 1},
	)

	draft, err := BuildDraft(CartSource(state), testCustomer(), pricing)
	require.NoError(t, err)

	assert.Equal(t, "Mona Ali", draft.CustomerName)
	assert.Equal(t, "+2001012345678", draft.CustomerPhone)
	assert.Equal(t, "Tahrir Street, Cairo", draft.CustomerAddress)
	assert.True(t, draft.Subtotal.Equal(decimal.NewFromInt(230)))
	assert.True(t, draft.Total.Equal(decimal.NewFromInt(265)))
	assert.Equal(t, order.PaymentMethodCash, draft.PaymentMethod)
	assert.Equal(t, order.StatusPending, draft.Status)
	assert.False(t, draft.Direct)
	require.Len(t, draft.Items, 2)
	assert.Equal(t, "p1", draft.Items[0].ProductID)
	assert.Equal(t, 2, draft.Items[0].Quantity)
}

func TestBuildDraft_DirectDefaultsQuantity(t *testing.T) {
	draft, err := BuildDraft(DirectSource(&DirectProduct{Product: testProduct("p9", 150)}), testCustomer(), pricing)
	require.NoError(t, err)

	require.Len(t, draft.Items, 1)
	assert.Equal(t, 1, draft.Items[0].Quantity)
	assert.True(t, draft.Total.Equal(decimal.NewFromInt(185)))
	assert.True(t, draft.Direct)
}

func TestBuildDraft_ManualAddressWhenLocationHasNone(t *testing.T) {
	customer := testCustomer()
	customer.Location = &order.Location{Lat: 30, Lng: 31}
	customer.ManualAddress = "  12 Nile St, 3rd floor "

	draft, err := BuildDraft(CartSource(cartWith(cart.Item{Product: testProduct("p1", 10), Quantity: 1})), customer, pricing)
	require.NoError(t, err)

	assert.Equal(t, "12 Nile St, 3rd floor", draft.CustomerAddress)
	assert.Equal(t, "12 Nile St, 3rd floor", draft.Location.Address)
}

func TestBuildDraft_ValidationErrors(t *testing.T) {
	full := cartWith(cart.Item{Product: testProduct("p1", 10), Quantity: 1})

	tests := []struct {
		name   string
		src    Source
		modify func(c *Customer)
	}{
		{name: "blank name", src: CartSource(full), modify: func(c *Customer) { c.Name = "   " }},
		{name: "blank phone", src: CartSource(full), modify: func(c *Customer) { c.Phone = " " }},
		{name: "phone without digits", src: CartSource(full), modify: func(c *Customer) { c.Phone = "call me" }},
		{name: "no location", src: CartSource(full), modify: func(c *Customer) { c.Location = nil }},
		{name: "location without address", src: CartSource(full), modify: func(c *Customer) {
			c.Location = &order.Location{Lat: 30, Lng: 31}
		}},
		{name: "coordinates out of range", src: CartSource(full), modify: func(c *Customer) {
			c.Location = &order.Location{Lat: 120, Lng: 31, Address: "x"}
		}},
		{name: "empty cart", src: CartSource(cart.Empty())},
		{name: "direct without product", src: DirectSource(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer := testCustomer()
			if tt.modify != nil {
				tt.modify(&customer)
			}

			_, err := BuildDraft(tt.src, customer, pricing)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBuildDraft_TotalIsSubtotalPlusFee(t *testing.T) {
	for quantity := 1; quantity <= 5; quantity++ {
		state := cartWith(
			cart.Item{Product: testProduct("a", 13), Quantity: quantity},
			cart.Item{Product: testProduct("b", 7), Quantity: quantity + 1},
		)

		draft, err := BuildDraft(CartSource(state), testCustomer(), pricing)
		require.NoError(t, err)

		assert.True(t, draft.Total.Equal(draft.Subtotal.Add(pricing.DeliveryFee)))
		assert.True(t, draft.Subtotal.Equal(state.Total))
	}
}
