package orderitem

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ResolvesProductIDFromAnyShape(t *testing.T) {
	lines := []LineItem{
		{ProductID: "explicit", Name: "A", Quantity: 1, Price: decimal.NewFromInt(10)},
		{Quantity: 2, Product: &ProductRef{ID: "primary", Name: "B", Price: decimal.NewFromInt(20)}},
		{Quantity: 3, Product: &ProductRef{LegacyID: "legacy", Name: "C", Price: decimal.NewFromInt(30)}},
	}

	items, err := Normalize(lines)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "explicit", items[0].ProductID)
	assert.Equal(t, "primary", items[1].ProductID)
	assert.Equal(t, "B", items[1].Name)
	assert.True(t, items[1].Price.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "legacy", items[2].ProductID)
	assert.True(t, Subtotal(items).Equal(decimal.NewFromInt(140)))
	assert.True(t, SumPrices(items).Equal(decimal.NewFromInt(60)))
}

func TestNormalize_Failures(t *testing.T) {
	_, err := Normalize([]LineItem{
		{ProductID: "ok", Quantity: 1},
		{Quantity: 1, Product: &ProductRef{Name: "no id"}},
	})
	assert.ErrorIs(t, err, ErrMissingProductIdentifier)
	assert.Contains(t, err.Error(), "item 1")

	_, err = Normalize([]LineItem{{ProductID: "x", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = Normalize([]LineItem{{ProductID: "x", Quantity: 1, Price: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestSumPrices_Empty(t *testing.T) {
	assert.True(t, SumPrices(nil).IsZero())
	assert.True(t, Subtotal([]OrderItem{}).IsZero())
}
