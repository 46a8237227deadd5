package cart

import (
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/shopspring/decimal"
)

// Item is a product in the cart with a quantity of at least 1.
type Item struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// State is an immutable cart snapshot. Reduce never modifies the state it receives.
type State struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Empty returns the initial cart state.
func Empty() State {
	return State{Items: []Item{}, Total: decimal.Zero}
}

// IsEmpty reports whether the cart has no items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Action is a cart transition.
type Action interface {
	isAction()
}

// AddItem adds one unit of a product.
type AddItem struct{ Product product.Product }

// RemoveItem drops a product regardless of quantity.
type RemoveItem struct{ ProductID string }

// UpdateQuantity sets a product quantity; zero or less removes it.
type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

// Clear empties the cart.
type Clear struct{}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (Clear) isAction()          {}

// Reduce applies an action and returns the next state.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case AddItem:
		items := make([]Item, 0, len(state.Items)+1)
		found := false
		for _, item := range state.Items {
			if item.Product.ID == a.Product.ID {
				item.Quantity++
				found = true
			}
			items = append(items, item)
		}
		if !found {
			items = append(items, Item{Product: a.Product, Quantity: 1})
		}

		return newState(items)

	case RemoveItem:
		items := make([]Item, 0, len(state.Items))
		for _, item := range state.Items {
			if item.Product.ID != a.ProductID {
				items = append(items, item)
			}
		}

		return newState(items)

	case UpdateQuantity:
		items := make([]Item, 0, len(state.Items))
		for _, item := range state.Items {
			if item.Product.ID == a.ProductID {
				item.Quantity = a.Quantity
			}
			if item.Quantity > 0 {
				items = append(items, item)
			}
		}

		return newState(items)

	case Clear:
		return Empty()

	default:
		return state
	}
}

func newState(items []Item) State {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return State{Items: items, Total: total}
}
