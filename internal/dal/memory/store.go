// Package memory is a transactional in-memory storage driver. A transaction works on
// a private copy of the data and holds the store lock until it commits or rolls back.
package memory

import (
	"sync"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	products  []product.Product
	orders    []order.Order
	items     []orderitem.OrderItem
	outbox    []outbox.OutboxMessage
	itemSeq   int64
	outboxSeq int64
}

func (s *state) clone() *state {
	c := *s
	c.products = append([]product.Product(nil), s.products...)
	c.orders = append([]order.Order(nil), s.orders...)
	c.items = append([]orderitem.OrderItem(nil), s.items...)
	c.outbox = append([]outbox.OutboxMessage(nil), s.outbox...)

	return &c
}

// Store holds the committed data.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore creates a store with the given catalog.
func NewStore(products ...product.Product) *Store {
	s := &Store{data: &state{}}
	now := time.Now()
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt, p.UpdatedAt = now, now
		}
		s.data.products = append(s.data.products, p)
	}

	return s
}

// Products returns a copy of the committed catalog.
func (s *Store) Products() []product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]product.Product(nil), s.data.products...)
}

// Counts returns the number of committed orders, order items and outbox messages.
func (s *Store) Counts() (orders, items, messages int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.data.orders), len(s.data.items), len(s.data.outbox)
}

// DefaultCatalog is the menu the storefront starts with when no database is configured.
func DefaultCatalog() []product.Product {
	entry := func(name, description string, price int64, category product.Category, image string) product.Product {
		return product.Product{
			Name:        name,
			Description: description,
			Price:       decimal.NewFromInt(price),
			Category:    category,
			Image:       image,
			Available:   true,
		}
	}

	return []product.Product{
		entry("Mixed Shawarma Sandwich", "Chicken and beef shawarma with special sauce and vegetables", 55,
			product.CategorySandwiches, "https://images.unsplash.com/photo-1565299624946-b28f40a0ca4b"),
		entry("Chicken Shawarma Super", "Extra large chicken shawarma with double meat and premium toppings", 65,
			product.CategorySandwiches, "https://images.unsplash.com/photo-1529193591184-b1d58069ecdd"),
		entry("Spicy Beef Shawarma", "Hot and spicy beef shawarma with jalapenos and spicy sauce", 60,
			product.CategorySandwiches, "https://images.unsplash.com/photo-1565299507177-b0ac66763828"),
		entry("Family Shawarma Box", "Large box for family sharing with chicken, beef, rice, and salads", 120,
			product.CategoryBoxes, "https://images.unsplash.com/photo-1546833999-b9f581a1996d"),
		entry("Chicken Box Deluxe", "Premium chicken shawarma box with extra sides and premium sauces", 85,
			product.CategoryBoxes, "https://images.unsplash.com/photo-1504674900247-0877df9cc836"),
		entry("Beef Box Special", "Special beef shawarma box with grilled vegetables and tahini", 95,
			product.CategoryBoxes, "https://images.unsplash.com/photo-1555939594-58d7cb561ad1"),
		entry("Shawarma Feast", "Complete feast with mixed shawarma, rice, bread, salads, and drinks", 150,
			product.CategoryMeals, "https://images.unsplash.com/photo-1574484284002-952d92456975"),
		entry("Nutella Crepe", "Crepe filled with Nutella and banana slices", 45,
			product.CategoryCrepes, "https://images.unsplash.com/photo-1519676867240-f03562e64548"),
		entry("Garlic Sauce", "Extra portion of house garlic sauce", 10,
			product.CategoryExtras, "https://images.unsplash.com/photo-1472476443507-c7a5948772fc"),
		entry("Two Sandwiches Offer", "Any two chicken shawarma sandwiches with fries", 99,
			product.CategoryOffers, "https://images.unsplash.com/photo-1561651823-34feb02250e4"),
	}
}
