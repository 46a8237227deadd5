package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category is a menu section.
type Category string

const (
	CategoryOffers     Category = "Offers"
	CategorySandwiches Category = "Sandwiches"
	CategoryCrepes     Category = "Crepes"
	CategoryBoxes      Category = "Boxes"
	CategoryExtras     Category = "Extras"
	CategoryMeals      Category = "Meals"
)

var ErrInvalidCategory = errors.New("invalid category")

func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryOffers, CategorySandwiches, CategoryCrepes, CategoryBoxes, CategoryExtras, CategoryMeals:
		return Category(s), nil
	default:
		return "", ErrInvalidCategory
	}
}

// Product is a catalog entry. Read-only for ordering.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Image       string          `json:"image"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
