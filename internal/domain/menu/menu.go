// Package menu exposes the read-side view of a restaurant's menu used to
// validate order line items. Menu management is outside the order core.
package menu

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is a single menu entry.
type Item struct {
	ID           string
	RestaurantID string
	Name         string
	Price        decimal.Decimal
	Available    bool
}

// Repository defines read operations on menu items.
type Repository interface {
	// GetByIDs returns the menu items with the given IDs belonging to
	// restaurantID. Missing IDs are simply absent from the result.
	GetByIDs(ctx context.Context, restaurantID string, ids []string) ([]Item, error)
}
