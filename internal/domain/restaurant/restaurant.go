// Package restaurant exposes the read-side view of restaurants the order
// core needs: contact details for notifications, delivery fee for totals
// display, and the active flag. Restaurant lifecycle is managed elsewhere.
package restaurant

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested restaurant does not exist.
var ErrNotFound = errors.New("restaurant not found")

// Restaurant is the slice of restaurant data the order workflow reads.
type Restaurant struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Address     string
	DeliveryFee decimal.Decimal
	Active      bool
}

// Repository defines read operations on restaurants.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Restaurant, error)
}
