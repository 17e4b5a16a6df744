// Package order implements the order placement and fulfillment workflow:
// display-number allocation, atomic order creation, the status lifecycle,
// and the scoped read side.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors shared between the service and its storage backend.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrDisplayNumberTaken is returned by Repository.Create when the
	// order's display number collides with an existing one. It is the only
	// storage error the placement loop retries.
	ErrDisplayNumberTaken = errors.New("display number already taken")

	// ErrCancelled is returned by Repository.UpdateStatus when the order
	// is already cancelled. Cancelled orders are immutable.
	ErrCancelled = errors.New("order is cancelled")

	// ErrNoPayment is returned when a payment update targets an order that
	// was placed without a payment record.
	ErrNoPayment = errors.New("order has no payment record")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPlaced     Status = "PLACED"
	StatusPreparing  Status = "PREPARING"
	StatusDispatched Status = "DISPATCHED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusPreparing, StatusDispatched, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions under a
// strict policy. Only CANCELLED is frozen unconditionally; see
// TransitionPolicy.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentStatus is the lifecycle state of a payment transaction. It moves
// independently of the order status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Order is a placed order together with its line items and optional
// payment record. Orders are created once, atomically, and never deleted.
type Order struct {
	// ID is the internal, opaque row identity.
	ID string

	// Number is the short human-facing display number, e.g. "#1234".
	// Unique across all orders for the lifetime of the system and
	// immutable once assigned. Opaque text: no numeric assumptions.
	Number string

	RestaurantID string
	CustomerID   string

	Status Status
	Total  decimal.Decimal

	DeliveryAddress string
	Notes           string

	// CancellationReason is non-empty if and only if Status is CANCELLED.
	CancellationReason string

	Items   []Item
	Payment *Payment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is a priced order line. UnitPrice is a snapshot taken at order
// time, independent of later menu price changes. Immutable after creation.
type Item struct {
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// Payment records a non-card payment instrument such as mobile money.
// At most one exists per order, created during order placement.
type Payment struct {
	ID           string
	Method       string
	Provider     string
	MobileNumber string
	ExternalRef  string
	Status       PaymentStatus
	Amount       decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order with its items and optional payment in one
	// transaction. A display-number collision yields ErrDisplayNumberTaken;
	// the caller re-rolls and calls Create again in a fresh transaction.
	// On success CreatedAt and UpdatedAt are populated.
	Create(ctx context.Context, o *Order) error

	// GetByID returns the order with items and payment hydrated.
	GetByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus sets status and cancellation reason in one transaction,
	// re-checking at write time that the order is not already cancelled.
	// Returns the updated order with items and payment.
	UpdateStatus(ctx context.Context, id string, status Status, reason string) (*Order, error)

	// UpdatePayment sets the payment status of the order's payment record.
	// Returns ErrNoPayment when the order has none.
	UpdatePayment(ctx context.Context, orderID string, status PaymentStatus) (*Order, error)
}
