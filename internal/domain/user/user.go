// Package user holds caller identity and role data. Session issuance is
// handled outside this core; tokens resolve to users through Repository.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no user matches a token hash.
var ErrNotFound = errors.New("user not found")

// Role determines what a caller may do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

// User is an authenticated caller.
type User struct {
	ID   string
	Name string
	Role Role

	// RestaurantID is the restaurant a manager is staff of. Empty for
	// admins and customers.
	RestaurantID string

	// CustomerID is the customer profile owned by this user. Empty unless
	// Role is RoleCustomer.
	CustomerID string

	// TokenHash is the stored hash of the token this user was resolved
	// from, kept for constant-time re-verification at the API boundary.
	TokenHash string
}

// IsAdmin reports whether the user has the administrator role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ManagerOf reports whether the user is restaurant staff for restaurantID.
func (u *User) ManagerOf(restaurantID string) bool {
	return u.Role == RoleManager && u.RestaurantID == restaurantID
}

// Repository resolves authentication tokens to users.
type Repository interface {
	FindByTokenHash(ctx context.Context, hash string) (*User, error)
}
