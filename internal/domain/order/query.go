package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feastly/feastly/internal/domain/user"
	"github.com/feastly/feastly/internal/fault"
)

// Pagination limits for order listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Scope restricts a listing to one customer or one restaurant. The zero
// value is the unrestricted (administrator) scope.
type Scope struct {
	CustomerID   string
	RestaurantID string
}

// Filter narrows a listing. Zero fields are ignored.
type Filter struct {
	Status Status
	// Search matches display numbers as free text.
	Search string
	From   time.Time
	To     time.Time
}

// ListParams describes one page of an order listing.
type ListParams struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
	Filter   Filter
	Scope    Scope
}

// Summary is one row of an order listing.
type Summary struct {
	ID           string
	Number       string
	RestaurantID string
	CustomerID   string
	Status       Status
	Total        decimal.Decimal
	CreatedAt    time.Time
}

// Page is a listing result with pagination metadata.
type Page struct {
	Orders     []Summary
	Total      int
	TotalPages int
	Page       int
	PageSize   int
}

// Queries is the read side of the order store. Implementations are thin
// SQL; scoping correctness is the Browser's job.
type Queries interface {
	List(ctx context.Context, p ListParams) (*Page, error)
}

// sortFields whitelists the sortable columns exposed to callers.
var sortFields = map[string]bool{
	"created_at": true,
	"total":      true,
	"status":     true,
	"number":     true,
}

// Browser enforces ownership on order listings before delegating to the
// read side: customers see their own orders, managers their restaurant's,
// administrators everything.
type Browser struct {
	queries Queries
}

// NewBrowser creates a Browser over the given read side.
func NewBrowser(q Queries) *Browser {
	return &Browser{queries: q}
}

// List returns one page of orders visible to actor.
func (b *Browser) List(ctx context.Context, actor *user.User, p ListParams) (*Page, error) {
	if actor == nil {
		return nil, fault.New(fault.Unauthorized, "authentication required")
	}

	switch actor.Role {
	case user.RoleCustomer:
		p.Scope = Scope{CustomerID: actor.CustomerID}
	case user.RoleManager:
		if p.Scope.RestaurantID != "" && p.Scope.RestaurantID != actor.RestaurantID {
			return nil, fault.New(fault.Forbidden, "you do not manage this restaurant")
		}
		p.Scope = Scope{RestaurantID: actor.RestaurantID}
	case user.RoleAdmin:
		// Scope stays as requested.
	default:
		return nil, fault.New(fault.Forbidden, "unknown role")
	}

	if p.Filter.Status != "" && !p.Filter.Status.Valid() {
		return nil, fault.Newf(fault.Validation, "unknown status %q", string(p.Filter.Status))
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
		p.SortDesc = true
	} else if !sortFields[p.SortBy] {
		return nil, fault.Newf(fault.Validation, "cannot sort by %q", p.SortBy)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}

	page, err := b.queries.List(ctx, p)
	if err != nil {
		return nil, fault.Wrap(fault.Internal, err, "list orders")
	}
	return page, nil
}
