package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastly/feastly/internal/domain/menu"
	"github.com/feastly/feastly/internal/domain/restaurant"
	"github.com/feastly/feastly/internal/domain/user"
	"github.com/feastly/feastly/internal/fault"
)

// Notification is the immutable snapshot handed to the notifier after an
// order commits. It carries everything a channel needs so notification
// never reads back from storage.
type Notification struct {
	Order           *Order
	RestaurantName  string
	RestaurantEmail string
	RestaurantPhone string
	CustomerName    string
}

// Notifier receives successfully placed orders after commit. Delivery is
// best-effort: implementations log failures and never report them back.
type Notifier interface {
	OrderPlaced(ctx context.Context, n Notification)
}

// PlaceOrderRequest is the input for placing an order.
type PlaceOrderRequest struct {
	RestaurantID    string
	DeliveryAddress string
	Notes           string
	Payment         *PaymentRequest
	Items           []PlaceOrderItem
	DeclaredTotal   decimal.Decimal
}

// PlaceOrderItem is one requested line. Price is the client's cart
// snapshot, accepted subject to the configured PricingPolicy.
type PlaceOrderItem struct {
	MenuItemID string
	Quantity   int
	Price      decimal.Decimal
}

// PaymentRequest describes a non-card payment instrument supplied by the
// caller. Gateway integration is out of scope; this is a record only.
type PaymentRequest struct {
	Method       string
	Provider     string
	MobileNumber string
	ExternalRef  string
}

// PlacedOrder is the confirmation returned on success.
type PlacedOrder struct {
	OrderID   string
	Number    string
	CreatedAt time.Time
}

// ServiceConfig holds the policy knobs of the order service. Zero values
// select the defaults used in production.
type ServiceConfig struct {
	// Numbers allocates candidate display numbers. Defaults to
	// DefaultNumberAllocator.
	Numbers *NumberAllocator

	// Pricing validates client-submitted prices. Defaults to
	// TrustClientPricing.
	Pricing PricingPolicy

	// Transitions restricts status changes. Defaults to LoosePolicy.
	Transitions TransitionPolicy

	// MaxNumberAttempts bounds the display-number collision retry loop.
	// Defaults to 5.
	MaxNumberAttempts int
}

const defaultMaxNumberAttempts = 5

// Service implements order placement and the status lifecycle.
type Service struct {
	cfg         ServiceConfig
	orders      Repository
	restaurants restaurant.Repository
	menus       menu.Repository
	notifier    Notifier
}

// NewService creates an order Service with the required dependencies.
func NewService(
	cfg ServiceConfig,
	orders Repository,
	restaurants restaurant.Repository,
	menus menu.Repository,
	notifier Notifier,
) *Service {
	if cfg.Numbers == nil {
		cfg.Numbers = DefaultNumberAllocator()
	}
	if cfg.Pricing == nil {
		cfg.Pricing = TrustClientPricing{}
	}
	if cfg.MaxNumberAttempts <= 0 {
		cfg.MaxNumberAttempts = defaultMaxNumberAttempts
	}
	return &Service{
		cfg:         cfg,
		orders:      orders,
		restaurants: restaurants,
		menus:       menus,
		notifier:    notifier,
	}
}

// PlaceOrder validates the request, creates the order with its items and
// optional payment record in one transaction, and notifies the restaurant
// after commit. Display-number collisions re-roll in a fresh transaction,
// bounded by MaxNumberAttempts.
func (s *Service) PlaceOrder(ctx context.Context, actor *user.User, req PlaceOrderRequest) (*PlacedOrder, error) {
	if actor == nil {
		return nil, fault.New(fault.Unauthorized, "authentication required")
	}
	if actor.Role != user.RoleCustomer || actor.CustomerID == "" {
		return nil, fault.New(fault.Forbidden, "only customers can place orders")
	}

	rest, err := s.restaurants.GetByID(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, restaurant.ErrNotFound) {
			return nil, fault.New(fault.NotFound, "restaurant not found")
		}
		return nil, fault.Wrap(fault.Internal, err, "look up restaurant")
	}
	if !rest.Active {
		// Closed restaurants are invisible to ordering.
		return nil, fault.New(fault.NotFound, "restaurant not found")
	}

	items, err := s.buildItems(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.cfg.Pricing.Check(ctx, items, req.DeclaredTotal); err != nil {
		return nil, fault.Wrap(fault.Validation, err, err.Error())
	}

	o := &Order{
		ID:              uuid.New().String(),
		RestaurantID:    rest.ID,
		CustomerID:      actor.CustomerID,
		Status:          StatusPlaced,
		Total:           req.DeclaredTotal.Round(2),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Notes:           strings.TrimSpace(req.Notes),
		Items:           items,
	}
	if o.DeliveryAddress == "" {
		return nil, fault.New(fault.Validation, "delivery address is required")
	}
	if p := req.Payment; p != nil && p.Method != "" {
		o.Payment = &Payment{
			ID:           uuid.New().String(),
			Method:       p.Method,
			Provider:     p.Provider,
			MobileNumber: p.MobileNumber,
			ExternalRef:  p.ExternalRef,
			Status:       PaymentPending,
			Amount:       o.Total,
		}
	}

	if err := s.create(ctx, o); err != nil {
		return nil, err
	}

	// Post-commit, outside any transaction. Channel failures are logged by
	// the dispatcher and must not affect the result.
	s.notifier.OrderPlaced(ctx, Notification{
		Order:           o,
		RestaurantName:  rest.Name,
		RestaurantEmail: rest.Email,
		RestaurantPhone: rest.Phone,
		CustomerName:    actor.Name,
	})

	return &PlacedOrder{OrderID: o.ID, Number: o.Number, CreatedAt: o.CreatedAt}, nil
}

// buildItems resolves requested lines against the restaurant's menu and
// snapshots the client-submitted prices.
func (s *Service) buildItems(ctx context.Context, req PlaceOrderRequest) ([]Item, error) {
	if len(req.Items) == 0 {
		return nil, fault.New(fault.Validation, "at least one item is required")
	}

	ids := make([]string, len(req.Items))
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fault.Newf(fault.Validation, "quantity must be greater than 0 for item %s", it.MenuItemID)
		}
		ids[i] = it.MenuItemID
	}

	fetched, err := s.menus.GetByIDs(ctx, req.RestaurantID, ids)
	if err != nil {
		return nil, fault.Wrap(fault.Internal, err, "look up menu items")
	}
	byID := make(map[string]menu.Item, len(fetched))
	for _, m := range fetched {
		byID[m.ID] = m
	}

	items := make([]Item, len(req.Items))
	for i, it := range req.Items {
		m, ok := byID[it.MenuItemID]
		if !ok {
			return nil, fault.Newf(fault.Validation, "menu item %s not found", it.MenuItemID)
		}
		items[i] = Item{
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price,
		}
	}
	return items, nil
}

// create runs the bounded allocate-insert-retry loop. Each attempt draws a
// fresh display number and opens a fresh transaction; only a display-number
// collision re-rolls.
func (s *Service) create(ctx context.Context, o *Order) error {
	for attempt := 0; attempt < s.cfg.MaxNumberAttempts; attempt++ {
		o.Number = s.cfg.Numbers.Allocate()

		err := s.orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDisplayNumberTaken) {
			continue
		}
		return fault.Wrap(fault.Internal, err, "create order")
	}
	return fault.Newf(fault.ResourceExhausted,
		"could not allocate an order number after %d attempts", s.cfg.MaxNumberAttempts)
}

// UpdateStatus applies a status transition on behalf of restaurant staff
// or an administrator. Cancelled orders reject every transition, including
// a repeated cancel.
func (s *Service) UpdateStatus(ctx context.Context, actor *user.User, orderID string, newStatus Status, reason string) (*Order, error) {
	if actor == nil {
		return nil, fault.New(fault.Unauthorized, "authentication required")
	}
	if !newStatus.Valid() {
		return nil, fault.Newf(fault.Validation, "unknown status %q", string(newStatus))
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStaff(actor, o); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if newStatus == StatusCancelled {
		if reason == "" {
			return nil, fault.New(fault.Validation, "a cancellation reason is required")
		}
	} else {
		// Moving anywhere else must not leave a stale reason behind.
		reason = ""
	}

	if o.Status == StatusCancelled {
		return nil, fault.New(fault.InvalidTransition,
			"this order has already been cancelled and cannot be updated")
	}
	if !s.cfg.Transitions.Allows(o.Status, newStatus) {
		return nil, fault.Newf(fault.InvalidTransition,
			"cannot move order from %s to %s", string(o.Status), string(newStatus))
	}

	// The cancelled check above raced with other writers; storage
	// re-validates it under the update transaction.
	updated, err := s.orders.UpdateStatus(ctx, orderID, newStatus, reason)
	switch {
	case errors.Is(err, ErrCancelled):
		return nil, fault.New(fault.InvalidTransition,
			"this order has already been cancelled and cannot be updated")
	case errors.Is(err, ErrNotFound):
		return nil, fault.New(fault.NotFound, "order not found")
	case err != nil:
		return nil, fault.Wrap(fault.Internal, err, "update order status")
	}
	return updated, nil
}

// UpdatePaymentStatus changes the payment record's status independently of
// the order status. Restricted to administrators and the owning
// restaurant's manager.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor *user.User, orderID string, status PaymentStatus) (*Order, error) {
	if actor == nil {
		return nil, fault.New(fault.Unauthorized, "authentication required")
	}
	if !status.Valid() {
		return nil, fault.Newf(fault.Validation, "unknown payment status %q", string(status))
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStaff(actor, o); err != nil {
		return nil, err
	}
	if o.Payment == nil {
		return nil, fault.New(fault.NotFound, "order has no payment record")
	}

	updated, err := s.orders.UpdatePayment(ctx, orderID, status)
	switch {
	case errors.Is(err, ErrNoPayment):
		return nil, fault.New(fault.NotFound, "order has no payment record")
	case errors.Is(err, ErrNotFound):
		return nil, fault.New(fault.NotFound, "order not found")
	case err != nil:
		return nil, fault.Wrap(fault.Internal, err, "update payment status")
	}
	return updated, nil
}

// GetOrder returns the full order snapshot, subject to ownership: a
// customer sees only their own orders, a manager their restaurant's, an
// administrator everything.
func (s *Service) GetOrder(ctx context.Context, actor *user.User, orderID string) (*Order, error) {
	if actor == nil {
		return nil, fault.New(fault.Unauthorized, "authentication required")
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.ManagerOf(o.RestaurantID):
	case actor.Role == user.RoleCustomer && actor.CustomerID == o.CustomerID:
	default:
		return nil, fault.New(fault.Forbidden, "you do not have access to this order")
	}
	return o, nil
}

func (s *Service) getOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fault.New(fault.NotFound, "order not found")
		}
		return nil, fault.Wrap(fault.Internal, err, "load order")
	}
	return o, nil
}

// authorizeStaff checks that actor may mutate orders of o's restaurant.
func (s *Service) authorizeStaff(actor *user.User, o *Order) error {
	if actor.IsAdmin() || actor.ManagerOf(o.RestaurantID) {
		return nil
	}
	return fault.New(fault.Forbidden, "you do not manage the restaurant for this order")
}
