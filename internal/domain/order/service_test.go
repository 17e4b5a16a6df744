package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastly/feastly/internal/domain/menu"
	"github.com/feastly/feastly/internal/domain/restaurant"
	"github.com/feastly/feastly/internal/domain/user"
	"github.com/feastly/feastly/internal/fault"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	// createErrs is consumed one per Create call; nil entries succeed.
	createErrs []error
	creates    []Order
	byID       map[string]*Order

	updatedStatus Status
	updatedReason string
	updateErr     error

	paymentStatus PaymentStatus
	paymentErr    error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.creates = append(m.creates, *o)
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status, reason string) (*Order, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updatedStatus = status
	m.updatedReason = reason

	o := *m.byID[id]
	o.Status = status
	o.CancellationReason = reason
	return &o, nil
}

func (m *mockOrderRepo) UpdatePayment(_ context.Context, id string, status PaymentStatus) (*Order, error) {
	if m.paymentErr != nil {
		return nil, m.paymentErr
	}
	m.paymentStatus = status

	o := *m.byID[id]
	p := *o.Payment
	p.Status = status
	o.Payment = &p
	return &o, nil
}

type mockRestaurantRepo struct {
	byID map[string]*restaurant.Restaurant
}

func (m *mockRestaurantRepo) GetByID(_ context.Context, id string) (*restaurant.Restaurant, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, restaurant.ErrNotFound
	}
	return r, nil
}

type mockMenuRepo struct {
	items []menu.Item
	err   error
}

func (m *mockMenuRepo) GetByIDs(_ context.Context, _ string, _ []string) ([]menu.Item, error) {
	return m.items, m.err
}

type mockNotifier struct {
	notifications []Notification
}

func (m *mockNotifier) OrderPlaced(_ context.Context, n Notification) {
	m.notifications = append(m.notifications, n)
}

// --- Helpers ---

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var (
	customer = &user.User{ID: "u1", Name: "Alice", Role: user.RoleCustomer, CustomerID: "c1"}
	manager  = &user.User{ID: "u2", Name: "Rosa", Role: user.RoleManager, RestaurantID: "r1"}
	admin    = &user.User{ID: "u3", Name: "Root", Role: user.RoleAdmin}
)

type fixture struct {
	orders      *mockOrderRepo
	restaurants *mockRestaurantRepo
	menus       *mockMenuRepo
	notifier    *mockNotifier
}

func newFixture() *fixture {
	return &fixture{
		orders: &mockOrderRepo{byID: make(map[string]*Order)},
		restaurants: &mockRestaurantRepo{byID: map[string]*restaurant.Restaurant{
			"r1": {ID: "r1", Name: "Mamma Rosa", Email: "rosa@example.com", Phone: "+1555", Active: true},
		}},
		menus: &mockMenuRepo{items: []menu.Item{
			{ID: "m1", RestaurantID: "r1", Name: "Pizza", Price: money("11.50"), Available: true},
			{ID: "m2", RestaurantID: "r1", Name: "Pasta", Price: money("13.00"), Available: true},
		}},
		notifier: &mockNotifier{},
	}
}

func (f *fixture) service(cfg ServiceConfig) *Service {
	return NewService(cfg, f.orders, f.restaurants, f.menus, f.notifier)
}

func placeReq() PlaceOrderRequest {
	return PlaceOrderRequest{
		RestaurantID:    "r1",
		DeliveryAddress: "12 Main St",
		Notes:           "ring twice",
		Payment:         &PaymentRequest{Method: "mobile_money", Provider: "m-pesa", MobileNumber: "+2547"},
		Items: []PlaceOrderItem{
			{MenuItemID: "m1", Quantity: 2, Price: money("11.50")},
			{MenuItemID: "m2", Quantity: 1, Price: money("13.00")},
		},
		DeclaredTotal: money("36.00"),
	}
}

// --- PlaceOrder ---

func TestPlaceOrder(t *testing.T) {
	f := newFixture()
	svc := f.service(ServiceConfig{})

	placed, err := svc.PlaceOrder(context.Background(), customer, placeReq())
	require.NoError(t, err)
	require.NotNil(t, placed)
	assert.NotEmpty(t, placed.OrderID)
	assert.Regexp(t, `^#\d{4}$`, placed.Number)

	require.Len(t, f.orders.creates, 1)
	o := f.orders.creates[0]
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, "r1", o.RestaurantID)
	assert.Equal(t, "c1", o.CustomerID)
	assert.True(t, o.Total.Equal(money("36.00")))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Pizza", o.Items[0].Name)
	assert.True(t, o.Items[0].UnitPrice.Equal(money("11.50")))

	require.NotNil(t, o.Payment)
	assert.Equal(t, PaymentPending, o.Payment.Status)
	assert.True(t, o.Payment.Amount.Equal(o.Total))

	require.Len(t, f.notifier.notifications, 1)
	n := f.notifier.notifications[0]
	assert.Equal(t, "Mamma Rosa", n.RestaurantName)
	assert.Equal(t, "rosa@example.com", n.RestaurantEmail)
	assert.Equal(t, "Alice", n.CustomerName)
	assert.Equal(t, o.ID, n.Order.ID)
}

func TestPlaceOrderKeepsSubmittedPrices(t *testing.T) {
	f := newFixture()
	svc := f.service(ServiceConfig{})

	// Cart snapshot prices differ from the current menu prices. The stored
	// lines must keep what the customer confirmed, not the live menu price.
	req := placeReq()
	req.Items = []PlaceOrderItem{
		{MenuItemID: "m1", Quantity: 2, Price: money("5.00")},
		{MenuItemID: "m2", Quantity: 1, Price: money("3.50")},
	}
	req.DeclaredTotal = money("13.50")

	_, err := svc.PlaceOrder(context.Background(), customer, req)
	require.NoError(t, err)

	require.Len(t, f.orders.creates, 1)
	o := f.orders.creates[0]
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].UnitPrice.Equal(money("5.00")))
	assert.True(t, o.Items[1].UnitPrice.Equal(money("3.50")))
	assert.True(t, o.Total.Equal(money("13.50")))
}

func TestPlaceOrderWithoutPayment(t *testing.T) {
	f := newFixture()
	svc := f.service(ServiceConfig{})

	req := placeReq()
	req.Payment = nil

	_, err := svc.PlaceOrder(context.Background(), customer, req)
	require.NoError(t, err)
	require.Len(t, f.orders.creates, 1)
	assert.Nil(t, f.orders.creates[0].Payment)
}

func TestPlaceOrderRetriesOnCollision(t *testing.T) {
	f := newFixture()
	f.orders.createErrs = []error{
		ErrDisplayNumberTaken, ErrDisplayNumberTaken,
		ErrDisplayNumberTaken, ErrDisplayNumberTaken,
		nil,
	}
	svc := f.service(ServiceConfig{})

	placed, err := svc.PlaceOrder(context.Background(), customer, placeReq())
	require.NoError(t, err)
	require.NotNil(t, placed)

	// Four collisions then a free slot: the fifth attempt succeeds.
	assert.Len(t, f.orders.creates, 5)
}

func TestPlaceOrderCollisionExhaustion(t *testing.T) {
	f := newFixture()
	f.orders.createErrs = []error{
		ErrDisplayNumberTaken, ErrDisplayNumberTaken, ErrDisplayNumberTaken,
		ErrDisplayNumberTaken, ErrDisplayNumberTaken,
	}
	svc := f.service(ServiceConfig{})

	_, err := svc.PlaceOrder(context.Background(), customer, placeReq())
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.ResourceExhausted))
	assert.Len(t, f.orders.creates, 5)
	assert.Empty(t, f.notifier.notifications)
}

func TestPlaceOrderStorageErrorNotRetried(t *testing.T) {
	f := newFixture()
	f.orders.createErrs = []error{errors.New("connection reset")}
	svc := f.service(ServiceConfig{})

	_, err := svc.PlaceOrder(context.Background(), customer, placeReq())
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.Internal))
	assert.Len(t, f.orders.creates, 1)
}

func TestPlaceOrderAuthorization(t *testing.T) {
	f := newFixture()
	svc := f.service(ServiceConfig{})

	_, err := svc.PlaceOrder(context.Background(), nil, placeReq())
	assert.True(t, fault.Has(err, fault.Unauthorized))

	_, err = svc.PlaceOrder(context.Background(), manager, placeReq())
	assert.True(t, fault.Has(err, fault.Forbidden))

	_, err = svc.PlaceOrder(context.Background(), admin, placeReq())
	assert.True(t, fault.Has(err, fault.Forbidden))
}

func TestPlaceOrderRestaurantChecks(t *testing.T) {
	f := newFixture()
	f.restaurants.byID["r2"] = &restaurant.Restaurant{ID: "r2", Name: "Closed", Active: false}
	svc := f.service(ServiceConfig{})

	req := placeReq()
	req.RestaurantID = "missing"
	_, err := svc.PlaceOrder(context.Background(), customer, req)
	assert.True(t, fault.Has(err, fault.NotFound))

	// Inactive restaurants are indistinguishable from missing ones.
	req.RestaurantID = "r2"
	_, err = svc.PlaceOrder(context.Background(), customer, req)
	assert.True(t, fault.Has(err, fault.NotFound))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture()
	svc := f.service(ServiceConfig{})

	t.Run("empty items", func(t *testing.T) {
		req := placeReq()
		req.Items = nil
		_, err := svc.PlaceOrder(context.Background(), customer, req)
		assert.True(t, fault.Has(err, fault.Validation))
	})

	t.Run("zero quantity", func(t *testing.T) {
		req := placeReq()
		req.Items[0].Quantity = 0
		_, err := svc.PlaceOrder(context.Background(), customer, req)
		assert.True(t, fault.Has(err, fault.Validation))
	})

	t.Run("unknown menu item", func(t *testing.T) {
		req := placeReq()
		req.Items[0].MenuItemID = "nope"
		_, err := svc.PlaceOrder(context.Background(), customer, req)
		assert.True(t, fault.Has(err, fault.Validation))
	})

	t.Run("total mismatch", func(t *testing.T) {
		req := placeReq()
		req.DeclaredTotal = money("1.00")
		_, err := svc.PlaceOrder(context.Background(), customer, req)
		assert.True(t, fault.Has(err, fault.Validation))
	})

	t.Run("blank address", func(t *testing.T) {
		req := placeReq()
		req.DeliveryAddress = "   "
		_, err := svc.PlaceOrder(context.Background(), customer, req)
		assert.True(t, fault.Has(err, fault.Validation))
	})
}

// --- UpdateStatus ---

func seedOrder(f *fixture, status Status) *Order {
	o := &Order{
		ID:           "o1",
		Number:       "#1234",
		RestaurantID: "r1",
		CustomerID:   "c1",
		Status:       status,
		Total:        money("36.00"),
		Payment:      &Payment{ID: "p1", Method: "mobile_money", Status: PaymentPending, Amount: money("36.00")},
	}
	f.orders.byID[o.ID] = o
	return o
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	svc := f.service(ServiceConfig{})

	updated, err := svc.UpdateStatus(context.Background(), manager, "o1", StatusPreparing, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, updated.Status)
	assert.Equal(t, StatusPreparing, f.orders.updatedStatus)
}

func TestUpdateStatusBackwardAllowedByDefault(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusDelivered)
	svc := f.service(ServiceConfig{})

	updated, err := svc.UpdateStatus(context.Background(), manager, "o1", StatusPreparing, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, updated.Status)
}

func TestUpdateStatusStrictPolicy(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusDelivered)
	svc := f.service(ServiceConfig{Transitions: StrictPolicy()})

	_, err := svc.UpdateStatus(context.Background(), manager, "o1", StatusPreparing, "")
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.InvalidTransition))
}

func TestUpdateStatusCancelRequiresReason(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	svc := f.service(ServiceConfig{})

	_, err := svc.UpdateStatus(context.Background(), manager, "o1", StatusCancelled, "  ")
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.Validation))

	updated, err := svc.UpdateStatus(context.Background(), manager, "o1", StatusCancelled, "customer called")
	require.NoError(t, err)
	assert.Equal(t, "customer called", updated.CancellationReason)
}

func TestUpdateStatusClearsStaleReason(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	svc := f.service(ServiceConfig{})

	_, err := svc.UpdateStatus(context.Background(), manager, "o1", StatusPreparing, "left over")
	require.NoError(t, err)
	assert.Empty(t, f.orders.updatedReason)
}

func TestUpdateStatusCancelledIsFinal(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusCancelled)
	svc := f.service(ServiceConfig{})

	for _, to := range []Status{StatusPlaced, StatusPreparing, StatusDelivered, StatusCancelled} {
		_, err := svc.UpdateStatus(context.Background(), manager, "o1", to, "again")
		require.Error(t, err, string(to))
		assert.True(t, fault.Has(err, fault.InvalidTransition), string(to))
	}
}

func TestUpdateStatusConcurrentCancel(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	// Storage saw a cancel commit after our read.
	f.orders.updateErr = ErrCancelled
	svc := f.service(ServiceConfig{})

	_, err := svc.UpdateStatus(context.Background(), manager, "o1", StatusPreparing, "")
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.InvalidTransition))
}

func TestUpdateStatusAuthorization(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	svc := f.service(ServiceConfig{})

	otherManager := &user.User{ID: "u9", Role: user.RoleManager, RestaurantID: "r2"}
	_, err := svc.UpdateStatus(context.Background(), otherManager, "o1", StatusPreparing, "")
	assert.True(t, fault.Has(err, fault.Forbidden))

	_, err = svc.UpdateStatus(context.Background(), customer, "o1", StatusPreparing, "")
	assert.True(t, fault.Has(err, fault.Forbidden))

	_, err = svc.UpdateStatus(context.Background(), nil, "o1", StatusPreparing, "")
	assert.True(t, fault.Has(err, fault.Unauthorized))

	_, err = svc.UpdateStatus(context.Background(), admin, "o1", StatusPreparing, "")
	assert.NoError(t, err)
}

func TestUpdateStatusUnknownOrderAndStatus(t *testing.T) {
	f := newFixture()
	svc := f.service(ServiceConfig{})

	_, err := svc.UpdateStatus(context.Background(), manager, "missing", StatusPreparing, "")
	assert.True(t, fault.Has(err, fault.NotFound))

	seedOrder(f, StatusPlaced)
	_, err = svc.UpdateStatus(context.Background(), manager, "o1", Status("SHIPPED"), "")
	assert.True(t, fault.Has(err, fault.Validation))
}

// --- UpdatePaymentStatus ---

func TestUpdatePaymentStatus(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	svc := f.service(ServiceConfig{})

	updated, err := svc.UpdatePaymentStatus(context.Background(), manager, "o1", PaymentCompleted)
	require.NoError(t, err)
	require.NotNil(t, updated.Payment)
	assert.Equal(t, PaymentCompleted, updated.Payment.Status)
}

func TestUpdatePaymentStatusNoPayment(t *testing.T) {
	f := newFixture()
	o := seedOrder(f, StatusPlaced)
	o.Payment = nil
	svc := f.service(ServiceConfig{})

	_, err := svc.UpdatePaymentStatus(context.Background(), manager, "o1", PaymentCompleted)
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.NotFound))
}

func TestUpdatePaymentStatusValidation(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	svc := f.service(ServiceConfig{})

	_, err := svc.UpdatePaymentStatus(context.Background(), manager, "o1", PaymentStatus("PAID"))
	assert.True(t, fault.Has(err, fault.Validation))

	_, err = svc.UpdatePaymentStatus(context.Background(), customer, "o1", PaymentCompleted)
	assert.True(t, fault.Has(err, fault.Forbidden))
}

// --- GetOrder ---

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture()
	seedOrder(f, StatusPlaced)
	svc := f.service(ServiceConfig{})

	for _, actor := range []*user.User{customer, manager, admin} {
		o, err := svc.GetOrder(context.Background(), actor, "o1")
		require.NoError(t, err, actor.ID)
		assert.Equal(t, "o1", o.ID)
	}

	otherCustomer := &user.User{ID: "u8", Role: user.RoleCustomer, CustomerID: "c9"}
	_, err := svc.GetOrder(context.Background(), otherCustomer, "o1")
	assert.True(t, fault.Has(err, fault.Forbidden))

	_, err = svc.GetOrder(context.Background(), customer, "missing")
	assert.True(t, fault.Has(err, fault.NotFound))
}
