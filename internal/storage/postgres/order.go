package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/feastly/internal/domain/order"
)

// pgUniqueViolation is the PostgreSQL error code for a unique constraint
// violation.
const pgUniqueViolation = "23505"

// orderNumberConstraint is the unique constraint guarding display numbers.
const orderNumberConstraint = "orders_number_key"

const (
	insertOrderSQL = `INSERT INTO orders
		(id, number, restaurant_id, customer_id, status, total, delivery_address, notes, cancellation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	insertItemSQL = `INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	insertPaymentSQL = `INSERT INTO payment_transactions
		(id, order_id, method, provider, mobile_number, external_ref, status, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectOrderSQL = `SELECT id, number, restaurant_id, customer_id, status, total,
		delivery_address, notes, cancellation_reason, created_at, updated_at
		FROM orders WHERE id = $1`

	selectItemsSQL = `SELECT menu_item_id, name, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	selectPaymentSQL = `SELECT id, method, provider, mobile_number, external_ref, status, amount
		FROM payment_transactions WHERE order_id = $1`

	lockStatusSQL = `SELECT status FROM orders WHERE id = $1 FOR UPDATE`

	updateStatusSQL = `UPDATE orders
		SET status = $2, cancellation_reason = $3, updated_at = now()
		WHERE id = $1`

	updatePaymentSQL = `UPDATE payment_transactions
		SET status = $2, updated_at = now()
		WHERE order_id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order, its items, and the optional payment record in
// one read-committed transaction. A unique violation on the display-number
// constraint maps to order.ErrDisplayNumberTaken; everything else
// propagates wrapped and is never retried here.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.ID, o.Number, o.RestaurantID, o.CustomerID, string(o.Status),
		o.Total, o.DeliveryAddress, o.Notes, o.CancellationReason,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isDisplayNumberViolation(err) {
			return order.ErrDisplayNumberTaken
		}
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(insertItemSQL, o.ID, it.MenuItemID, it.Name, it.Quantity, it.UnitPrice)
	}
	br := tx.SendBatch(ctx, batch)
	for range o.Items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return errors.Wrapf(err, "insert items for order %q", o.ID)
		}
	}
	if err := br.Close(); err != nil {
		return errors.Wrapf(err, "close item batch for order %q", o.ID)
	}

	if p := o.Payment; p != nil {
		_, err := tx.Exec(ctx, insertPaymentSQL,
			p.ID, o.ID, p.Method, p.Provider, p.MobileNumber, p.ExternalRef,
			string(p.Status), p.Amount,
		)
		if err != nil {
			return errors.Wrapf(err, "insert payment for order %q", o.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrapf(err, "commit order %q", o.ID)
	}
	return nil
}

// GetByID returns the order with items and payment hydrated.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return getOrder(ctx, r.pool, id)
}

// UpdateStatus re-reads the current status under a row lock before
// writing, so a concurrent cancel cannot be resurrected by a racing
// update.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, reason string) (*order.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	if err := tx.QueryRow(ctx, lockStatusSQL, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "lock order %q", id)
	}
	if order.Status(current) == order.StatusCancelled {
		return nil, order.ErrCancelled
	}

	if _, err := tx.Exec(ctx, updateStatusSQL, id, string(status), reason); err != nil {
		return nil, errors.Wrapf(err, "update status of order %q", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrapf(err, "commit status of order %q", id)
	}

	return getOrder(ctx, r.pool, id)
}

// UpdatePayment sets the payment status of the order's payment record.
func (r *OrderRepository) UpdatePayment(ctx context.Context, orderID string, status order.PaymentStatus) (*order.Order, error) {
	tag, err := r.pool.Exec(ctx, updatePaymentSQL, orderID, string(status))
	if err != nil {
		return nil, errors.Wrapf(err, "update payment of order %q", orderID)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing order from an order without a payment.
		var exists bool
		err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
		if err != nil {
			return nil, errors.Wrapf(err, "check order %q", orderID)
		}
		if !exists {
			return nil, order.ErrNotFound
		}
		return nil, order.ErrNoPayment
	}

	return getOrder(ctx, r.pool, orderID)
}

// querier is the subset of pgx pools and transactions used by reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getOrder(ctx context.Context, q querier, id string) (*order.Order, error) {
	var o order.Order
	var status string
	err := q.QueryRow(ctx, selectOrderSQL, id).Scan(
		&o.ID, &o.Number, &o.RestaurantID, &o.CustomerID, &status, &o.Total,
		&o.DeliveryAddress, &o.Notes, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select order %q", id)
	}
	o.Status = order.Status(status)

	rows, err := q.Query(ctx, selectItemsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "select items of order %q", id)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.MenuItemID, &it.Name, &it.Quantity, &it.UnitPrice)
		return it, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan items of order %q", id)
	}

	var p order.Payment
	var pstatus string
	err = q.QueryRow(ctx, selectPaymentSQL, id).Scan(
		&p.ID, &p.Method, &p.Provider, &p.MobileNumber, &p.ExternalRef, &pstatus, &p.Amount,
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No payment record for this order.
	case err != nil:
		return nil, errors.Wrapf(err, "select payment of order %q", id)
	default:
		p.Status = order.PaymentStatus(pstatus)
		o.Payment = &p
	}

	return &o, nil
}

// isDisplayNumberViolation reports whether err is a unique violation
// specifically on the display-number constraint.
func isDisplayNumberViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgUniqueViolation &&
		pgErr.ConstraintName == orderNumberConstraint
}
