package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/feastly/internal/domain/restaurant"
)

var _ restaurant.Repository = (*RestaurantRepository)(nil)

// RestaurantRepository implements restaurant.Repository backed by PostgreSQL.
type RestaurantRepository struct {
	pool *pgxpool.Pool
}

func NewRestaurantRepository(pool *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{pool: pool}
}

func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*restaurant.Restaurant, error) {
	var rest restaurant.Restaurant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, address, delivery_fee, active
		FROM restaurants WHERE id = $1`, id,
	).Scan(&rest.ID, &rest.Name, &rest.Email, &rest.Phone, &rest.Address, &rest.DeliveryFee, &rest.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, restaurant.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select restaurant %q", id)
	}
	return &rest, nil
}
