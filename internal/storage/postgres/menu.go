package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/feastly/internal/domain/menu"
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// GetByIDs returns the available items of one restaurant matching ids.
// Unknown or unavailable ids are simply absent from the result.
func (r *MenuRepository) GetByIDs(ctx context.Context, restaurantID string, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, restaurant_id, name, price, available
		FROM menu_items
		WHERE restaurant_id = $1 AND available AND id = ANY($2)`,
		restaurantID, ids,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select menu items")
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (menu.Item, error) {
		var it menu.Item
		err := row.Scan(&it.ID, &it.RestaurantID, &it.Name, &it.Price, &it.Available)
		return it, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan menu items")
	}
	return items, nil
}
