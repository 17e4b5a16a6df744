package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/feastly/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByTokenHash resolves a hashed bearer token to its user, including
// the customer link when the user is a customer.
func (r *UserRepository) FindByTokenHash(ctx context.Context, hash string) (*user.User, error) {
	var u user.User
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.name, u.role, COALESCE(u.restaurant_id, ''), COALESCE(c.id, ''), t.token_hash
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		LEFT JOIN customers c ON c.user_id = u.id
		WHERE t.token_hash = $1`, hash,
	).Scan(&u.ID, &u.Name, &role, &u.RestaurantID, &u.CustomerID, &u.TokenHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "select user by token")
	}
	u.Role = user.Role(role)
	return &u, nil
}
