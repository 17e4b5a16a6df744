// Command seed-db loads a demo dataset: two restaurants with menus, a
// manager per restaurant, a customer, an admin, and one bearer token per
// user. Token plaintexts are printed so the API can be exercised right
// away; only their hashes are stored.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/feastly/internal/storage/postgres"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedRestaurants(ctx, pool); err != nil {
		return errors.Wrap(err, "seed restaurants")
	}
	if err := seedUsers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed users")
	}
	return nil
}

func seedRestaurants(ctx context.Context, pool *pgxpool.Pool) error {
	restaurants := []struct {
		id, name, email, phone, address string
	}{
		{"rest-mamma", "Mamma Rosa", "orders@mammarosa.example", "+15550100", "12 Via Roma"},
		{"rest-sichuan", "Sichuan House", "kitchen@sichuanhouse.example", "+15550101", "88 Pepper St"},
	}
	for _, r := range restaurants {
		_, err := pool.Exec(ctx,
			`INSERT INTO restaurants (id, name, email, phone, address)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			r.id, r.name, r.email, r.phone, r.address,
		)
		if err != nil {
			return errors.Wrapf(err, "insert restaurant %s", r.id)
		}
	}

	items := []struct {
		id, restaurantID, name, price string
	}{
		{"item-margherita", "rest-mamma", "Pizza Margherita", "11.50"},
		{"item-carbonara", "rest-mamma", "Spaghetti Carbonara", "13.00"},
		{"item-tiramisu", "rest-mamma", "Tiramisu", "6.50"},
		{"item-mapo", "rest-sichuan", "Mapo Tofu", "12.00"},
		{"item-dandan", "rest-sichuan", "Dan Dan Noodles", "10.50"},
	}
	for _, it := range items {
		_, err := pool.Exec(ctx,
			`INSERT INTO menu_items (id, restaurant_id, name, price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			it.id, it.restaurantID, it.name, it.price,
		)
		if err != nil {
			return errors.Wrapf(err, "insert menu item %s", it.id)
		}
	}

	slog.Info("restaurants seeded", slog.Int("restaurants", len(restaurants)), slog.Int("items", len(items)))
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	users := []struct {
		id, name, role, restaurantID, token string
	}{
		{"user-admin", "Platform Admin", "admin", "", "admin-token-dev"},
		{"user-rosa", "Rosa Bianchi", "manager", "rest-mamma", "rosa-token-dev"},
		{"user-chen", "Chen Wei", "manager", "rest-sichuan", "chen-token-dev"},
		{"user-alice", "Alice Doe", "customer", "", "alice-token-dev"},
	}
	for _, u := range users {
		var restaurantID any
		if u.restaurantID != "" {
			restaurantID = u.restaurantID
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO users (id, name, role, restaurant_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			u.id, u.name, u.role, restaurantID,
		)
		if err != nil {
			return errors.Wrapf(err, "insert user %s", u.id)
		}

		hash := sha256.Sum256([]byte(u.token))
		_, err = pool.Exec(ctx,
			`INSERT INTO auth_tokens (token_hash, user_id)
			VALUES ($1, $2)
			ON CONFLICT (token_hash) DO NOTHING`,
			hex.EncodeToString(hash[:]), u.id,
		)
		if err != nil {
			return errors.Wrapf(err, "insert token for %s", u.id)
		}

		slog.Info("user seeded", slog.String("user", u.id), slog.String("token", u.token))
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO customers (id, user_id, phone, email)
		VALUES ('cust-alice', 'user-alice', '+15550199', 'alice@example.com')
		ON CONFLICT (id) DO NOTHING`,
	)
	if err != nil {
		return errors.Wrap(err, "insert customer")
	}
	return nil
}
