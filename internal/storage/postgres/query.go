package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastly/feastly/internal/domain/order"
)

var _ order.Queries = (*OrderQueries)(nil)

// OrderQueries is the SQL read side of the order store.
type OrderQueries struct {
	pool *pgxpool.Pool
}

// NewOrderQueries returns an OrderQueries over the given pool.
func NewOrderQueries(pool *pgxpool.Pool) *OrderQueries {
	return &OrderQueries{pool: pool}
}

// List runs one page of the listing plus a matching COUNT for metadata.
func (q *OrderQueries) List(ctx context.Context, p order.ListParams) (*order.Page, error) {
	listSQL, countSQL, args := buildListQuery(p)

	var total int
	if err := q.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, errors.Wrap(err, "count orders")
	}

	limited := append(args, p.PageSize, (p.Page-1)*p.PageSize)
	rows, err := q.pool.Query(ctx, listSQL, limited...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Summary, error) {
		var s order.Summary
		var status string
		err := row.Scan(&s.ID, &s.Number, &s.RestaurantID, &s.CustomerID, &status, &s.Total, &s.CreatedAt)
		s.Status = order.Status(status)
		return s, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}

	totalPages := total / p.PageSize
	if total%p.PageSize != 0 {
		totalPages++
	}
	return &order.Page{
		Orders:     summaries,
		Total:      total,
		TotalPages: totalPages,
		Page:       p.Page,
		PageSize:   p.PageSize,
	}, nil
}

// sortColumns maps exposed sort fields to real columns. The Browser
// validates the field name; this map is the second line of defense
// against interpolating caller input into SQL.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"total":      "total",
	"status":     "status",
	"number":     "number",
}

// buildListQuery assembles the listing and count statements for p. The
// LIMIT/OFFSET placeholders come last, after the filter args.
func buildListQuery(p order.ListParams) (listSQL, countSQL string, args []any) {
	var where []string

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.Scope.CustomerID != "" {
		where = append(where, "customer_id = "+arg(p.Scope.CustomerID))
	}
	if p.Scope.RestaurantID != "" {
		where = append(where, "restaurant_id = "+arg(p.Scope.RestaurantID))
	}
	if p.Filter.Status != "" {
		where = append(where, "status = "+arg(string(p.Filter.Status)))
	}
	if p.Filter.Search != "" {
		where = append(where, "number ILIKE "+arg("%"+p.Filter.Search+"%"))
	}
	if !p.Filter.From.IsZero() {
		where = append(where, "created_at >= "+arg(p.Filter.From))
	}
	if !p.Filter.To.IsZero() {
		where = append(where, "created_at <= "+arg(p.Filter.To))
	}

	var cond string
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "created_at"
	}
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}

	listSQL = fmt.Sprintf(
		`SELECT id, number, restaurant_id, customer_id, status, total, created_at FROM orders%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		cond, column, dir, len(args)+1, len(args)+2,
	)
	countSQL = "SELECT count(*) FROM orders" + cond
	return listSQL, countSQL, args
}
