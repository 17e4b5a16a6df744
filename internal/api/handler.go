package api

import (
	"net/http"

	"github.com/feastly/feastly/internal/domain/order"
	"github.com/feastly/feastly/internal/domain/user"
)

// Handler exposes the order workflow over HTTP, delegating business
// logic to the injected domain services.
type Handler struct {
	orders  *order.Service
	browser *order.Browser
	users   user.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(orders *order.Service, browser *order.Browser, users user.Repository) *Handler {
	return &Handler{
		orders:  orders,
		browser: browser,
		users:   users,
	}
}

// Routes registers the API endpoints on mux. Every route requires a
// bearer token; authorization beyond authentication is the domain
// layer's job.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.Handle("POST /api/orders", h.authenticated(h.placeOrder))
	mux.Handle("GET /api/orders", h.authenticated(h.listOrders))
	mux.Handle("GET /api/orders/{id}", h.authenticated(h.getOrder))
	mux.Handle("PATCH /api/orders/{id}/status", h.authenticated(h.updateStatus))
	mux.Handle("PATCH /api/orders/{id}/payment", h.authenticated(h.updatePayment))
}
