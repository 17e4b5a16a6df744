package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/feastly/feastly/internal/domain/order"
	"github.com/feastly/feastly/internal/domain/user"
	"github.com/feastly/feastly/internal/fault"
)

// placeOrder handles POST /api/orders.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, actor *user.User) {
	req, err := decodePlaceOrder(r.Body)
	if err != nil {
		writeError(r.Context(), w, fault.Wrap(fault.Validation, err, "malformed request body"))
		return
	}

	placed, err := h.orders.PlaceOrder(r.Context(), actor, req)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("orderId", func(e *jx.Encoder) { e.Str(placed.OrderID) })
		e.Field("orderNumber", func(e *jx.Encoder) { e.Str(placed.Number) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(placed.CreatedAt.Format(time.RFC3339)) })
	})
	writeJSON(w, http.StatusCreated, e)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, actor *user.User) {
	o, err := h.orders.GetOrder(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeOrder(w, o)
}

// updateStatus handles PATCH /api/orders/{id}/status.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, actor *user.User) {
	var status, reason string
	err := decodeObj(r.Body, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "status":
			status, err = d.Str()
		case "reason":
			reason, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(r.Context(), w, fault.Wrap(fault.Validation, err, "malformed request body"))
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), actor, r.PathValue("id"), order.Status(status), reason)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeOrder(w, o)
}

// updatePayment handles PATCH /api/orders/{id}/payment.
func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request, actor *user.User) {
	var status string
	err := decodeObj(r.Body, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "status":
			status, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(r.Context(), w, fault.Wrap(fault.Validation, err, "malformed request body"))
		return
	}

	o, err := h.orders.UpdatePaymentStatus(r.Context(), actor, r.PathValue("id"), order.PaymentStatus(status))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeOrder(w, o)
}

// listOrders handles GET /api/orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, actor *user.User) {
	p, err := listParams(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	page, err := h.browser.List(r.Context(), actor, p)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("orders", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range page.Orders {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
						e.Field("number", func(e *jx.Encoder) { e.Str(s.Number) })
						e.Field("restaurantId", func(e *jx.Encoder) { e.Str(s.RestaurantID) })
						e.Field("customerId", func(e *jx.Encoder) { e.Str(s.CustomerID) })
						e.Field("status", func(e *jx.Encoder) { e.Str(string(s.Status)) })
						e.Field("total", func(e *jx.Encoder) { e.Float64(s.Total.InexactFloat64()) })
						e.Field("createdAt", func(e *jx.Encoder) { e.Str(s.CreatedAt.Format(time.RFC3339)) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Int(page.Total) })
		e.Field("totalPages", func(e *jx.Encoder) { e.Int(page.TotalPages) })
		e.Field("page", func(e *jx.Encoder) { e.Int(page.Page) })
		e.Field("pageSize", func(e *jx.Encoder) { e.Int(page.PageSize) })
	})
	writeJSON(w, http.StatusOK, e)
}

// listParams parses pagination, sorting, and filter query parameters.
func listParams(r *http.Request) (order.ListParams, error) {
	q := r.URL.Query()
	var p order.ListParams

	var err error
	if v := q.Get("page"); v != "" {
		if p.Page, err = strconv.Atoi(v); err != nil {
			return p, fault.Newf(fault.Validation, "invalid page %q", v)
		}
	}
	if v := q.Get("pageSize"); v != "" {
		if p.PageSize, err = strconv.Atoi(v); err != nil {
			return p, fault.Newf(fault.Validation, "invalid pageSize %q", v)
		}
	}
	p.SortBy = q.Get("sortBy")
	p.SortDesc = q.Get("sortDir") != "asc"
	p.Filter.Status = order.Status(q.Get("status"))
	p.Filter.Search = q.Get("search")
	p.Scope.RestaurantID = q.Get("restaurantId")

	if v := q.Get("from"); v != "" {
		if p.Filter.From, err = time.Parse(time.RFC3339, v); err != nil {
			return p, fault.Newf(fault.Validation, "invalid from timestamp %q", v)
		}
	}
	if v := q.Get("to"); v != "" {
		if p.Filter.To, err = time.Parse(time.RFC3339, v); err != nil {
			return p, fault.Newf(fault.Validation, "invalid to timestamp %q", v)
		}
	}
	return p, nil
}


// decodePlaceOrder reads the order placement payload.
func decodePlaceOrder(body io.Reader) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest
	err := decodeObj(body, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "restaurantId":
			req.RestaurantID, err = d.Str()
		case "deliveryAddress":
			req.DeliveryAddress, err = d.Str()
		case "notes":
			req.Notes, err = d.Str()
		case "total":
			req.DeclaredTotal, err = decodeDecimal(d)
		case "payment":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var p order.PaymentRequest
			err = d.Obj(func(d *jx.Decoder, key string) (err error) {
				switch key {
				case "method":
					p.Method, err = d.Str()
				case "provider":
					p.Provider, err = d.Str()
				case "mobileNumber":
					p.MobileNumber, err = d.Str()
				case "externalRef":
					p.ExternalRef, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
			if err == nil {
				req.Payment = &p
			}
		case "items":
			err = d.Arr(func(d *jx.Decoder) (err error) {
				var it order.PlaceOrderItem
				err = d.Obj(func(d *jx.Decoder, key string) (err error) {
					switch key {
					case "menuItemId":
						it.MenuItemID, err = d.Str()
					case "quantity":
						it.Quantity, err = d.Int()
					case "price":
						it.Price, err = decodeDecimal(d)
					default:
						err = d.Skip()
					}
					return err
				})
				if err == nil {
					req.Items = append(req.Items, it)
				}
				return err
			})
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

func decodeObj(body io.Reader, f func(d *jx.Decoder, key string) error) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return jx.DecodeBytes(raw).Obj(f)
}

// decodeDecimal reads a JSON number as a money value.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	f, err := d.Float64()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromFloat(f), nil
}

// writeOrder renders the full order snapshot.
func writeOrder(w http.ResponseWriter, o *order.Order) {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("number", func(e *jx.Encoder) { e.Str(o.Number) })
		e.Field("restaurantId", func(e *jx.Encoder) { e.Str(o.RestaurantID) })
		e.Field("customerId", func(e *jx.Encoder) { e.Str(o.CustomerID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("total", func(e *jx.Encoder) { e.Float64(o.Total.InexactFloat64()) })
		e.Field("deliveryAddress", func(e *jx.Encoder) { e.Str(o.DeliveryAddress) })
		e.Field("notes", func(e *jx.Encoder) { e.Str(o.Notes) })
		if o.CancellationReason != "" {
			e.Field("cancellationReason", func(e *jx.Encoder) { e.Str(o.CancellationReason) })
		}
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("menuItemId", func(e *jx.Encoder) { e.Str(it.MenuItemID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Float64(it.UnitPrice.InexactFloat64()) })
					})
				}
			})
		})
		if p := o.Payment; p != nil {
			e.Field("payment", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
					e.Field("method", func(e *jx.Encoder) { e.Str(p.Method) })
					e.Field("provider", func(e *jx.Encoder) { e.Str(p.Provider) })
					e.Field("mobileNumber", func(e *jx.Encoder) { e.Str(p.MobileNumber) })
					e.Field("externalRef", func(e *jx.Encoder) { e.Str(p.ExternalRef) })
					e.Field("status", func(e *jx.Encoder) { e.Str(string(p.Status)) })
					e.Field("amount", func(e *jx.Encoder) { e.Float64(p.Amount.InexactFloat64()) })
				})
			})
		}
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
		e.Field("updatedAt", func(e *jx.Encoder) { e.Str(o.UpdatedAt.Format(time.RFC3339)) })
	})
	writeJSON(w, http.StatusOK, e)
}
