//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

func TestPlaceOrder(t *testing.T) {
	placed := placeTestOrder(t)

	if placed.OrderID == "" {
		t.Fatal("empty order ID")
	}
	if ok, _ := regexp.MatchString(`^#\d{4}$`, placed.OrderNumber); !ok {
		t.Fatalf("unexpected order number %q", placed.OrderNumber)
	}

	resp := doReq(t, http.MethodGet, "/api/orders/"+placed.OrderID, customerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order: status %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	if o.Status != "PLACED" {
		t.Errorf("status %q, want PLACED", o.Status)
	}
	if o.Total != 29.50 {
		t.Errorf("total %v, want 29.50", o.Total)
	}
	if len(o.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(o.Items))
	}
	if o.Items[0].Name != "Pizza Margherita" {
		t.Errorf("item name %q", o.Items[0].Name)
	}
	if o.Payment == nil || o.Payment.Status != "PENDING" {
		t.Errorf("payment %+v, want PENDING", o.Payment)
	}
}

func TestPlaceOrderRejectsStaff(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/orders", managerToken, placeOrderRequest{
		RestaurantID:    "rest-mamma",
		DeliveryAddress: "12 Main St",
		Items:           []orderItemInput{{MenuItemID: "item-margherita", Quantity: 1, Price: 11.50}},
		Total:           11.50,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d, want 403", resp.StatusCode)
	}
	e := decodeJSON[errorResponse](t, resp)
	if e.Code != "forbidden" {
		t.Errorf("code %q", e.Code)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/orders", customerToken, placeOrderRequest{
		RestaurantID:    "rest-mamma",
		DeliveryAddress: "12 Main St",
		Items:           []orderItemInput{},
		Total:           0,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestStatusLifecycle(t *testing.T) {
	placed := placeTestOrder(t)
	path := "/api/orders/" + placed.OrderID + "/status"

	// The customer cannot drive the lifecycle.
	resp := doReq(t, http.MethodPatch, path, customerToken, map[string]string{"status": "PREPARING"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("customer update: status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	// Neither can a manager of another restaurant.
	resp = doReq(t, http.MethodPatch, path, managerToken2, map[string]string{"status": "PREPARING"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign manager: status %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()

	for _, status := range []string{"PREPARING", "DISPATCHED", "DELIVERED"} {
		resp = doReq(t, http.MethodPatch, path, managerToken, map[string]string{"status": status})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("move to %s: status %d", status, resp.StatusCode)
		}
		o := decodeJSON[orderResponse](t, resp)
		if o.Status != status {
			t.Fatalf("status %q, want %q", o.Status, status)
		}
	}
}

func TestCancellationIsFinal(t *testing.T) {
	placed := placeTestOrder(t)
	path := "/api/orders/" + placed.OrderID + "/status"

	// Cancelling without a reason is rejected.
	resp := doReq(t, http.MethodPatch, path, managerToken, map[string]string{"status": "CANCELLED"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("cancel without reason: status %d, want 422", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodPatch, path, managerToken,
		map[string]string{"status": "CANCELLED", "reason": "out of flour"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	if o.CancellationReason != "out of flour" {
		t.Errorf("reason %q", o.CancellationReason)
	}

	// Every further transition, including a repeat cancel, conflicts.
	for _, status := range []string{"PREPARING", "DELIVERED", "CANCELLED"} {
		body := map[string]string{"status": status, "reason": "again"}
		resp = doReq(t, http.MethodPatch, path, managerToken, body)
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("move cancelled to %s: status %d, want 409", status, resp.StatusCode)
		}
		e := decodeJSON[errorResponse](t, resp)
		if e.Code != "invalid_state_transition" {
			t.Errorf("code %q", e.Code)
		}
	}

	// Admins hit the same wall.
	resp = doReq(t, http.MethodPatch, path, adminToken, map[string]string{"status": "PREPARING"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("admin update of cancelled: status %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPaymentStatusUpdate(t *testing.T) {
	placed := placeTestOrder(t)
	path := "/api/orders/" + placed.OrderID + "/payment"

	resp := doReq(t, http.MethodPatch, path, managerToken, map[string]string{"status": "COMPLETED"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update payment: status %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	if o.Payment == nil || o.Payment.Status != "COMPLETED" {
		t.Errorf("payment %+v, want COMPLETED", o.Payment)
	}
}

func TestListScoping(t *testing.T) {
	placed := placeTestOrder(t)

	// The customer sees their own order.
	resp := doReq(t, http.MethodGet, "/api/orders?pageSize=100", customerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("customer list: status %d", resp.StatusCode)
	}
	page := decodeJSON[pageResponse](t, resp)
	if !containsOrder(page.Orders, placed.OrderID) {
		t.Error("customer list misses own order")
	}

	// The other restaurant's manager does not.
	resp = doReq(t, http.MethodGet, "/api/orders?pageSize=100", managerToken2, nil)
	page = decodeJSON[pageResponse](t, resp)
	if containsOrder(page.Orders, placed.OrderID) {
		t.Error("foreign manager sees the order")
	}

	// The admin sees everything.
	resp = doReq(t, http.MethodGet, "/api/orders?pageSize=100", adminToken, nil)
	page = decodeJSON[pageResponse](t, resp)
	if !containsOrder(page.Orders, placed.OrderID) {
		t.Error("admin list misses the order")
	}
}

func TestAuthRejected(t *testing.T) {
	resp := doReq(t, http.MethodGet, "/api/orders", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doReq(t, http.MethodGet, "/api/orders", "made-up-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func containsOrder(orders []orderResponse, id string) bool {
	for _, o := range orders {
		if o.ID == id {
			return true
		}
	}
	return false
}
