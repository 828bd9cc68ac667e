package producer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feirahub/storefront-go/internal/httputil"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	api, err := httputil.New(httputil.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("httputil.New() err = %v", err)
	}
	return New(api)
}

func TestUpdateOrderStatus(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	})

	if err := svc.UpdateOrderStatus(context.Background(), "o7", StatusReady); err != nil {
		t.Fatalf("UpdateOrderStatus() err = %v", err)
	}
	if gotPath != "PUT /producers/me/orders/o7/status" {
		t.Errorf("request = %q, want PUT status path", gotPath)
	}
	if gotBody["status"] != "ready" {
		t.Errorf("status = %q, want ready", gotBody["status"])
	}
}

func TestUpdateOrderStatus_RejectsUnknownStatus(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	if err := svc.UpdateOrderStatus(context.Background(), "o7", "teleported"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if called {
		t.Fatal("invalid status must not reach the network")
	}
}

func TestNotifyReady(t *testing.T) {
	var gotPath string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.Write([]byte(`{}`))
	})

	if err := svc.NotifyReady(context.Background(), "o7"); err != nil {
		t.Fatalf("NotifyReady() err = %v", err)
	}
	if gotPath != "POST /producers/me/orders/o7/notify-ready" {
		t.Errorf("request = %q, want notify-ready path", gotPath)
	}
}

func TestOrders(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Order{{ID: "o1", Status: StatusAccepted, Total: 55}})
	})

	orders, err := svc.Orders(context.Background())
	if err != nil {
		t.Fatalf("Orders() err = %v", err)
	}
	if len(orders) != 1 || orders[0].Status != StatusAccepted {
		t.Fatalf("orders = %+v, want one accepted order", orders)
	}
}
