package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feirahub/storefront-go/auth"
	"github.com/feirahub/storefront-go/config"
	"github.com/feirahub/storefront-go/session"
)

func TestNew_WiresEveryService(t *testing.T) {
	cfg := config.Default()
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}

	if client.Auth == nil || client.Catalog == nil || client.Cart == nil ||
		client.Addresses == nil || client.Payments == nil || client.Favorites == nil ||
		client.Checkout == nil || client.Tracking == nil || client.Producer == nil {
		t.Fatal("every service must be wired")
	}
	if client.Session == nil {
		t.Fatal("session must be wired")
	}
	if client.NewCheckoutFlow() == nil {
		t.Fatal("checkout flow must be constructible")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BaseURL = ""
	cfg.AndroidBaseURL = ""
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestClient_SharesSessionAcrossServices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]any{
				"token": "tok-x",
				"user":  map[string]any{"id": "u1"},
			})
		case "/favorites":
			if r.Header.Get("Authorization") != "Bearer tok-x" {
				t.Errorf("Authorization = %q, want the login token", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.BaseURL = server.URL
	store := session.NewMemoryStore()
	client, err := New(cfg, WithSessionStore(store))
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}

	ctx := context.Background()
	if _, err := client.Auth.Login(ctx, auth.Credentials{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("Login() err = %v", err)
	}
	if _, err := client.Favorites.List(ctx); err != nil {
		t.Fatalf("List() err = %v", err)
	}
}
