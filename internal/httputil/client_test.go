package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/feirahub/storefront-go/apierror"
)

type staticTokens struct {
	token       string
	invalidated atomic.Int32
}

func (s *staticTokens) Token(ctx context.Context) (string, error) { return s.token, nil }

func (s *staticTokens) Invalidate(ctx context.Context) error {
	s.invalidated.Add(1)
	return nil
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing BaseURL, got nil")
	}
	if _, err := New(Config{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatal("expected error for non-http scheme, got nil")
	}
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &staticTokens{token: "tok-123"})
	var out map[string]string
	if err := client.Get(context.Background(), "/ping", &out); err != nil {
		t.Fatalf("Get() err = %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if out["ok"] != "yes" {
		t.Fatalf("decoded = %v, want ok=yes", out)
	}
}

func TestDo_NetworkErrorVariant(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", nil)
	err := client.Get(context.Background(), "/ping", nil)
	if !apierror.IsNetwork(err) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestDo_ExtractsServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"cart already checked out"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	err := client.Post(context.Background(), "/checkout/initiate", map[string]string{}, nil)
	apiErr, ok := apierror.AsAPI(err)
	if !ok {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("Status = %d, want 409", apiErr.Status)
	}
	if apiErr.Error() != "cart already checked out" {
		t.Errorf("message = %q, want server message", apiErr.Error())
	}
}

func TestDo_GenericMessageWhenBodyUnparseable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	err := client.Get(context.Background(), "/cart", nil)
	apiErr, ok := apierror.AsAPI(err)
	if !ok {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Error() != "HTTP error 502" {
		t.Errorf("message = %q, want HTTP error 502", apiErr.Error())
	}
}

func TestDo_ValidationFieldsOn400(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid","fields":{"zipCode":"malformed"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	err := client.Post(context.Background(), "/addresses", map[string]string{}, nil)
	var ve *apierror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Fields["zipCode"] != "malformed" {
		t.Errorf("fields = %v, want zipCode entry", ve.Fields)
	}
}

func TestDo_401ClearsSessionWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer server.Close()

	tokens := &staticTokens{token: "stale"}
	client := newTestClient(t, server.URL, tokens)
	err := client.Get(context.Background(), "/cart", nil)

	if !apierror.IsAuthExpired(err) {
		t.Fatalf("err = %v, want auth-expired", err)
	}
	if got := tokens.invalidated.Load(); got != 1 {
		t.Errorf("Invalidate calls = %d, want 1", got)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("request count = %d, want 1 (no retry)", got)
	}
}

func TestDo_401UnauthenticatedIsPlainAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"wrong password"}`))
	}))
	defer server.Close()

	tokens := &staticTokens{} // logged out, no bearer attached
	client := newTestClient(t, server.URL, tokens)
	err := client.Post(context.Background(), "/auth/login", map[string]string{}, nil)

	if apierror.IsAuthExpired(err) {
		t.Fatal("login 401 must not be treated as session expiry")
	}
	if _, ok := apierror.AsAPI(err); !ok {
		t.Fatalf("err = %v, want APIError", err)
	}
	if tokens.invalidated.Load() != 0 {
		t.Error("Invalidate must not run for unauthenticated calls")
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Get(ctx, "/cart", nil)
	if !apierror.IsNetwork(err) {
		t.Fatalf("err = %v, want NetworkError for cancelled context", err)
	}
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: baseURL, Tokens: tokens})
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}
	return client
}
