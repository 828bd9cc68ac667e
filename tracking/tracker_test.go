package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/feirahub/storefront-go/internal/httputil"
)

var upgrader = websocket.Upgrader{}

// trackingSocket upgrades, waits for the join event and then pushes the
// given snapshots in order.
func trackingSocket(t *testing.T, pushes []Tracking) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var join envelope
		if err := conn.ReadJSON(&join); err != nil {
			t.Errorf("read join: %v", err)
			return
		}
		if join.Event != "joinOrder" {
			t.Errorf("first event = %q, want joinOrder", join.Event)
		}
		var payload map[string]string
		json.Unmarshal(join.Data, &payload)
		if payload["orderId"] != "o1" {
			t.Errorf("join orderId = %q, want o1", payload["orderId"])
		}

		for _, push := range pushes {
			data, _ := json.Marshal(push)
			conn.WriteJSON(envelope{Event: "trackingUpdate", Data: data})
		}

		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestTracker_ReplacesStateOnPush(t *testing.T) {
	first := Tracking{OrderID: "o1", CurrentStatus: "preparing", EstimatedTime: "40min",
		Timeline: []StatusEntry{{Status: "ordered"}, {Status: "preparing"}}}
	second := Tracking{OrderID: "o1", CurrentStatus: "out-for-delivery",
		Timeline: []StatusEntry{{Status: "ordered"}, {Status: "preparing"}, {Status: "out-for-delivery"}},
		Location: &Location{Latitude: -23.55, Longitude: -46.63}}

	server := httptest.NewServer(trackingSocket(t, []Tracking{first, second}))
	defer server.Close()

	updates := make(chan *Tracking, 2)
	tracker, err := NewTracker(TrackerConfig{
		URL:     wsURL(server),
		OrderID: "o1",
		Handler: func(tr *Tracking) { updates <- tr },
	})
	if err != nil {
		t.Fatalf("NewTracker() err = %v", err)
	}
	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	defer tracker.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-updates:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for push")
		}
	}

	current := tracker.Current()
	if current.CurrentStatus != "out-for-delivery" {
		t.Fatalf("CurrentStatus = %q, want the last push", current.CurrentStatus)
	}
	// Full replacement, not a merge: the estimate from the first push is
	// gone because the second one did not carry it.
	if current.EstimatedTime != "" {
		t.Fatalf("EstimatedTime = %q, want empty after replacement", current.EstimatedTime)
	}
	if current.Location == nil || current.Location.Latitude != -23.55 {
		t.Fatalf("Location = %v, want courier position", current.Location)
	}
}

func TestTracker_ServerCloseEndsSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.ReadMessage() // join
		conn.Close()
	}))
	defer server.Close()

	tracker, err := NewTracker(TrackerConfig{URL: wsURL(server), OrderID: "o1"})
	if err != nil {
		t.Fatalf("NewTracker() err = %v", err)
	}
	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("Start() err = %v", err)
	}

	select {
	case <-tracker.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription must end when the server closes")
	}
}

func TestWatch_SocketFailureKeepsSnapshot(t *testing.T) {
	rest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracking/o1" {
			t.Errorf("path = %s, want /tracking/o1", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Tracking{OrderID: "o1", CurrentStatus: "preparing"})
	}))
	defer rest.Close()

	api, err := httputil.New(httputil.Config{BaseURL: rest.URL})
	if err != nil {
		t.Fatalf("httputil.New() err = %v", err)
	}
	svc := New(api)

	// Unreachable websocket endpoint: the snapshot is still returned and
	// no error surfaces.
	snapshot, tracker, err := svc.Watch(context.Background(), "ws://127.0.0.1:1", "o1", nil, nil)
	if err != nil {
		t.Fatalf("Watch() err = %v, want nil on socket failure", err)
	}
	if tracker != nil {
		t.Fatal("tracker must be nil when the socket is unavailable")
	}
	if snapshot == nil || snapshot.CurrentStatus != "preparing" {
		t.Fatalf("snapshot = %+v, want the REST data", snapshot)
	}
}

func TestWatch_RESTFailureIsTerminal(t *testing.T) {
	rest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"order not found"}`))
	}))
	defer rest.Close()

	api, err := httputil.New(httputil.Config{BaseURL: rest.URL})
	if err != nil {
		t.Fatalf("httputil.New() err = %v", err)
	}
	svc := New(api)

	if _, _, err := svc.Watch(context.Background(), "ws://127.0.0.1:1", "o1", nil, nil); err == nil {
		t.Fatal("REST failure must surface")
	}
}

func TestNewTracker_Validation(t *testing.T) {
	if _, err := NewTracker(TrackerConfig{OrderID: "o1"}); err == nil {
		t.Fatal("expected error for missing URL")
	}
	if _, err := NewTracker(TrackerConfig{URL: "ws://x"}); err == nil {
		t.Fatal("expected error for missing order id")
	}
}
