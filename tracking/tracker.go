package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	eventJoinOrder      = "joinOrder"
	eventTrackingUpdate = "trackingUpdate"

	handshakeTimeout  = 10 * time.Second
	heartbeatInterval = 30 * time.Second
)

// envelope is the wire frame on the tracking namespace.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// UpdateHandler receives each pushed snapshot.
type UpdateHandler func(*Tracking)

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// URL is the websocket endpoint of the tracking namespace
	// (e.g. wss://api.feirahub.com/tracking).
	URL string
	// OrderID selects the order channel to join.
	OrderID string
	// Handler receives pushed snapshots. May be nil; Current still updates.
	Handler UpdateHandler
	// Logger receives connection lifecycle logs. Nil discards them.
	Logger *logrus.Logger
	// Dialer overrides the websocket dialer, mainly for tests.
	Dialer *websocket.Dialer
}

// Tracker maintains one order-scoped websocket subscription. Each push
// replaces the whole tracked snapshot; there is no field-level merge. A
// read failure ends the subscription: there is no reconnect, callers start
// a fresh Tracker when they need the live path again.
type Tracker struct {
	url     string
	orderID string
	handler UpdateHandler
	log     *logrus.Logger
	dialer  *websocket.Dialer

	mu      sync.RWMutex
	conn    *websocket.Conn
	current *Tracking
	done    chan struct{}
}

// NewTracker creates a tracker; Start opens the connection.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("tracking: websocket URL is required")
	}
	if cfg.OrderID == "" {
		return nil, fmt.Errorf("tracking: order id is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}

	return &Tracker{
		url:     cfg.URL,
		orderID: cfg.OrderID,
		handler: cfg.Handler,
		log:     log,
		dialer:  dialer,
		done:    make(chan struct{}),
	}, nil
}

// Start dials the namespace and joins the order channel.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil // already connected
	}

	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("tracking: websocket dial: %w", err)
	}

	join := envelope{Event: eventJoinOrder}
	join.Data, _ = json.Marshal(map[string]string{"orderId": t.orderID})
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return fmt.Errorf("tracking: send join: %w", err)
	}

	t.conn = conn
	t.done = make(chan struct{})

	go t.readLoop(conn)
	go t.heartbeat(conn)

	t.log.WithField("order_id", t.orderID).Info("tracking subscription started")
	return nil
}

// Stop closes the subscription.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	close(t.done)
	t.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := t.conn.Close()
	t.conn = nil
	return err
}

// Current returns the last pushed snapshot, nil before the first push.
func (t *Tracker) Current() *Tracking {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Done is closed when the subscription ends, by Stop or by a read failure.
func (t *Tracker) Done() <-chan struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.done
}

func (t *Tracker) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-t.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			t.endSubscription(err)
			return
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			continue
		}
		if env.Event != eventTrackingUpdate {
			continue
		}

		var snapshot Tracking
		if err := json.Unmarshal(env.Data, &snapshot); err != nil {
			t.log.WithField("error", err).Warn("malformed tracking update dropped")
			continue
		}

		// Full replacement: each push is a complete snapshot.
		t.mu.Lock()
		t.current = &snapshot
		handler := t.handler
		t.mu.Unlock()

		if handler != nil {
			handler(&snapshot)
		}
	}
}

// endSubscription tears the connection down after a read failure. The live
// path stays dead until a new Tracker is started.
func (t *Tracker) endSubscription(cause error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return
	}
	select {
	case <-t.done:
		// Stop already closed it.
	default:
		close(t.done)
		t.log.WithFields(logrus.Fields{
			"order_id": t.orderID,
			"error":    cause,
		}).Warn("tracking subscription ended")
	}
	t.conn.Close()
	t.conn = nil
}

func (t *Tracker) heartbeat(conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.conn != nil {
				t.conn.WriteMessage(websocket.PingMessage, nil)
			}
			t.mu.Unlock()
		}
	}
}

// Watch fetches the REST snapshot and then tries to open the live
// subscription. A socket failure is logged and swallowed: the snapshot is
// still returned with a nil tracker, and the caller renders stale data
// until it retries from scratch.
func (s *Service) Watch(ctx context.Context, wsURL, orderID string, handler UpdateHandler, log *logrus.Logger) (*Tracking, *Tracker, error) {
	snapshot, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	tracker, err := NewTracker(TrackerConfig{
		URL:     wsURL,
		OrderID: orderID,
		Handler: handler,
		Logger:  log,
	})
	if err != nil {
		return snapshot, nil, nil
	}
	if err := tracker.Start(ctx); err != nil {
		if log != nil {
			log.WithFields(logrus.Fields{
				"order_id": orderID,
				"error":    err,
			}).Warn("tracking socket unavailable, showing last snapshot")
		}
		return snapshot, nil, nil
	}
	return snapshot, tracker, nil
}
