// Package producer wraps the seller-side fulfillment endpoints.
package producer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/feirahub/storefront-go/internal/httputil"
)

// Fulfillment statuses a producer may set on an order.
const (
	StatusAccepted       = "accepted"
	StatusPreparing      = "preparing"
	StatusReady          = "ready"
	StatusOutForDelivery = "out-for-delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

var validStatuses = map[string]bool{
	StatusAccepted:       true,
	StatusPreparing:      true,
	StatusReady:          true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
}

// OrderItem is a line of a producer-side order view.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is the producer's view of a placed order.
type Order struct {
	ID           string      `json:"id"`
	ConsumerName string      `json:"consumerName"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Service calls the /producers/me endpoints.
type Service struct {
	api *httputil.Client
}

func New(api *httputil.Client) *Service {
	return &Service{api: api}
}

// Orders fetches the producer's incoming orders.
func (s *Service) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := s.api.Get(ctx, "/producers/me/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus advances an order through fulfillment. The status value
// is checked client-side against the known set before the request goes out.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	if orderID == "" {
		return fmt.Errorf("producer: order id is required")
	}
	if !validStatuses[status] {
		return fmt.Errorf("producer: unknown status %q", status)
	}

	body := map[string]any{"status": status}
	return s.api.Put(ctx, "/producers/me/orders/"+url.PathEscape(orderID)+"/status", body, nil)
}

// NotifyReady tells the consumer a pickup order is ready.
func (s *Service) NotifyReady(ctx context.Context, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("producer: order id is required")
	}
	return s.api.Post(ctx, "/producers/me/orders/"+url.PathEscape(orderID)+"/notify-ready", nil, nil)
}
