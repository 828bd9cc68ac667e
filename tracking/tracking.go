// Package tracking reports order status: an initial REST snapshot merged
// with live pushes from the /tracking websocket namespace.
package tracking

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/feirahub/storefront-go/internal/httputil"
)

// StatusEntry is one step of the order timeline.
type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// Location is the courier position when the backend reports one.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Tracking is the full tracking snapshot. Every websocket push carries the
// same shape and replaces the previous snapshot wholesale; the backend
// guarantees pushes are complete, never partial.
type Tracking struct {
	OrderID       string        `json:"orderId"`
	CurrentStatus string        `json:"currentStatus"`
	Timeline      []StatusEntry `json:"timeline"`
	EstimatedTime string        `json:"estimatedTime,omitempty"`
	Location      *Location     `json:"location,omitempty"`
}

// Service calls the /tracking REST endpoint.
type Service struct {
	api *httputil.Client
}

func New(api *httputil.Client) *Service {
	return &Service{api: api}
}

// Get fetches a one-shot tracking snapshot.
func (s *Service) Get(ctx context.Context, orderID string) (*Tracking, error) {
	if orderID == "" {
		return nil, fmt.Errorf("tracking: order id is required")
	}
	var t Tracking
	if err := s.api.Get(ctx, "/tracking/"+url.PathEscape(orderID), &t); err != nil {
		return nil, err
	}
	return &t, nil
}
