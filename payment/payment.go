// Package payment wraps the saved-card endpoints and the PIX/card payment
// submissions. Payment POSTs carry a client-generated idempotency key so a
// user re-submitting after a network failure cannot be charged twice.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/feirahub/storefront-go/internal/httputil"
)

// Card mirrors the backend saved-card document. Only the brand and last
// four digits ever reach the client.
type Card struct {
	ID             string `json:"id"`
	Brand          string `json:"brand"`
	Last4Digits    string `json:"last4Digits"`
	Expiry         string `json:"expiry"` // MM/YY
	CardholderName string `json:"cardholderName"`
	IsPrincipal    bool   `json:"isPrincipal"`
}

// CardInput tokenizes a new card server-side.
type CardInput struct {
	Number         string `json:"number"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholderName"`
	IsPrincipal    bool   `json:"isPrincipal"`
}

// PixCharge is the response to a PIX payment request.
type PixCharge struct {
	QRCode    string    `json:"qrCode"`
	CopyPaste string    `json:"copyPaste"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Result is the outcome of a card payment submission.
type Result struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// Service calls the /payments endpoints.
type Service struct {
	api *httputil.Client
}

func New(api *httputil.Client) *Service {
	return &Service{api: api}
}

// ListCards fetches the saved cards.
func (s *Service) ListCards(ctx context.Context) ([]Card, error) {
	var cards []Card
	if err := s.api.Get(ctx, "/payments/cards", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// AddCard saves a card.
func (s *Service) AddCard(ctx context.Context, input CardInput) (*Card, error) {
	var created Card
	if err := s.api.Post(ctx, "/payments/cards", input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteCard removes a saved card.
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("payment: card id is required")
	}
	return s.api.Delete(ctx, "/payments/cards/"+url.PathEscape(id), nil)
}

// SetPrincipal marks id as the principal card and returns a copy of cards
// with exactly one principal flag set. Like the address default, the local
// flip happens only after the server call succeeds.
func (s *Service) SetPrincipal(ctx context.Context, cards []Card, id string) ([]Card, error) {
	if id == "" {
		return nil, fmt.Errorf("payment: card id is required")
	}

	body := map[string]any{"isPrincipal": true}
	if err := s.api.Patch(ctx, "/payments/cards/"+url.PathEscape(id), body, nil); err != nil {
		return nil, err
	}

	flipped := append([]Card(nil), cards...)
	for i := range flipped {
		flipped[i].IsPrincipal = flipped[i].ID == id
	}
	return flipped, nil
}

// PayPix requests a PIX charge for an order.
func (s *Service) PayPix(ctx context.Context, orderID string) (*PixCharge, error) {
	if orderID == "" {
		return nil, fmt.Errorf("payment: order id is required")
	}

	body := map[string]any{"orderId": orderID}
	var charge PixCharge
	err := s.api.Post(ctx, "/payments/pix", body, &charge,
		httputil.WithHeader("Idempotency-Key", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// PayCard charges a saved card for an order.
func (s *Service) PayCard(ctx context.Context, orderID, cardID string) (*Result, error) {
	if orderID == "" {
		return nil, fmt.Errorf("payment: order id is required")
	}
	if cardID == "" {
		return nil, fmt.Errorf("payment: card id is required")
	}

	body := map[string]any{"orderId": orderID, "cardId": cardID}
	var result Result
	err := s.api.Post(ctx, "/payments/card", body, &result,
		httputil.WithHeader("Idempotency-Key", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	return &result, nil
}
