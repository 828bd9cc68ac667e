// Package checkout sequences cart -> order draft -> delivery choice ->
// totals -> payment hand-off against the /checkout endpoints.
//
// Delivery is a tagged choice: pickup carries no address at all. The
// request body simply omits addressId for pickup orders instead of sending
// a placeholder id.
package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/feirahub/storefront-go/apierror"
	"github.com/feirahub/storefront-go/cart"
	"github.com/feirahub/storefront-go/internal/httputil"
)

// Delivery methods.
const (
	MethodDelivery = "delivery"
	MethodPickup   = "pickup"
)

// DeliveryChoice is either pickup or delivery-to-address. Construct it with
// Pickup or Delivery; the zero value is not valid.
type DeliveryChoice struct {
	method    string
	addressID string
}

// Pickup is a pickup-at-producer choice.
func Pickup() DeliveryChoice {
	return DeliveryChoice{method: MethodPickup}
}

// Delivery is a deliver-to-address choice.
func Delivery(addressID string) DeliveryChoice {
	return DeliveryChoice{method: MethodDelivery, addressID: addressID}
}

// Method returns "pickup" or "delivery".
func (d DeliveryChoice) Method() string { return d.method }

// AddressID returns the target address for delivery choices.
func (d DeliveryChoice) AddressID() (string, bool) {
	return d.addressID, d.method == MethodDelivery
}

func (d DeliveryChoice) validate() error {
	switch d.method {
	case MethodPickup:
		return nil
	case MethodDelivery:
		if d.addressID == "" {
			return &apierror.ValidationError{Fields: map[string]string{"addressId": "required for delivery"}}
		}
		return nil
	default:
		return fmt.Errorf("checkout: delivery choice is not set")
	}
}

// Summary is the server-side order draft.
type Summary struct {
	OrderID     string      `json:"orderId"`
	Items       []cart.Item `json:"items"`
	Subtotal    float64     `json:"subtotal"`
	Discount    float64     `json:"discount"`
	DeliveryFee float64     `json:"deliveryFee"`
	Total       float64     `json:"total"`
	Status      string      `json:"status"`
}

// Service calls the /checkout endpoints.
type Service struct {
	api *httputil.Client
}

func New(api *httputil.Client) *Service {
	return &Service{api: api}
}

// Initiate creates an order draft from the cart. An empty cart is refused
// before any request goes out.
func (s *Service) Initiate(ctx context.Context, c *cart.Cart) (*Summary, error) {
	if c == nil || len(c.Items) == 0 {
		return nil, apierror.ErrEmptyCart
	}

	body := map[string]any{"cartId": c.ID}
	var summary Summary
	err := s.api.Post(ctx, "/checkout/initiate", body, &summary,
		httputil.WithHeader("Idempotency-Key", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// CalculateTotal recomputes discount, delivery fee and total for the chosen
// delivery path. Delivery choices must carry an address.
func (s *Service) CalculateTotal(ctx context.Context, orderID string, choice DeliveryChoice, couponCode string) (*Summary, error) {
	if orderID == "" {
		return nil, fmt.Errorf("checkout: order id is required")
	}
	if err := choice.validate(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"orderId":        orderID,
		"deliveryMethod": choice.method,
	}
	if id, ok := choice.AddressID(); ok {
		body["addressId"] = id
	}
	if couponCode != "" {
		body["couponCode"] = couponCode
	}

	var summary Summary
	if err := s.api.Post(ctx, "/checkout/calculate-total", body, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpdateAddressAndDelivery commits the delivery path to the order. It must
// succeed before the payment hand-off.
func (s *Service) UpdateAddressAndDelivery(ctx context.Context, orderID string, choice DeliveryChoice) error {
	if orderID == "" {
		return fmt.Errorf("checkout: order id is required")
	}
	if err := choice.validate(); err != nil {
		return err
	}

	body := map[string]any{
		"orderId":        orderID,
		"deliveryMethod": choice.method,
	}
	if id, ok := choice.AddressID(); ok {
		body["addressId"] = id
	}
	return s.api.Put(ctx, "/checkout/address-delivery", body, nil)
}
