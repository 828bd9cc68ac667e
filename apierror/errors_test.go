package apierror

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Message(t *testing.T) {
	withMessage := &APIError{Status: 404, Message: "order not found"}
	if withMessage.Error() != "order not found" {
		t.Errorf("Error() = %q, want server message", withMessage.Error())
	}

	generic := &APIError{Status: 500}
	if generic.Error() != "HTTP error 500" {
		t.Errorf("Error() = %q, want HTTP error 500", generic.Error())
	}
}

func TestAuthExpired_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("cart fetch: %w", &AuthExpiredError{Err: &APIError{Status: 401}})
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatal("wrapped AuthExpiredError must match ErrAuthExpired")
	}
	if !IsAuthExpired(err) {
		t.Fatal("IsAuthExpired must see through wrapping")
	}
}

func TestIsNetwork(t *testing.T) {
	err := fmt.Errorf("op: %w", &NetworkError{Op: "GET /cart", Err: errors.New("dial refused")})
	if !IsNetwork(err) {
		t.Fatal("IsNetwork must see through wrapping")
	}
	if IsNetwork(errors.New("plain")) {
		t.Fatal("plain errors are not network errors")
	}
}

func TestValidationError_ListsFields(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"email": "required", "password": "required"}}
	want := "validation failed: email, password"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAsAPI(t *testing.T) {
	inner := &APIError{Status: 422, Message: "bad coupon"}
	apiErr, ok := AsAPI(fmt.Errorf("checkout: %w", inner))
	if !ok || apiErr.Status != 422 {
		t.Fatalf("AsAPI = %v %v, want the wrapped APIError", apiErr, ok)
	}
	if _, ok := AsAPI(errors.New("plain")); ok {
		t.Fatal("plain errors must not extract as APIError")
	}
}
