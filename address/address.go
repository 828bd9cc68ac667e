// Package address wraps the address book endpoints. The backend enforces
// the single-default constraint; the local list is flipped only after the
// server confirms, so two defaults are never visible at once.
package address

import (
	"context"
	"fmt"
	"net/url"

	"github.com/feirahub/storefront-go/internal/httputil"
)

// Coordinates is an optional geocoded position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address mirrors the backend address document.
type Address struct {
	ID           string       `json:"id"`
	Street       string       `json:"street"`
	Number       string       `json:"number"`
	Complement   string       `json:"complement,omitempty"`
	Neighborhood string       `json:"neighborhood"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	ZipCode      string       `json:"zipCode"`
	IsDefault    bool         `json:"isDefault"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

// Input creates or replaces an address.
type Input struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	IsDefault    bool   `json:"isDefault"`
}

// Suggestion is an autocomplete candidate.
type Suggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"placeId"`
}

// Validation is the backend's verdict on a candidate address.
type Validation struct {
	Valid       bool         `json:"valid"`
	Message     string       `json:"message,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Service calls the /addresses endpoints.
type Service struct {
	api *httputil.Client
}

func New(api *httputil.Client) *Service {
	return &Service{api: api}
}

// List fetches the user's addresses.
func (s *Service) List(ctx context.Context) ([]Address, error) {
	var addresses []Address
	if err := s.api.Get(ctx, "/addresses", &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// Create adds an address.
func (s *Service) Create(ctx context.Context, input Input) (*Address, error) {
	var created Address
	if err := s.api.Post(ctx, "/addresses", input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces an address.
func (s *Service) Update(ctx context.Context, id string, input Input) (*Address, error) {
	if id == "" {
		return nil, fmt.Errorf("address: id is required")
	}
	var updated Address
	if err := s.api.Put(ctx, "/addresses/"+url.PathEscape(id), input, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an address.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("address: id is required")
	}
	return s.api.Delete(ctx, "/addresses/"+url.PathEscape(id), nil)
}

// Autocomplete suggests addresses for a partial query.
func (s *Service) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	if query == "" {
		return nil, nil
	}
	var suggestions []Suggestion
	path := "/addresses/autocomplete?query=" + url.QueryEscape(query)
	if err := s.api.Get(ctx, path, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// Validate asks the backend to verify and geocode a candidate address.
func (s *Service) Validate(ctx context.Context, input Input) (*Validation, error) {
	var result Validation
	if err := s.api.Post(ctx, "/addresses/validate", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetDefault marks id as the default and returns a copy of addresses with
// exactly one default flag set. The local flip happens only after the
// server call succeeds.
func (s *Service) SetDefault(ctx context.Context, addresses []Address, id string) ([]Address, error) {
	if id == "" {
		return nil, fmt.Errorf("address: id is required")
	}

	body := map[string]any{"isDefault": true}
	if err := s.api.Put(ctx, "/addresses/"+url.PathEscape(id), body, nil); err != nil {
		return nil, err
	}

	flipped := append([]Address(nil), addresses...)
	for i := range flipped {
		flipped[i].IsDefault = flipped[i].ID == id
	}
	return flipped, nil
}

// ChooseSelected picks the address a checkout should start from: the
// default one when present, otherwise the first, or the last when the list
// was just extended (returning from the add-address flow).
func ChooseSelected(addresses []Address, preferLast bool) *Address {
	if len(addresses) == 0 {
		return nil
	}
	if preferLast {
		return &addresses[len(addresses)-1]
	}
	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	return &addresses[0]
}
