// Package favorites wraps the per-user favorite-product membership set.
package favorites

import (
	"context"
	"fmt"
	"net/url"

	"github.com/feirahub/storefront-go/internal/httputil"
)

// Favorite is a product membership entry.
type Favorite struct {
	ProductID string `json:"productId"`
}

// Service calls the /favorites endpoints.
type Service struct {
	api *httputil.Client
}

func New(api *httputil.Client) *Service {
	return &Service{api: api}
}

// List fetches the user's favorites.
func (s *Service) List(ctx context.Context) ([]Favorite, error) {
	var favorites []Favorite
	if err := s.api.Get(ctx, "/favorites", &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// Add marks a product as favorite.
func (s *Service) Add(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("favorites: product id is required")
	}
	return s.api.Post(ctx, "/favorites/"+url.PathEscape(productID), nil, nil)
}

// Remove unmarks a product.
func (s *Service) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("favorites: product id is required")
	}
	return s.api.Delete(ctx, "/favorites/"+url.PathEscape(productID), nil)
}

// IsFavorite reports membership by fetching the current set.
func (s *Service) IsFavorite(ctx context.Context, productID string) (bool, error) {
	favorites, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, f := range favorites {
		if f.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}
