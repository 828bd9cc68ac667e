// Package catalog wraps the read-only product browsing endpoints.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/feirahub/storefront-go/internal/httputil"
)

// Product is the backend product document. Prices are reais.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	ProducerID  string  `json:"producerId"`
	Category    string  `json:"category"`
}

// ListOptions filter a product listing. Zero values are omitted.
type ListOptions struct {
	Search   string
	Category string
	Page     int
}

// Service calls the /products endpoints.
type Service struct {
	api *httputil.Client
}

func New(api *httputil.Client) *Service {
	return &Service{api: api}
}

// List fetches products matching opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	query := url.Values{}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Category != "" {
		query.Set("category", opts.Category)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}

	path := "/products"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var products []Product
	if err := s.api.Get(ctx, path, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("catalog: product id is required")
	}
	var product Product
	if err := s.api.Get(ctx, "/products/"+url.PathEscape(productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}
