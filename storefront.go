// Package storefront is a Go client for the FeiraHub storefront backend.
// It composes the per-concern service wrappers over one authenticated
// transport and one injected session store.
package storefront

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/feirahub/storefront-go/address"
	"github.com/feirahub/storefront-go/auth"
	"github.com/feirahub/storefront-go/cart"
	"github.com/feirahub/storefront-go/catalog"
	"github.com/feirahub/storefront-go/checkout"
	"github.com/feirahub/storefront-go/config"
	"github.com/feirahub/storefront-go/favorites"
	"github.com/feirahub/storefront-go/internal/httputil"
	"github.com/feirahub/storefront-go/payment"
	"github.com/feirahub/storefront-go/producer"
	"github.com/feirahub/storefront-go/session"
	"github.com/feirahub/storefront-go/tracking"
)

// Client bundles every storefront service over a shared session and
// transport.
type Client struct {
	Session   *session.Session
	Auth      *auth.Service
	Catalog   *catalog.Service
	Cart      *cart.Service
	Addresses *address.Service
	Payments  *payment.Service
	Favorites *favorites.Service
	Checkout  *checkout.Service
	Tracking  *tracking.Service
	Producer  *producer.Service

	cfg config.Config
	log *logrus.Logger
}

// Option customizes client construction.
type Option func(*options)

type options struct {
	logger     *logrus.Logger
	httpClient *http.Client
	store      session.Store
}

// WithLogger injects a shared logger.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithSessionStore overrides the session backend. The default follows the
// config: Redis when RedisURL is set, the session file when SessionFile is
// set, otherwise in-memory.
func WithSessionStore(store session.Store) Option {
	return func(o *options) { o.store = store }
}

// New builds a client from cfg.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = storeFromConfig(cfg)
		if err != nil {
			return nil, err
		}
	}
	sess := session.New(store)

	httpClient := o.httpClient
	if httpClient == nil && cfg.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	api, err := httputil.New(httputil.Config{
		BaseURL:    cfg.EffectiveBaseURL(),
		HTTPClient: httpClient,
		Tokens:     sess,
		Limiter:    limiter,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		Session:   sess,
		Auth:      auth.New(api, sess),
		Catalog:   catalog.New(api),
		Cart:      cart.New(api),
		Addresses: address.New(api),
		Payments:  payment.New(api),
		Favorites: favorites.New(api),
		Checkout:  checkout.New(api),
		Tracking:  tracking.New(api),
		Producer:  producer.New(api),
		cfg:       cfg,
		log:       log,
	}, nil
}

// NewCheckoutFlow starts a fresh checkout orchestration.
func (c *Client) NewCheckoutFlow() *checkout.Flow {
	return checkout.NewFlow(c.Checkout, c.Addresses, c.log)
}

// WatchOrder fetches the tracking snapshot and opens the live subscription.
// Socket failures are logged and swallowed; the snapshot is always usable.
func (c *Client) WatchOrder(ctx context.Context, orderID string, handler tracking.UpdateHandler) (*tracking.Tracking, *tracking.Tracker, error) {
	return c.Tracking.Watch(ctx, c.cfg.TrackingURL(), orderID, handler, c.log)
}

func storeFromConfig(cfg config.Config) (session.Store, error) {
	switch {
	case cfg.RedisURL != "":
		return session.NewRedisStore(context.Background(), session.RedisStoreOptions{URL: cfg.RedisURL})
	case cfg.SessionFile != "":
		return session.NewFileStore(cfg.SessionFile, nil)
	default:
		return session.NewMemoryStore(), nil
	}
}
