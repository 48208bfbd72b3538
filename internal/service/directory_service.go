package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"orderdesk/internal/cache"
	"orderdesk/internal/gateway"
	"orderdesk/internal/model"
)

// Cache namespaces, named after the keys the dashboard used to mirror.
const (
	KeyStores   = "app-stores"
	KeyProducts = "app-products"
	KeyUsers    = "app-users"
	KeyPrices   = "app-histprices"
)

// DirectoryService is a read-through cache over the backend directory endpoints.
type DirectoryService interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	ListStores(ctx context.Context) ([]model.Store, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// LatestPrice is the newest price-history entry effective now.
	LatestPrice(ctx context.Context, productID string) (*model.PriceHistory, error)
	// Invalidate drops cached entries after a write to a backend resource
	// (stores, products, users, histprices). An empty id drops the whole namespace.
	Invalidate(ctx context.Context, resource string, id string) error
}

type directoryService struct {
	backend  gateway.DirectoryGateway
	store    cache.Store
	ttl      time.Duration
	priceTTL time.Duration
	now      func() time.Time
}

func NewDirectoryService(backend gateway.DirectoryGateway, store cache.Store, ttl, priceTTL time.Duration) DirectoryService {
	if store == nil {
		store = cache.NoopStore{}
	}
	return &directoryService{
		backend:  backend,
		store:    store,
		ttl:      ttl,
		priceTTL: priceTTL,
		now:      time.Now,
	}
}

// DirectoryNamespace maps a backend resource name to its cache namespace.
func DirectoryNamespace(resource string) (string, bool) {
	switch resource {
	case "stores":
		return KeyStores, true
	case "products":
		return KeyProducts, true
	case "users":
		return KeyUsers, true
	case "histprices":
		return KeyPrices, true
	}
	return "", false
}

func (s *directoryService) GetStore(ctx context.Context, id string) (*model.Store, error) {
	return readThrough(ctx, s.store, KeyStores+":"+id, s.ttl, func() (*model.Store, error) {
		return s.backend.GetStore(ctx, id)
	})
}

func (s *directoryService) ListStores(ctx context.Context) ([]model.Store, error) {
	return readThrough(ctx, s.store, KeyStores, s.ttl, func() ([]model.Store, error) {
		return s.backend.ListStores(ctx)
	})
}

func (s *directoryService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return readThrough(ctx, s.store, KeyProducts+":"+id, s.ttl, func() (*model.Product, error) {
		return s.backend.GetProduct(ctx, id)
	})
}

func (s *directoryService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return readThrough(ctx, s.store, KeyProducts, s.ttl, func() ([]model.Product, error) {
		return s.backend.ListProducts(ctx)
	})
}

func (s *directoryService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return readThrough(ctx, s.store, KeyUsers+":"+id, s.ttl, func() (*model.User, error) {
		return s.backend.GetUser(ctx, id)
	})
}

func (s *directoryService) ListUsers(ctx context.Context) ([]model.User, error) {
	return readThrough(ctx, s.store, KeyUsers, s.ttl, func() ([]model.User, error) {
		return s.backend.ListUsers(ctx)
	})
}

func (s *directoryService) LatestPrice(ctx context.Context, productID string) (*model.PriceHistory, error) {
	return readThrough(ctx, s.store, KeyPrices+":"+productID, s.priceTTL, func() (*model.PriceHistory, error) {
		return s.backend.LatestPrice(ctx, productID, s.now())
	})
}

func (s *directoryService) Invalidate(ctx context.Context, resource string, id string) error {
	ns, ok := DirectoryNamespace(resource)
	if !ok {
		return nil
	}
	if id == "" || ns == KeyPrices {
		return s.store.DeletePrefix(ctx, ns)
	}
	return s.store.Delete(ctx, ns, ns+":"+id)
}

// readThrough serves key from the cache or loads and caches it. Cache errors
// fall through to the backend; backend errors are never cached.
func readThrough[T any](ctx context.Context, store cache.Store, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	found, err := store.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("directory: cache read %s: %v", key, err)
	} else if found {
		return cached, nil
	}

	v, err := load()
	if err != nil {
		var zero T
		if errors.Is(err, gateway.ErrNotFound) {
			return zero, err
		}
		return zero, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := store.Set(ctx, key, v, ttl); err != nil {
		log.Printf("directory: cache write %s: %v", key, err)
	}
	return v, nil
}
