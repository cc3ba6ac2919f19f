package geocode

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/klog/v2"

	"macrobrief/internal/model"
)

const defaultCacheSize = 256

// CachedResolver memoizes successful resolutions in memory for the lifetime
// of the process. Failures are never cached.
type CachedResolver struct {
	next  Resolver
	cache *lru.Cache[string, model.CountryCode]
}

func NewCachedResolver(next Resolver, size int) (*CachedResolver, error) {
	if next == nil {
		return nil, fmt.Errorf("geocode: resolver is required")
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, model.CountryCode](size)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	return &CachedResolver{next: next, cache: cache}, nil
}

func (c *CachedResolver) Resolve(ctx context.Context, address string) (model.CountryCode, error) {
	key := NormalizeKey(address)
	if key == "" {
		return c.next.Resolve(ctx, address)
	}
	if code, ok := c.cache.Get(key); ok {
		klog.FromContext(ctx).V(2).Info("geocode cache hit", "address", address, "country", code)
		return code, nil
	}

	code, err := c.next.Resolve(ctx, address)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, code)
	return code, nil
}

func (c *CachedResolver) Len() int {
	return c.cache.Len()
}
