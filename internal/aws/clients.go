package aws

import (
	"context"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
)

// ClientCache builds a service client from shared AWS config and reuses it
// per (profile, region). Replaces ad-hoc global client handles: one cache per
// client type, owned by the toolset that uses it.
type ClientCache[T any] struct {
	build   func(sdkaws.Config) T
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	client T
	region string
}

func NewClientCache[T any](build func(sdkaws.Config) T) *ClientCache[T] {
	return &ClientCache[T]{build: build, entries: map[string]cacheEntry[T]{}}
}

// Get returns the cached client for the region, constructing it on first
// use. The second return value is the region the client is bound to after
// default resolution.
func (c *ClientCache[T]) Get(ctx context.Context, region string) (T, string, error) {
	key := CacheKey(region)
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return entry.client, entry.region, nil
	}
	c.mu.Unlock()

	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		var zero T
		return zero, "", err
	}
	client := c.build(cfg)
	usedRegion := strings.TrimSpace(cfg.Region)
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{client: client, region: usedRegion}
	c.mu.Unlock()
	return client, usedRegion, nil
}

// CacheKey identifies a client slot by resolved profile and region.
func CacheKey(region string) string {
	key := ResolveRegion(region)
	if key == "" {
		key = "default"
	}
	if profile := ResolveProfile(); profile != "" {
		key = strings.TrimSpace(profile) + "|" + key
	}
	return key
}
