package cloud

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	log "github.com/sirupsen/logrus"
)

// ConfigLoader resolves an aws.Config for a region. The default loader reads
// the ambient credential chain; tests inject their own.
type ConfigLoader func(ctx context.Context, region string) (aws.Config, error)

func defaultLoader(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

type credentialEntry struct {
	cfg       aws.Config
	timestamp time.Time
}

// CredentialCache holds resolved per-region cloud configurations with TTL.
// It is the process-wide credential state the pipeline invalidates before a
// user-initiated retry: credentials may have been rotated externally, and a
// stale cached config would keep failing until the TTL lapsed.
type CredentialCache struct {
	mu     sync.Mutex
	cache  map[string]*credentialEntry
	ttl    time.Duration
	loader ConfigLoader
}

// NewCredentialCache creates a credential cache with the given TTL. A nil
// loader uses the default AWS credential chain.
func NewCredentialCache(ttl time.Duration, loader ConfigLoader) *CredentialCache {
	if loader == nil {
		loader = defaultLoader
	}
	return &CredentialCache{
		cache:  make(map[string]*credentialEntry),
		ttl:    ttl,
		loader: loader,
	}
}

// Get returns a cached config for the region, loading and caching one if the
// entry is missing or expired.
func (c *CredentialCache) Get(ctx context.Context, region string) (aws.Config, error) {
	c.mu.Lock()
	entry, ok := c.cache[region]
	c.mu.Unlock()

	if ok && time.Since(entry.timestamp) <= c.ttl {
		return entry.cfg, nil
	}

	cfg, err := c.loader(ctx, region)
	if err != nil {
		return aws.Config{}, err
	}

	c.mu.Lock()
	c.cache[region] = &credentialEntry{cfg: cfg, timestamp: time.Now()}
	c.mu.Unlock()

	return cfg, nil
}

// Clear drops every cached entry so the next Get re-resolves credentials
// from the environment.
func (c *CredentialCache) Clear() {
	c.mu.Lock()
	n := len(c.cache)
	c.cache = make(map[string]*credentialEntry)
	c.mu.Unlock()

	if n > 0 {
		log.Debugf("cleared %d cached cloud credential entries", n)
	}
}
