package cloud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// countingLoader is a ConfigLoader that records invocations.
type countingLoader struct {
	calls int
	err   error
}

func (l *countingLoader) load(ctx context.Context, region string) (aws.Config, error) {
	l.calls++
	return aws.Config{Region: region}, l.err
}

func TestCredentialCacheReusesEntry(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCredentialCache(5*time.Minute, loader.load)

	ctx := context.Background()

	cfg, err := cache.Get(ctx, "us-east-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if cfg.Region != "us-east-1" {
		t.Errorf("unexpected region %q", cfg.Region)
	}
	if loader.calls != 1 {
		t.Fatalf("expected 1 load, got %d", loader.calls)
	}

	if _, err := cache.Get(ctx, "us-east-1"); err != nil {
		t.Fatalf("cached Get returned error: %v", err)
	}
	if loader.calls != 1 {
		t.Errorf("expected cache hit, got %d loads", loader.calls)
	}

	// A different region loads separately.
	if _, err := cache.Get(ctx, "eu-west-1"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loader.calls != 2 {
		t.Errorf("expected 2 loads after second region, got %d", loader.calls)
	}
}

func TestCredentialCacheClearForcesReload(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCredentialCache(5*time.Minute, loader.load)

	ctx := context.Background()
	if _, err := cache.Get(ctx, "us-east-1"); err != nil {
		t.Fatal(err)
	}

	cache.Clear()

	if _, err := cache.Get(ctx, "us-east-1"); err != nil {
		t.Fatal(err)
	}
	if loader.calls != 2 {
		t.Errorf("expected reload after Clear, got %d loads", loader.calls)
	}
}

func TestCredentialCacheTTLExpiry(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCredentialCache(1*time.Nanosecond, loader.load)

	ctx := context.Background()
	if _, err := cache.Get(ctx, "us-east-1"); err != nil {
		t.Fatal(err)
	}

	// Sleep long enough for TTL to expire.
	time.Sleep(2 * time.Nanosecond)

	if _, err := cache.Get(ctx, "us-east-1"); err != nil {
		t.Fatal(err)
	}
	if loader.calls != 2 {
		t.Errorf("expected reload after TTL expiry, got %d loads", loader.calls)
	}
}

func TestCredentialCacheLoaderError(t *testing.T) {
	loader := &countingLoader{err: errors.New("no valid providers in chain")}
	cache := NewCredentialCache(5*time.Minute, loader.load)

	if _, err := cache.Get(context.Background(), "us-east-1"); err == nil {
		t.Fatal("expected loader error to propagate")
	}

	// Failed loads are not cached.
	loader.err = nil
	if _, err := cache.Get(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("Get after loader recovery returned error: %v", err)
	}
	if loader.calls != 2 {
		t.Errorf("expected 2 loads, got %d", loader.calls)
	}
}
