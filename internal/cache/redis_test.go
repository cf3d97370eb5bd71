// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("DREAMCRAFTS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: DREAMCRAFTS_TEST_REDIS_URL not set")
	}
	return url
}

func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	opts := DefaultRedisCacheOptions()
	opts.URL = skipIfNoRedis(t)
	opts.Prefix = "dreamcrafts-test:"
	opts.DefaultTTL = time.Minute

	c, err := NewRedisCache(opts)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestRedisCache_Basic(t *testing.T) {
	cache := newTestRedis(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := cache.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if has, _ := cache.Has(ctx, "k"); !has {
		t.Error("Has = false after Set")
	}
	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
	if err := cache.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRedisCache_Clear(t *testing.T) {
	cache := newTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		_ = cache.Set(ctx, k, []byte(k), 0)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if has, _ := cache.Has(ctx, k); has {
			t.Errorf("key %q survived Clear", k)
		}
	}
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(RedisCacheOptions{}); err == nil {
		t.Error("expected error without URL")
	}
	if _, err := NewRedisCache(RedisCacheOptions{URL: "not a url"}); err == nil {
		t.Error("expected error for malformed URL")
	}
}
