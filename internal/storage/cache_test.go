package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LJTian/DigestHub/internal/collector"
	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	c := NewCache(mr.Addr(), ttl)
	t.Cleanup(func() {
		_ = c.Close()
		mr.Close()
	})
	return c, mr
}

func TestCacheGetSet(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set(ctx, "k", []byte("v"))
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("entry should expire after TTL")
	}
}

func TestCacheDefaultTTL(t *testing.T) {
	c, mr := newTestCache(t, 0)
	c.Set(context.Background(), "k", []byte("v"))
	if ttl := mr.TTL("k"); ttl != defaultCacheTTL {
		t.Fatalf("TTL = %v, want %v", ttl, defaultCacheTTL)
	}
}

func TestCacheUnavailableIsMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Set(ctx, "k", []byte("v"))
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("unavailable redis should be a miss")
	}
}

func TestCacheBacksHTTPClient(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer srv.Close()

	client := collector.NewHTTPClient(5*time.Second, 0, c)
	for i := 0; i < 3; i++ {
		body, err := client.Get(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if string(body) != "<rss/>" {
			t.Fatalf("unexpected body %q", body)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("redis cache should absorb repeat requests, hits = %d", got)
	}
}
