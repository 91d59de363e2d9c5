package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := "stats:abc"

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("fresh cache should miss cleanly, hit=%v err=%v", hit, err)
	}

	want := []byte("payload")
	if err := c.Set(ctx, key, want, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("expected hit, hit=%v err=%v", hit, err)
	}
	if string(got) != string(want) {
		t.Errorf("Get = %q, want %q", got, want)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("expired entry should miss, hit=%v err=%v", hit, err)
	}
}

func TestFileCacheDeleteMissingKey(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	defer c.Close()

	if err := c.Delete(context.Background(), "never-set"); err != nil {
		t.Errorf("deleting a missing key should be a no-op, got %v", err)
	}
}

func TestFileCachePurge(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	c := fc.(*FileCache)

	ctx := context.Background()
	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Purge(); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("purged cache should miss")
	}
}

func TestNullCacheNeverStores(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("null cache must always miss, hit=%v err=%v", hit, err)
	}
}

func TestDefaultKeyerStability(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.StatsKey("hash1")
	b := k.StatsKey("hash1")
	if a != b {
		t.Error("same input must produce the same key")
	}
	if a == k.StatsKey("hash2") {
		t.Error("different documents must produce different keys")
	}
	if a == k.DocumentKey("hash1") {
		t.Error("different artifact kinds must not collide")
	}
	if !strings.HasPrefix(a, "stats:") {
		t.Errorf("key %q missing kind prefix", a)
	}
}

func TestLayoutKeyIncludesResolution(t *testing.T) {
	k := NewDefaultKeyer()
	a := k.LayoutKey("h", LayoutKeyOpts{Width: 1920, Height: 1080})
	b := k.LayoutKey("h", LayoutKeyOpts{Width: 1280, Height: 720})
	if a == b {
		t.Error("layout keys at different resolutions must differ")
	}
}

func TestScopedKeyerPrefixes(t *testing.T) {
	k := NewScopedKeyer(nil, "repo:acme:")
	key := k.ChartKey("h")
	if !strings.HasPrefix(key, "repo:acme:chart:") {
		t.Errorf("scoped key = %q, want repo:acme:chart: prefix", key)
	}
}

func TestHashIsHexSHA256(t *testing.T) {
	h := Hash([]byte("abc"))
	if len(h) != 64 {
		t.Errorf("hash length = %d, want 64", len(h))
	}
	if h != Hash([]byte("abc")) {
		t.Error("hash must be deterministic")
	}
}
