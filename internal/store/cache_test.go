package store

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCache_RoundTrip(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer c.Close()

	url := "https://api.github.com/orgs/fs-ise/repos"
	if _, ok := c.Get(url, time.Hour); ok {
		t.Fatal("Get() on empty cache should miss")
	}

	if err := c.Put(url, []byte(`[{"name":"handbook"}]`)); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	body, ok := c.Get(url, time.Hour)
	if !ok {
		t.Fatal("Get() after Put() should hit")
	}
	if string(body) != `[{"name":"handbook"}]` {
		t.Errorf("Get() body = %s", body)
	}

	// Replace on conflict.
	if err := c.Put(url, []byte(`[]`)); err != nil {
		t.Fatalf("Put() replace error: %v", err)
	}
	body, _ = c.Get(url, time.Hour)
	if string(body) != `[]` {
		t.Errorf("Get() after replace = %s", body)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer c.Close()

	if err := c.Put("u", []byte("x")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	// A zero max age makes every entry stale.
	if _, ok := c.Get("u", 0); ok {
		t.Error("Get() with zero TTL should miss")
	}
	if _, ok := c.Get("u", time.Hour); !ok {
		t.Error("Get() within TTL should hit")
	}
}

func TestCache_Prune(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer c.Close()

	if err := c.Put("u", []byte("x")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := c.Prune(0); err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if _, ok := c.Get("u", time.Hour); ok {
		t.Error("entry should be gone after Prune(0)")
	}
}
