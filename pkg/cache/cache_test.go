package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "snapshot:a"); hit {
		t.Fatal("empty cache reported a hit")
	}

	value := []byte("<svg/>")
	if err := c.Set(ctx, "snapshot:a", value, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	value[0] = 'X'

	data, hit, err := c.Get(ctx, "snapshot:a")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v", hit, err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("Get returned %q; Set must copy its input", data)
	}

	if err := c.Delete(ctx, "snapshot:a"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "snapshot:a"); hit {
		t.Error("deleted key still present")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Unix(0, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("1"), time.Minute)
	_ = c.Set(ctx, "long", []byte("2"), time.Hour)
	_ = c.Set(ctx, "forever", []byte("3"), 0)

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "long"); !hit {
		t.Error("live entry missing")
	}

	now = now.Add(24 * time.Hour)
	if n := c.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	_ = c.Set(ctx, "view:1:snapshot:a", nil, 0)
	_ = c.Set(ctx, "view:1:snapshot:b", nil, 0)
	_ = c.Set(ctx, "view:2:snapshot:a", nil, 0)

	if n := c.DeletePrefix("view:1:"); n != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "snapshot:x", []byte("png bytes"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "snapshot:x")
	if err != nil || !hit || string(data) != "png bytes" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "snapshot:x"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "snapshot:x"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "snapshot:x"); hit {
		t.Error("deleted key still present")
	}
}

func TestFileCacheExpiryAndClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q", c.Dir())
	}

	if err := c.Set(ctx, "snapshot:old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "snapshot:old"); hit {
		t.Error("expired entry returned")
	}

	for _, k := range []string{"snapshot:a", "snapshot:b", "layout:c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "snapshot:a"); hit {
		t.Error("entry survived Clear")
	}
	if shards, _ := os.ReadDir(dir); len(shards) != 0 {
		t.Errorf("%d shard dirs left after Clear", len(shards))
	}
}

func TestFileCacheForeignEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// A file at a key's path that was written for another key is a miss.
	path := c.path("snapshot:a")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"key":"snapshot:b","data":"eA=="}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "snapshot:a"); hit {
		t.Error("entry for another key returned")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("foreign entry should be removed")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("items123", LayoutKeyOpts{RadiusX: 60, RadiusY: 40})
	lk2 := k.LayoutKey("items123", LayoutKeyOpts{RadiusX: 80, RadiusY: 40})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey unexpected: %s", lk1)
	}

	opts := SnapshotKeyOpts{Zoom: 1, Width: 1000, Height: 800, Format: "svg"}
	sk1 := k.SnapshotKey(lk1, opts)
	if k.SnapshotKey(lk1, opts) != sk1 {
		t.Error("SnapshotKey should be deterministic")
	}
	opts.Selected = "harbour"
	if k.SnapshotKey(lk1, opts) == sk1 {
		t.Error("selection should change the snapshot key")
	}

	// Same geometry, different content: only the item digest differs.
	type entry struct{ ID, URL string }
	a := opts
	a.Items = HashJSON([]entry{{"harbour", "https://cdn.example.com/harbour.jpg"}})
	b := opts
	b.Items = HashJSON([]entry{{"harbour", "https://cdn.example.com/harbour-v2.jpg"}})
	if k.SnapshotKey(lk1, a) == k.SnapshotKey(lk1, b) {
		t.Error("item content should change the snapshot key")
	}
	b.Items = a.Items
	b.Options = HashJSON(map[string]float64{"unit_to_pixel": 20})
	if k.SnapshotKey(lk1, a) == k.SnapshotKey(lk1, b) {
		t.Error("gallery options should change the snapshot key")
	}
}

func TestHashJSON(t *testing.T) {
	if HashJSON([]string{"a"}) != Hash([]byte(`["a"]`)) {
		t.Error("HashJSON should digest the JSON encoding")
	}
	if HashJSON(map[string]int{"x": 1}) == HashJSON(map[string]int{"x": 2}) {
		t.Error("different values should produce different digests")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "view:123:")

	key := scoped.SnapshotKey("layout:abc", SnapshotKeyOpts{Format: "png"})
	if !strings.HasPrefix(key, "view:123:snapshot:") {
		t.Errorf("ScopedKeyer SnapshotKey should be prefixed: %s", key)
	}
	if keyType(key) != "snapshot" {
		t.Errorf("keyType(%q) = %q", key, keyType(key))
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.LayoutKey("items", LayoutKeyOpts{})
	if !strings.HasPrefix(key, "prefix:layout:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
