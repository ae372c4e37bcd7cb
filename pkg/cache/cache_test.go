package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// exerciseCache runs the Cache contract against c.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	// Callers may mutate returned data.
	data[0] = 'x'
	if again, _, _ := c.Get(ctx, "k"); string(again) != "v1" {
		t.Errorf("cache returned aliased data: %q", again)
	}

	if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("after overwrite Get = %q, want v2", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete(never-set) = %v, want nil", err)
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "key"); hit || data != nil || err != nil {
		t.Errorf("NullCache.Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(0))
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	exerciseCache(t, c)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(10)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("a"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("b"), 0)

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without TTL should not expire")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(2)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "soon", []byte("1"), time.Minute)
	_ = c.Set(ctx, "later", []byte("2"), time.Hour)
	_ = c.Set(ctx, "new", []byte("3"), time.Hour)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "soon"); hit {
		t.Error("entry expiring soonest should be evicted")
	}
	for _, k := range []string{"later", "new"} {
		if _, hit, _ := c.Get(ctx, k); !hit {
			t.Errorf("%s should survive eviction", k)
		}
	}

	if err := c.Clear(ctx); err != nil || c.Len() != 0 {
		t.Errorf("Clear() = %v, Len() = %d", err, c.Len())
	}
}

func TestFileCacheExpiryAndCorruption(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_ = c.Set(ctx, "gone", []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "gone"); hit {
		t.Error("expired file entry should miss")
	}

	_ = c.Set(ctx, "bad", []byte("x"), 0)
	if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want a clean miss", hit, err)
	}
	if _, err := os.Stat(c.path("bad")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache root should survive Clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := SceneKeyOpts{TemplateID: "modern", Version: 3, ViewHash: "abc", Width: 400, Height: 300, PixelRatio: 1}

	key := k.SceneKey(base)
	if !strings.HasPrefix(key, "scene:modern:v3:") {
		t.Errorf("SceneKey = %q, want scene:modern:v3: prefix", key)
	}
	if key != k.SceneKey(base) {
		t.Error("SceneKey should be deterministic")
	}

	variants := []func(*SceneKeyOpts){
		func(o *SceneKeyOpts) { o.Version = 4 },
		func(o *SceneKeyOpts) { o.ViewHash = "def" },
		func(o *SceneKeyOpts) { o.Width = 800 },
		func(o *SceneKeyOpts) { o.PixelRatio = 2 },
	}
	for i, mutate := range variants {
		o := base
		mutate(&o)
		if k.SceneKey(o) == key {
			t.Errorf("variant %d produced the same key", i)
		}
	}

	svg := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if svg == k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", HitRegions: true}) {
		t.Error("hit regions should change the artifact key")
	}
	if !strings.HasPrefix(svg, "artifact:svg:") {
		t.Errorf("ArtifactKey = %q", svg)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "tenant:1:")
	opts := SceneKeyOpts{TemplateID: "a", Version: 1}

	if got, want := scoped.SceneKey(opts), "tenant:1:"+NewDefaultKeyer().SceneKey(opts); got != want {
		t.Errorf("SceneKey = %q, want %q", got, want)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "png"}); !strings.HasPrefix(got, "tenant:1:artifact:png:") {
		t.Errorf("ArtifactKey = %q", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("Retryable(ErrNetwork) = %v", err)
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("message not preserved: %s", err)
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	fast := Backoff{Attempts: 3, Delay: time.Millisecond}
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, nil, 1, false},
		{"non-retryable stops", 5, permanent, 1, true},
		{"recovers", 1, Retryable(ErrNetwork), 2, false},
		{"gives up", 5, Retryable(ErrNetwork), 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, fast, func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, Backoff{Attempts: 3, Delay: time.Hour}, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not a url", ""); err == nil {
		t.Error("NewRedisCache should reject a malformed URL")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client, "")
	defer c.Close()

	_, hit, err := c.Get(context.Background(), "k")
	if hit || !errors.Is(err, ErrNetwork) || !IsRetryable(err) {
		t.Errorf("Get on unreachable redis = hit %v, err %v; want retryable network error", hit, err)
	}
	if c.prefix != DefaultRedisPrefix {
		t.Errorf("prefix = %q, want default", c.prefix)
	}
}
