// Package cache provides the byte cache behind render memoization.
//
// Render output is a pure function of (template id, template version,
// resolved view, surface), so cached scenes never need explicit
// invalidation: committing a template bumps its version and every later
// lookup uses a new key. TTLs only bound storage.
//
// Backends:
//   - [NullCache]: caching disabled
//   - [MemoryCache]: in-process, for the HTTP server and tests
//   - [FileCache]: on disk, for the CLI
//   - [RedisCache]: shared between server instances
package cache

import (
	"context"
	"strconv"
	"time"
)

// Cache is a byte store with per-entry TTL. A miss is (nil, false, nil);
// errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default TTLs per entry kind.
const (
	TTLScene    = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// SceneKey keys a rendered SceneGraph.
	SceneKey(opts SceneKeyOpts) string
	// ArtifactKey keys an encoded output of a scene identified by its hash.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// SceneKeyOpts identifies one render.
type SceneKeyOpts struct {
	TemplateID string  `json:"template_id"`
	Version    int     `json:"version"`
	ViewHash   string  `json:"view_hash"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PixelRatio float64 `json:"pixel_ratio"`
}

// ArtifactKeyOpts identifies one encoding of a scene.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	HitRegions bool    `json:"hit_regions,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces "scene:<template>:v<version>:<hash>" and
// "artifact:<format>:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey implements Keyer.
func (DefaultKeyer) SceneKey(opts SceneKeyOpts) string {
	return hashKey("scene:"+opts.TemplateID+":v"+strconv.Itoa(opts.Version), opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, sceneHash, opts)
}

var _ Keyer = DefaultKeyer{}
