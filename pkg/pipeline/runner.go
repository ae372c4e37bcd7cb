package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/card"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/observability"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/render/sink"
	"github.com/matzehuels/cardsmith/pkg/store"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// Runner executes the pipeline against a template store and a cache.
//
// The Runner holds no per-request state. Multiple goroutines can safely
// use the same Runner with different options.
type Runner struct {
	Store  store.Store
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-kind cache TTLs when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil store is an empty [store.MemoryStore],
// a nil cache disables caching, and a nil keyer is [cache.DefaultKeyer].
func NewRunner(s store.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if s == nil {
		s, _ = store.NewMemoryStore()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: s, Cache: c, Keyer: keyer, Logger: logger}
}

// Execute renders one card: load the template, resolve the card against
// the owner profile, lay out the scene and encode it. A missing or broken
// template is not an error; the default template is rendered instead and
// Result.DefaultUsed is set.
func (r *Runner) Execute(ctx context.Context, opts Options, c, owner card.Record) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	opts.Logger.Debug("render", "request", opts.String())

	result := &Result{}

	loadStart := time.Now()
	result.Template, result.DefaultUsed = r.LoadTemplate(ctx, opts, c)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnTemplateLoad(ctx, result.Template.ID, result.Template.Version, result.DefaultUsed, result.Stats.LoadTime)

	result.View = card.Resolve(c, owner)

	sceneStart := time.Now()
	scene, sceneHit, err := r.SceneWithCacheInfo(ctx, result.Template, result.View, opts)
	result.Stats.SceneTime = time.Since(sceneStart)
	observability.Pipeline().OnSceneComplete(ctx, result.Template.ID, len(scene.Nodes), len(scene.Warnings), result.Stats.SceneTime, err)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	result.Scene = scene
	result.Stats.NodeCount = len(scene.Nodes)
	result.Stats.WarningCount = len(scene.Warnings)
	result.CacheInfo.SceneHit = sceneHit

	for _, w := range scene.Warnings {
		opts.Logger.Warn("unresolved binding", "template", result.Template.ID, "element", w.ElementID, "key", w.Key)
	}

	artifactStart := time.Now()
	hash, artifacts, artifactHit, err := r.ArtifactsWithCacheInfo(ctx, scene, opts)
	result.Stats.ArtifactTime = time.Since(artifactStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.ArtifactTime, err)
	if err != nil {
		return nil, err
	}
	result.SceneHash = hash
	result.Artifacts = artifacts
	result.CacheInfo.ArtifactHit = artifactHit

	opts.Logger.Info("rendered card",
		"template", result.Template.ID,
		"version", result.Template.Version,
		"surface", opts.Surface.String(),
		"nodes", result.Stats.NodeCount,
		"formats", opts.Formats,
		"cached", sceneHit && artifactHit)

	return result, nil
}

// LoadTemplate picks the template to render: the inline template if set,
// else the stored template named by opts or by the card. When nothing is
// named, or the lookup fails for any reason, it returns [template.Default]
// and true.
func (r *Runner) LoadTemplate(ctx context.Context, opts Options, c card.Record) (template.Template, bool) {
	r.applyLogger(&opts)
	if opts.Template != nil {
		return opts.Template.Clone(), false
	}

	id := opts.TemplateID
	if id == "" {
		id = c.TemplateID()
	}
	if id == "" {
		opts.Logger.Debug("no template requested, using default")
		return template.Default(), true
	}

	var (
		t   template.Template
		err error
	)
	if opts.Version > 0 {
		t, err = r.Store.GetVersion(ctx, id, opts.Version)
	} else {
		t, err = r.Store.Get(ctx, id)
	}
	if err != nil {
		if errors.IsNotFound(err) {
			opts.Logger.Warn("template not found, using default", "template", id, "version", opts.Version)
		} else {
			opts.Logger.Warn("template failed to load, using default", "template", id, "err", err)
		}
		return template.Default(), true
	}
	return t, false
}

// SceneWithCacheInfo lays out t for view, memoized under the scene key.
func (r *Runner) SceneWithCacheInfo(ctx context.Context, t template.Template, view card.View, opts Options) (render.Scene, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return render.Scene{}, false, err
	}

	hooks := observability.Cache()
	key := r.Keyer.SceneKey(opts.SceneKeyOpts(t, view))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if scene, err := sink.ReadJSON(data); err == nil {
				hooks.OnCacheHit(ctx, observability.KeyTypeScene)
				return scene, true, nil
			}
			// Undecodable entry: recompute and overwrite.
		} else if err != nil {
			opts.Logger.Debug("scene cache read failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, observability.KeyTypeScene)
	}

	scene, err := render.Render(t, view, opts.Surface)
	if err != nil {
		return render.Scene{}, false, err
	}

	if data, err := sink.RenderJSON(scene); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLScene)); err != nil {
			opts.Logger.Debug("scene cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, observability.KeyTypeScene, len(data))
		}
	}
	return scene, false, nil
}

// ArtifactsWithCacheInfo encodes scene in every requested format, reusing
// cached encodings. It returns the scene hash the artifacts are keyed by.
func (r *Runner) ArtifactsWithCacheInfo(ctx context.Context, scene render.Scene, opts Options) (string, map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", nil, false, err
	}

	encoded, err := sink.RenderJSON(scene)
	if err != nil {
		return "", nil, false, fmt.Errorf("serialize scene for cache key: %w", err)
	}
	hash := cache.Hash(encoded)

	hooks := observability.Cache()
	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, observability.KeyTypeArtifact)
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, observability.KeyTypeArtifact)
		}
		allHit = false

		data, err := RenderFormat(scene, format, opts)
		if err != nil {
			return "", nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err == nil {
			hooks.OnCacheSet(ctx, observability.KeyTypeArtifact, len(data))
		}
	}
	return hash, artifacts, allHit, nil
}

// Close releases the store and the cache.
func (r *Runner) Close() error {
	var first error
	if r.Store != nil {
		first = r.Store.Close()
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
