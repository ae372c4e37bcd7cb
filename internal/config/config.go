// Package config loads cardsmith settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/cardsmith/config.toml (or the path
// given with --config). A missing default file means defaults; command
// line flags override whatever the file says.
//
//	[cache]
//	backend = "redis"          # none | file | redis
//	redis_url = "redis://localhost:6379/0"
//	ttl = "72h"
//	namespace = "staging:"     # key prefix when deployments share a redis
//
//	[store]
//	backend = "mongo"          # memory | file | mongo
//	mongo_uri = "mongodb://localhost:27017"
//	database = "cardsmith"
//
//	[server]
//	addr = ":8080"
//
//	[render]
//	preset = "public"
//
//	[drafts]
//	backend = "redis"          # memory | file | redis
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
package config

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/session"
	"github.com/matzehuels/cardsmith/pkg/store"
)

// AppName names the per-user config, cache and data directories.
const AppName = "cardsmith"

// Backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// DefaultAddr is the HTTP listen address when none is configured.
const DefaultAddr = ":8080"

// Config is the whole configuration file.
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
	Drafts DraftsConfig `toml:"drafts"`
}

// CacheConfig selects the render cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisURL  string   `toml:"redis_url"`
	TTL       Duration `toml:"ttl"`
	Namespace string   `toml:"namespace"`
}

// StoreConfig selects the template store.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// ServerConfig configures "cardsmith serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Preset string `toml:"preset"`
}

// DraftsConfig selects where the server parks builder drafts.
type DraftsConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// Duration is a time.Duration written as "90s" or "72h" in TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache:  CacheConfig{Backend: BackendFile, Dir: CacheDir()},
		Store:  StoreConfig{Backend: BackendFile, Dir: filepath.Join(DataDir(), "templates"), Database: store.DefaultMongoDatabase},
		Server: ServerConfig{Addr: DefaultAddr},
		Render: RenderConfig{Preset: render.PresetBuilder},
		Drafts: DraftsConfig{Backend: BackendMemory, Dir: filepath.Join(DataDir(), "drafts"), TTL: Duration(session.DefaultTTL)},
	}
}

// Load reads the file at path on top of [Default]. An empty path means
// [DefaultPath], which may be absent; an explicit path must exist.
// Unknown keys are rejected so typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case !explicit && stderrors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "%s: unknown key(s): %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return cfg, nil
}

// Validate checks backend names and the settings each backend needs.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q is not one of none, file, redis", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}

	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "store.backend %q is not one of memory, file, mongo", c.Store.Backend)
	}

	switch c.Drafts.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Drafts.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "drafts.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "drafts.backend %q is not one of memory, file, redis", c.Drafts.Backend)
	}
	if c.Drafts.TTL <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "drafts.ttl must be positive")
	}

	if _, err := render.Preset(c.Render.Preset); err != nil {
		return err
	}
	return nil
}

// OpenCache builds the configured cache.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.RedisURL, "")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "open redis cache")
		}
		return rc, nil
	}

	dir := c.Dir
	if dir == "" {
		dir = CacheDir()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// Keyer returns the cache key scheme: the default keys, prefixed with
// Namespace when one is set.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Namespace == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Namespace)
}

// OpenStore builds the configured template store.
func (c StoreConfig) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Backend {
	case BackendMemory:
		ms, _ := store.NewMemoryStore()
		return ms, nil
	case BackendMongo:
		ms, err := store.NewMongoStore(ctx, c.MongoURI, c.Database)
		if err != nil {
			return nil, err
		}
		return ms, nil
	}

	dir := c.Dir
	if dir == "" {
		dir = filepath.Join(DataDir(), "templates")
	}
	fs, err := store.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// OpenSessions builds the configured draft session store.
func (c DraftsConfig) OpenSessions(ctx context.Context) (session.Store, error) {
	switch c.Backend {
	case BackendMemory:
		return session.NewMemoryStore(), nil
	case BackendRedis:
		rs, err := session.NewRedisStore(ctx, c.RedisURL)
		if err != nil {
			return nil, err
		}
		return rs, nil
	}

	dir := c.Dir
	if dir == "" {
		dir = filepath.Join(DataDir(), "drafts")
	}
	fs, err := session.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns $XDG_CONFIG_HOME/cardsmith/config.toml.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.toml")
}

// CacheDir returns the cache directory (~/.cache/cardsmith/).
func CacheDir() string { return xdgDir("XDG_CACHE_HOME", ".cache") }

// DataDir returns the data directory (~/.local/share/cardsmith/).
func DataDir() string { return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")) }

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback, AppName)
}
