// Package cli implements the cardsmith command-line interface.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardsmith/internal/config"
	"github.com/matzehuels/cardsmith/pkg/buildinfo"
	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/pipeline"
	"github.com/matzehuels/cardsmith/pkg/session"
	"github.com/matzehuels/cardsmith/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// backendDialTimeout bounds connecting to redis or mongo.
const backendDialTimeout = 10 * time.Second

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     config.Config
}

// New creates a new CLI instance with a default logger and default config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The config file is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cardsmith",
		Short:        "Cardsmith renders visiting cards from versioned templates",
		Long:         `Cardsmith lays out card data on versioned design templates and renders the result as SVG, PNG or a JSON scene graph. It manages the template store and serves the same pipeline over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cardsmith/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Backends
// =============================================================================

// openStore opens the configured template store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	if c.config.Store.Backend != config.BackendMongo {
		return c.config.Store.OpenStore(ctx)
	}
	return dial(ctx, "template store", c.config.Store.OpenStore)
}

// openCache opens the configured cache, or a null cache when noCache is set.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.config.Cache.Backend != config.BackendRedis {
		return c.config.Cache.OpenCache(ctx)
	}
	return dial(ctx, "cache", c.config.Cache.OpenCache)
}

// openDrafts opens the configured draft session store.
func (c *CLI) openDrafts(ctx context.Context) (session.Store, error) {
	if c.config.Drafts.Backend != config.BackendRedis {
		return c.config.Drafts.OpenSessions(ctx)
	}
	return dial(ctx, "draft store", c.config.Drafts.OpenSessions)
}

// dial runs open for a remote backend under a spinner and a timeout.
func dial[T any](ctx context.Context, what string, open func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, backendDialTimeout)
	defer cancel()

	spinner := newSpinnerWithContext(ctx, "Connecting to "+what+"...")
	spinner.Start()
	v, err := open(ctx)
	spinner.Stop()
	if err != nil && spinner.Cancelled() {
		var zero T
		return zero, errors.Wrap(errors.ErrCodeNetwork, err, "connect to %s: gave up after %s", what, backendDialTimeout)
	}
	return v, err
}

// newRunner creates a pipeline runner over the configured backends.
// Callers must Close it.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	s, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		s.Close()
		return nil, err
	}
	r := pipeline.NewRunner(s, cc, c.config.Cache.Keyer(), c.Logger)
	r.TTL = time.Duration(c.config.Cache.TTL)
	return r, nil
}
