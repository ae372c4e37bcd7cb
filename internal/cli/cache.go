package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardsmith/internal/config"
	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached scene and artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.config.Cache.Backend == config.BackendNone {
				printInfo("Caching is disabled")
				return nil
			}

			cc, err := c.openCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				return errors.New(errors.ErrCodeUnsupported, "%s cache cannot be cleared", c.config.Cache.Backend)
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %s cache", c.config.Cache.Backend)
			if fc, ok := cc.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config.Cache
			switch cfg.Backend {
			case config.BackendNone:
				printInfo("Caching is disabled")
			case config.BackendRedis:
				printKeyValue("redis", cfg.RedisURL)
			default:
				dir := cfg.Dir
				if dir == "" {
					dir = config.CacheDir()
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	}
}
