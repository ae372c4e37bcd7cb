package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cardsmith/internal/server"
	"github.com/matzehuels/cardsmith/pkg/session"
)

// draftCleanupInterval is how often expired draft sessions are swept.
const draftCleanupInterval = 15 * time.Minute

// serveCommand runs the HTTP render API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render and template API over HTTP",
		Long: `Serve exposes the template store and the render pipeline over HTTP:

  GET  /healthz
  GET  /api/v1/templates
  GET  /api/v1/templates/{id}
  PUT  /api/v1/templates/{id}
  POST /api/v1/templates/validate
  POST /api/v1/render
  POST /api/v1/drafts  (and /api/v1/drafts/{sid}/... for builder edits)

Builder drafts are parked in the [drafts] backend from the config file and
expire after drafts.ttl without edits.

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config.Server.Addr
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			drafts, err := c.openDrafts(cmd.Context())
			if err != nil {
				return err
			}
			defer drafts.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go sweepDrafts(ctx, drafts, draftCleanupInterval, c.Logger)

			srv := server.New(runner, c.Logger,
				server.WithPreset(c.config.Render.Preset),
				server.WithDrafts(drafts, time.Duration(c.config.Drafts.TTL)))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+`":8080"`+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}

// sweepDrafts removes expired draft sessions every interval until ctx ends.
func sweepDrafts(ctx context.Context, s session.Store, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Cleanup(ctx); err != nil {
				logger.Debug("draft cleanup failed", "err", err)
			}
		}
	}
}
