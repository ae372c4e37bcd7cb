package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardsmith/pkg/template"
)

// validateCommand checks template files without touching the store.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check template files against the authoring rules",
		Long: `Validate reads template documents (json or yaml) and reports every rule
they break. Nothing is saved. The exit status is non-zero if any file is
invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var invalid int
			for _, path := range args {
				t, err := template.ReadFile(path)
				if err != nil {
					printError("%s: %v", path, err)
					invalid++
					continue
				}
				errs := template.Validate(t)
				if len(errs) == 0 {
					printSuccess("%s is valid", path)
					continue
				}
				invalid++
				printError("%s: %s", path, plural(len(errs), "problem"))
				printValidationErrors(errs)
			}
			c.Logger.Debug("validated templates", "files", len(args), "invalid", invalid)
			if invalid > 0 {
				return fmt.Errorf("%d of %d templates invalid", invalid, len(args))
			}
			return nil
		},
	}
}
