package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardsmith/pkg/draft"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/store"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// templatesCommand creates the template store management command.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage the template store",
	}

	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesShowCommand())
	cmd.AddCommand(c.templatesImportCommand())
	cmd.AddCommand(c.templatesPickCommand())

	return cmd
}

// =============================================================================
// templates list
// =============================================================================

type listOpts struct {
	category string
	tag      string
	active   bool
	featured bool
	json     bool
}

func (c *CLI) templatesListCommand() *cobra.Command {
	var opts listOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest version of every template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.Filter{Category: opts.category, Tag: opts.tag}
			if cmd.Flags().Changed("active") {
				f.Active = &opts.active
			}
			if cmd.Flags().Changed("featured") {
				f.Featured = &opts.featured
			}

			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ts, err := s.List(cmd.Context(), f)
			if err != nil {
				return err
			}

			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ts)
			}
			if len(ts) == 0 {
				printInfo("No templates found")
				printNextStep("Add one with", "cardsmith templates import <file>")
				return nil
			}
			fmt.Fprintln(stdout, renderTemplateTable(ts))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "only templates in this category")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "only templates with this tag")
	cmd.Flags().BoolVar(&opts.active, "active", false, "only active (or, with =false, inactive) templates")
	cmd.Flags().BoolVar(&opts.featured, "featured", false, "only featured (or, with =false, unfeatured) templates")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")

	return cmd
}

// =============================================================================
// templates show
// =============================================================================

func (c *CLI) templatesShowCommand() *cobra.Command {
	var (
		version int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored template as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var t template.Template
			if version > 0 {
				t, err = s.GetVersion(cmd.Context(), args[0], version)
			} else {
				t, err = s.Get(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			if output != "" {
				if err := template.WriteFile(t, output); err != nil {
					return err
				}
				printSuccess("Exported %s@v%d", t.ID, t.Version)
				printFile(output)
				return nil
			}
			data, err := template.Marshal(t)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().IntVar(&version, "template-version", 0, "show a specific version (default latest)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

// =============================================================================
// templates import
// =============================================================================

type importOpts struct {
	id          string
	baseVersion int
}

func (c *CLI) templatesImportCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Validate template files and commit each as a new version",
		Long: `Import validates each template file and commits it to the store as the
next version of its id. The id comes from --id, the document, or the file
name, in that order.

With --base-version the commit only succeeds if that version is still the
latest, so a concurrent edit is reported as a conflict instead of being
silently superseded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.id != "" && len(args) > 1 {
				return errors.New(errors.ErrCodeInvalidInput, "--id needs exactly one file, got %d", len(args))
			}

			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var failed int
			for _, path := range args {
				if err := c.importTemplate(cmd, s, path, opts); err != nil {
					failed++
					if len(args) == 1 {
						return err
					}
					printError("%s: %s", path, errors.UserMessage(err))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d templates failed to import", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "template id (default from the document or file name)")
	cmd.Flags().IntVar(&opts.baseVersion, "base-version", 0, "fail unless this is still the latest version")

	return cmd
}

func (c *CLI) importTemplate(cmd *cobra.Command, s store.Store, path string, opts importOpts) error {
	ctx := cmd.Context()

	t, err := template.ReadFile(path)
	if err != nil {
		return err
	}
	id := importID(opts.id, t.ID, path)
	if err := errors.ValidateSlug(id); err != nil {
		return err
	}

	d, err := openDraft(cmd, s, id, opts.baseVersion)
	if err != nil {
		return err
	}

	committed, next, err := d.Replace(t).CommitTo(ctx, s)
	if err != nil {
		if next.State() == draft.StateRejected {
			printError("%s is not a valid template", path)
			printValidationErrors(next.Errors())
		}
		return err
	}

	c.Logger.Debug("committed template", "template", committed.ID, "version", committed.Version, "file", path)
	printSuccess("Imported %s as %s@v%d", path, committed.ID, committed.Version)
	return nil
}

// openDraft opens a draft on the pinned base version, on the latest
// version, or on nothing for a new id.
func openDraft(cmd *cobra.Command, s store.Store, id string, baseVersion int) (draft.Draft, error) {
	ctx := cmd.Context()
	if baseVersion > 0 {
		base, err := s.GetVersion(ctx, id, baseVersion)
		if err != nil {
			return draft.Draft{}, err
		}
		return draft.Open(base), nil
	}

	base, err := s.Get(ctx, id)
	switch {
	case errors.IsNotFound(err):
		return draft.New(id), nil
	case err != nil:
		return draft.Draft{}, err
	}
	return draft.Open(base), nil
}

// importID picks the template id: the flag, then the document, then the
// file name without extension.
func importID(flag, doc, path string) string {
	if flag != "" {
		return flag
	}
	if doc != "" {
		return doc
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// templates pick
// =============================================================================

func (c *CLI) templatesPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "pick",
		Short:   "Browse templates interactively and print the chosen id",
		Example: `  cardsmith render card.json -t "$(cardsmith templates pick)"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			t, ok, err := pickTemplate(cmd.Context(), s)
			if err != nil || !ok {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return err
		},
	}
}
