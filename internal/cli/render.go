package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cardsmith/pkg/card"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/pipeline"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// stdinPath selects standard input for the card, or standard output for -o.
const stdinPath = "-"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	templateID   string // stored template; defaults to the card's templateId
	version      int    // pinned template version, 0 for latest
	templateFile string // local template document, bypasses the store
	ownerFile    string // owner profile used as fallback for card fields
	surface      string // preset name or WxH[@ratio]
	formats      string // comma-separated output formats
	output       string // output file (single format) or base path
	hitRegions   bool   // add the builder overlay to SVG output
	noCache      bool   // disable the render cache
	refresh      bool   // skip cache reads but still write
	pick         bool   // choose the template interactively
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [card.json|-]",
		Short: "Render a card to SVG, PNG or a JSON scene graph",
		Long: `Render lays out card data on a template and writes the result.

The template comes from --template-file, --template, the card's own
templateId, or the built-in default, in that order. A template that cannot
be loaded falls back to the default with a warning. Without a card file an
empty card is rendered, which shows the template's placeholders.`,
		Example: `  cardsmith render card.json -t modern-blue -f svg,png
  cardsmith render card.json --surface 1200x686@2 -o out/card
  cat card.json | cardsmith render - -f json -o -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd, input, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.templateID, "template", "t", "", "stored template id")
	cmd.Flags().IntVar(&opts.version, "template-version", 0, "pin a stored template version (default latest)")
	cmd.Flags().StringVar(&opts.templateFile, "template-file", "", "render a local template file (json or yaml)")
	cmd.Flags().StringVar(&opts.ownerFile, "owner", "", "owner profile json used for missing card fields")
	cmd.Flags().StringVarP(&opts.surface, "surface", "s", "", "surface preset ("+strings.Join(render.PresetNames(), ", ")+") or WxH[@ratio]")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, png, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, base path for several formats, or - for stdout")
	cmd.Flags().BoolVar(&opts.hitRegions, "hit-regions", false, "add the builder hit-region overlay to SVG output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the template interactively")
	cmd.MarkFlagsMutuallyExclusive("template", "template-file", "pick")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts renderOpts) error {
	ctx := cmd.Context()

	popts, err := c.pipelineOptions(opts)
	if err != nil {
		return err
	}
	if opts.output == stdinPath && len(popts.Formats) != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "-o - needs exactly one format, got %d", len(popts.Formats))
	}

	rec, err := readCard(cmd, input)
	if err != nil {
		return err
	}
	var owner card.Record
	if opts.ownerFile != "" {
		if owner, err = card.ReadFile(opts.ownerFile); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.pick {
		t, ok, err := pickTemplate(ctx, runner.Store)
		if err != nil {
			return err
		}
		if !ok {
			return context.Canceled
		}
		popts.TemplateID, popts.Version = t.ID, t.Version
	}

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, popts, rec, owner)
	if err != nil {
		return err
	}
	prog.done("render finished", "formats", len(res.Artifacts))

	if opts.output == stdinPath {
		_, err := cmd.OutOrStdout().Write(res.Artifacts[popts.Formats[0]])
		return err
	}

	if res.DefaultUsed && (popts.TemplateID != "" || rec.TemplateID() != "") {
		printWarning("Template could not be loaded, rendered the default template")
	}
	printSuccess("Rendered %s", cardLabel(input))
	printRenderStats(res)
	for _, format := range popts.Formats {
		path := outputPath(opts.output, input, format, len(popts.Formats))
		if err := writeArtifact(path, res.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// pipelineOptions turns flags into pipeline options. The surface flag
// wins over the configured preset.
func (c *CLI) pipelineOptions(opts renderOpts) (pipeline.Options, error) {
	popts := pipeline.Options{
		TemplateID: opts.templateID,
		Version:    opts.version,
		Preset:     c.config.Render.Preset,
		Formats:    pipeline.ParseFormats(opts.formats),
		HitRegions: opts.hitRegions,
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	}
	if opts.surface != "" {
		s, err := render.ParseSurface(opts.surface)
		if err != nil {
			return popts, err
		}
		popts.Surface = s
	}
	if opts.templateFile != "" {
		t, err := template.ReadFile(opts.templateFile)
		if err != nil {
			return popts, err
		}
		popts.Template = &t
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return popts, err
	}
	return popts, nil
}

// readCard reads the card record from path, stdin for "-", or returns an
// empty card when path is empty.
func readCard(cmd *cobra.Command, path string) (card.Record, error) {
	switch path {
	case "":
		return card.Record{}, nil
	case stdinPath:
		return card.Decode(cmd.InOrStdin())
	}
	return card.ReadFile(path)
}

// outputPath picks the file for one format. With a single format an
// explicit output is used as is; otherwise the output (or the input, or
// "card") is a base path and the format becomes the extension. Scene
// graphs get ".scene.json" so they never overwrite the card.
func outputPath(output, input, format string, formatCount int) string {
	if output != "" && formatCount == 1 {
		return output
	}
	ext := format
	if format == pipeline.FormatJSON {
		ext = "scene.json" // card files are .json too
	}
	return basePath(output, input) + "." + ext
}

// basePath strips a known format extension from output, or derives the
// base from the input file name.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == stdinPath {
			return "card"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func cardLabel(input string) string {
	switch input {
	case "":
		return "empty card"
	case stdinPath:
		return "card from stdin"
	}
	return input
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
