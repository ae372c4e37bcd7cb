// Package pipeline runs the load → resolve → render flow for one card.
//
// [render.Render] is pure and can be called directly. The pipeline adds
// the I/O around it so the CLI and the HTTP server share one code path:
// template lookup with fallback to [template.Default], card resolution,
// scene and artifact caching, and logging of binding warnings.
//
// # Usage
//
//	runner := pipeline.NewRunner(store, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    TemplateID: "modern-blue",
//	    Preset:     render.PresetPublic,
//	    Formats:    []string{pipeline.FormatSVG, pipeline.FormatPNG},
//	}, cardRecord, ownerProfile)
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/card"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// DefaultPreset is used when neither a surface nor a preset is given.
const DefaultPreset = render.PresetBuilder

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one render. It supports JSON for API requests.
type Options struct {
	// Template selection. An inline Template wins over TemplateID; an empty
	// TemplateID falls back to the card's own templateId. Version 0 means
	// latest.
	TemplateID string             `json:"templateId,omitempty"`
	Version    int                `json:"version,omitempty"`
	Template   *template.Template `json:"template,omitempty"`

	// Output surface. A zero Surface selects Preset.
	Surface render.Surface `json:"surface"`
	Preset  string         `json:"preset,omitempty"`

	Formats    []string `json:"formats,omitempty"`
	HitRegions bool     `json:"hitRegions,omitempty"`
	Refresh    bool     `json:"refresh,omitempty"` // skip cache reads

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Template is the template that was rendered, possibly the default.
	Template template.Template

	// DefaultUsed reports that the requested template was missing or failed
	// to load and [template.Default] was rendered instead.
	DefaultUsed bool

	View  card.View
	Scene render.Scene

	// SceneHash is the content hash of the encoded scene.
	SceneHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	WarningCount int
	LoadTime     time.Duration
	SceneTime    time.Duration
	ArtifactTime time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	SceneHit    bool // scene came from cache
	ArtifactHit bool // every artifact came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeUnsupported, "invalid format: %q (must be one of: svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Surface == (render.Surface{}) {
		name := o.Preset
		if name == "" {
			name = DefaultPreset
		}
		s, err := render.Preset(name)
		if err != nil {
			return err
		}
		o.Surface = s
	}
	if err := o.Surface.Validate(); err != nil {
		return err
	}

	if o.Version < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "version must be positive, got %d", o.Version)
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SceneKeyOpts returns cache key options for rendering t with view.
// Inline templates have no stable identity, and the built-in fallback shares
// its id with any stored template named [template.DefaultID], so both are
// keyed by content hash instead of id.
func (o *Options) SceneKeyOpts(t template.Template, view card.View) cache.SceneKeyOpts {
	id := t.ID
	var prefix string
	switch {
	case o.Template != nil:
		prefix = "inline-"
	case t.ID == template.DefaultID:
		prefix = "default-"
	}
	if prefix != "" {
		if data, err := template.Marshal(t); err == nil {
			id = prefix + cache.Hash(data)
		}
	}
	return cache.SceneKeyOpts{
		TemplateID: id,
		Version:    t.Version,
		ViewHash:   view.Hash(),
		Width:      o.Surface.Width,
		Height:     o.Surface.Height,
		PixelRatio: o.Surface.Ratio(),
	}
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG:
		k.HitRegions = o.HitRegions
	case FormatPNG:
		k.Scale = o.Surface.Ratio()
	}
	return k
}

func (o *Options) String() string {
	src := o.TemplateID
	if o.Template != nil {
		src = "inline:" + o.Template.ID
	}
	return fmt.Sprintf("%s@%s %v", src, o.Surface, o.Formats)
}
