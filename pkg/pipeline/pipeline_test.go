package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/card"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/store"
	"github.com/matzehuels/cardsmith/pkg/template"
)

func stored(id string, v int, name string) template.Template {
	t := template.Default()
	t.ID, t.Version, t.Name = id, v, name
	return t
}

func newTestRunner(t *testing.T, c cache.Cache) (*Runner, *bytes.Buffer) {
	t.Helper()
	s, err := store.NewMemoryStore(stored("modern", 1, "Modern"), stored("modern", 2, "Modern II"))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	return NewRunner(s, c, nil, logger), &buf
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"json", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestParseFormats(t *testing.T) {
	got := ParseFormats(" SVG, png,,svg ,json")
	if strings.Join(got, ",") != "svg,png,json" {
		t.Errorf("ParseFormats = %v", got)
	}
	if ParseFormats("") != nil {
		t.Error("empty list should parse to nil")
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should be valid: %v", err)
	}

	want, _ := render.Preset(DefaultPreset)
	if opts.Surface != want {
		t.Errorf("Surface = %v, want %v", opts.Surface, want)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsPresetAndSurface(t *testing.T) {
	opts := Options{Preset: "thumbnail"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Surface.Width != 84 {
		t.Errorf("thumbnail width = %v", opts.Surface.Width)
	}

	// An explicit surface wins over the preset.
	opts = Options{Preset: "thumbnail", Surface: render.Surface{Width: 400, Height: 300}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Surface.Width != 400 {
		t.Errorf("explicit surface lost: %v", opts.Surface)
	}
}

func TestOptionsValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"unknown preset", Options{Preset: "poster"}, errors.ErrCodeInvalidSurface},
		{"bad surface", Options{Surface: render.Surface{Width: -1, Height: 10}}, errors.ErrCodeInvalidSurface},
		{"bad format", Options{Formats: []string{"pdf"}}, errors.ErrCodeUnsupported},
		{"negative version", Options{TemplateID: "modern", Version: -1}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Preset: "public"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts.Surface

	opts.Preset = "poster" // ignored once validated
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if opts.Surface != first {
		t.Error("Surface changed on second call")
	}
}

func TestExecuteLoadsLatestOrPinnedVersion(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	ctx := context.Background()

	res, err := r.Execute(ctx, Options{TemplateID: "modern", Formats: []string{FormatJSON}}, card.Record{"fullName": "Ada"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Template.Version != 2 || res.DefaultUsed {
		t.Errorf("got v%d default=%v, want latest v2", res.Template.Version, res.DefaultUsed)
	}
	if len(res.Artifacts[FormatJSON]) == 0 {
		t.Error("missing json artifact")
	}

	res, err = r.Execute(ctx, Options{TemplateID: "modern", Version: 1}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Template.Name != "Modern" {
		t.Errorf("pinned version loaded %q", res.Template.Name)
	}
}

func TestExecuteUsesCardTemplateID(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	c := card.Record{card.TemplateIDKey: "modern", "fullName": "Ada"}

	res, err := r.Execute(context.Background(), Options{}, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Template.ID != "modern" {
		t.Errorf("template = %q, want the card's template", res.Template.ID)
	}
}

func TestExecuteFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantLog string
	}{
		{"unknown id", Options{TemplateID: "missing"}, "template not found"},
		{"unknown version", Options{TemplateID: "modern", Version: 9}, "template not found"},
		{"malformed id", Options{TemplateID: "../x"}, "failed to load"},
		{"nothing requested", Options{}, "using default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, logs := newTestRunner(t, nil)
			res, err := r.Execute(context.Background(), tt.opts, card.Record{"fullName": "Ada"}, nil)
			if err != nil {
				t.Fatalf("missing templates must not fail the render: %v", err)
			}
			if !res.DefaultUsed || res.Template.ID != template.DefaultID {
				t.Errorf("DefaultUsed = %v, template = %q", res.DefaultUsed, res.Template.ID)
			}
			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("log missing %q:\n%s", tt.wantLog, logs)
			}
			if !bytes.Contains(res.Artifacts[FormatSVG], []byte(">Ada</text>")) {
				t.Error("default template should still render the card")
			}
		})
	}
}

func TestStoredDefaultTemplateNotServedFallbackScene(t *testing.T) {
	r, _ := newTestRunner(t, cache.NewMemoryCache(0))
	ctx := context.Background()

	mine := stored(template.DefaultID, 1, "Mine")
	mine.Design.Elements = template.Elements{
		template.Text{ID: "label", X: 10, Y: 20, Content: "CUSTOM", FontSize: 18},
	}
	if err := r.Store.Save(ctx, mine); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c := card.Record{"fullName": "Ada"}
	fallback, err := r.Execute(ctx, Options{TemplateID: "missing"}, c, nil)
	if err != nil {
		t.Fatalf("Execute fallback: %v", err)
	}
	if !fallback.DefaultUsed {
		t.Fatal("expected the built-in default for a missing template")
	}

	res, err := r.Execute(ctx, Options{TemplateID: template.DefaultID}, c, nil)
	if err != nil {
		t.Fatalf("Execute stored default: %v", err)
	}
	if res.DefaultUsed || res.Template.Name != "Mine" {
		t.Fatalf("DefaultUsed = %v, template = %q", res.DefaultUsed, res.Template.Name)
	}
	if res.CacheInfo.SceneHit {
		t.Error("stored template hit the built-in default's scene entry")
	}
	if len(res.Scene.Nodes) != 1 || res.Scene.Nodes[0].ResolvedContent != "CUSTOM" {
		t.Errorf("scene nodes = %+v, want one CUSTOM text", res.Scene.Nodes)
	}
}

func TestExecuteInlineTemplateWins(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	inline := stored("draft", 3, "Draft")

	res, err := r.Execute(context.Background(), Options{TemplateID: "modern", Template: &inline}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Template.ID != "draft" || res.DefaultUsed {
		t.Errorf("template = %q, DefaultUsed = %v", res.Template.ID, res.DefaultUsed)
	}
}

func TestExecuteResolvesOwnerProfile(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{}, card.Record{}, card.Record{"name": "Owner Name"})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.View.Text(card.FullName); got != "Owner Name" {
		t.Errorf("fullName = %q, want owner fallback", got)
	}
}

func TestExecuteCaches(t *testing.T) {
	r, _ := newTestRunner(t, cache.NewMemoryCache(0))
	ctx := context.Background()
	opts := Options{TemplateID: "modern", Formats: []string{FormatSVG, FormatPNG}}
	c := card.Record{"fullName": "Ada"}

	first, err := r.Execute(ctx, opts, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.SceneHit || first.CacheInfo.ArtifactHit {
		t.Errorf("cold run reported hits: %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, opts, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.SceneHit || !second.CacheInfo.ArtifactHit {
		t.Errorf("warm run missed: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatPNG], second.Artifacts[FormatPNG]) {
		t.Error("cached PNG differs from rendered PNG")
	}
	if first.SceneHash != second.SceneHash {
		t.Error("scene hash changed between runs")
	}

	// A different card is a different scene.
	third, _ := r.Execute(ctx, opts, card.Record{"fullName": "Grace"}, nil)
	if third.CacheInfo.SceneHit {
		t.Error("different card hit the cached scene")
	}

	opts.Refresh = true
	fourth, _ := r.Execute(ctx, opts, c, nil)
	if fourth.CacheInfo.SceneHit || fourth.CacheInfo.ArtifactHit {
		t.Error("Refresh should bypass cache reads")
	}
}

func TestExecuteLogsUnknownBindings(t *testing.T) {
	r, logs := newTestRunner(t, nil)
	inline := stored("ghosts", 1, "Ghosts")
	inline.Design.Elements = append(inline.Design.Elements, template.Text{
		ID: "ghost", X: 10, Y: 10, Content: "ghostField", IsBinding: true, FontSize: 12,
	})

	res, err := r.Execute(context.Background(), Options{Template: &inline}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.WarningCount != 1 {
		t.Errorf("WarningCount = %d, want 1", res.Stats.WarningCount)
	}
	if !strings.Contains(logs.String(), "unresolved binding") || !strings.Contains(logs.String(), "ghostField") {
		t.Errorf("warning not logged:\n%s", logs)
	}
	if !bytes.Contains(res.Artifacts[FormatSVG], []byte("{{ghostField}}")) {
		t.Error("unknown binding should render as a placeholder")
	}
}

func TestInlineTemplatesKeyedByContent(t *testing.T) {
	a := stored("same", 1, "A")
	b := stored("same", 1, "B")
	b.Design.BackgroundColor = "#000000"

	view := card.Resolve(nil, nil)
	oa := Options{Template: &a}
	ob := Options{Template: &b}
	_ = oa.ValidateAndSetDefaults()
	_ = ob.ValidateAndSetDefaults()

	k := cache.NewDefaultKeyer()
	if k.SceneKey(oa.SceneKeyOpts(a, view)) == k.SceneKey(ob.SceneKeyOpts(b, view)) {
		t.Error("inline templates with different content share a scene key")
	}
}

func TestRenderArtifacts(t *testing.T) {
	scene, err := render.Render(template.Default(), card.Resolve(nil, nil), render.Surface{Width: 350, Height: 200})
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Surface: render.Surface{Width: 350, Height: 200}, Formats: []string{FormatSVG, FormatJSON}, HitRegions: true}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	artifacts, err := RenderArtifacts(scene, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(artifacts[FormatSVG], []byte(`class="hit-regions"`)) {
		t.Error("hit regions not drawn")
	}
	if _, ok := artifacts[FormatPNG]; ok {
		t.Error("unrequested format rendered")
	}

	if _, err := RenderFormat(scene, "gif", opts); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("RenderFormat(gif) = %v", err)
	}
}
