package sink

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/cardsmith/pkg/card"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/template"
)

func defaultScene(t *testing.T, s render.Surface) render.Scene {
	t.Helper()
	view := card.Resolve(card.Record{"fullName": "Ada <b>Lovelace</b> & Co"}, nil)
	scene, err := render.Render(template.Default(), view, s)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return scene
}

func TestRenderSVGIsWellFormed(t *testing.T) {
	svg := RenderSVG(defaultScene(t, render.Surface{Width: 700, Height: 400}), WithHitRegions())

	dec := xml.NewDecoder(strings.NewReader(string(svg)))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("invalid XML: %v\n%s", err, svg)
		}
	}
}

func TestRenderSVGContent(t *testing.T) {
	svg := string(RenderSVG(defaultScene(t, render.Surface{Width: 350, Height: 200})))

	for _, want := range []string{
		`viewBox="0 0 350 200"`,
		`<clipPath id="frame"><rect x="0" y="0" width="350" height="200"/></clipPath>`,
		`<linearGradient id="fill-0"`,
		`<stop offset="0" stop-color="#667eea"/>`,
		`<stop offset="1" stop-color="#764ba2"/>`,
		`<rect id="background" x="0" y="0" width="350" height="200" fill="url(#fill-0)"/>`,
		`text-anchor="middle"`,
		`font-weight="bold"`,
		`>Ada Lovelace &amp; Co</text>`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %s\n%s", want, svg)
		}
	}
	if strings.Contains(svg, "hit-region") {
		t.Error("hit regions should be opt-in")
	}
}

func TestRenderSVGHitRegions(t *testing.T) {
	scene := defaultScene(t, render.Surface{Width: 700, Height: 400})
	svg := string(RenderSVG(scene, WithHitRegions()))

	if got := strings.Count(svg, `class="hit-region"`); got != len(scene.Nodes) {
		t.Errorf("hit regions = %d, want %d", got, len(scene.Nodes))
	}
	for _, n := range scene.Nodes {
		if !strings.Contains(svg, `data-element-id="`+n.ElementID+`"`) {
			t.Errorf("no hit region for %s", n.ElementID)
		}
	}
	// The overlay is painted last so it sits on top.
	if strings.LastIndex(svg, "</text>") > strings.Index(svg, `class="hit-regions"`) {
		t.Error("hit regions must come after the card content")
	}
}

func TestRenderSVGEscapesAttributes(t *testing.T) {
	scene := render.Scene{
		Width: 100, Height: 100,
		Frame: render.Rect{Width: 100, Height: 100},
		Nodes: []render.Node{{
			Type:            template.KindImage,
			ElementID:       `x"y`,
			AbsWidth:        10,
			AbsHeight:       10,
			ResolvedContent: `a.png" onload="alert(1)`,
		}},
	}
	svg := string(RenderSVG(scene))
	if strings.Contains(svg, `onload="`) {
		t.Errorf("attribute injection not escaped:\n%s", svg)
	}
}

func TestRenderSVGLetterboxBackground(t *testing.T) {
	scene := defaultScene(t, render.Surface{Width: 1000, Height: 400})
	scene.Background = "#112233"
	svg := string(RenderSVG(scene))

	if !strings.Contains(svg, `<rect x="0" y="0" width="1000" height="400" fill="#112233"/>`) {
		t.Errorf("background should fill the whole surface:\n%s", svg)
	}
	if !strings.Contains(svg, `<clipPath id="frame"><rect x="150" y="0" width="700" height="400"/>`) {
		t.Errorf("frame should be centered:\n%s", svg)
	}
}

func TestNum(t *testing.T) {
	tests := map[float64]string{
		0:        "0",
		12.5:     "12.5",
		1.0 / 3:  "0.33",
		-0.001:   "0",
		1199.999: "1200",
	}
	for in, want := range tests {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}
