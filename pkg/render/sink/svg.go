package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/template"
)

const hitRegionCSS = `
    .hit-region { fill: transparent; pointer-events: all; cursor: move; }
    .hit-region:hover, .hit-region.selected { stroke: #3b82f6; stroke-width: 1; stroke-dasharray: 4 2; }`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	hitRegions bool
}

// WithHitRegions adds the builder overlay: one transparent rect per node,
// on top of the card, carrying data-element-id.
func WithHitRegions() SVGOption { return func(r *svgRenderer) { r.hitRegions = true } }

// RenderSVG paints scene as a standalone SVG document.
func RenderSVG(scene render.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(scene.Width), num(scene.Height), num(scene.Width), num(scene.Height))

	bg, fills := renderDefs(&buf, scene)
	if bg != "none" {
		fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%s" height="%s" fill="%s"/>`+"\n",
			num(scene.Width), num(scene.Height), bg)
	}

	buf.WriteString(`  <g clip-path="url(#frame)">` + "\n")
	for i, n := range scene.Nodes {
		renderNode(&buf, n, fills[i])
	}
	buf.WriteString("  </g>\n")

	if r.hitRegions {
		renderHitRegions(&buf, scene)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// renderDefs writes the frame clip path and a <linearGradient> for every
// gradient fill. It returns the fill attribute for the background and for
// each node.
func renderDefs(buf *bytes.Buffer, scene render.Scene) (string, []string) {
	fills := make([]string, len(scene.Nodes))

	buf.WriteString("  <defs>\n")
	f := scene.Frame
	fmt.Fprintf(buf, `    <clipPath id="frame"><rect x="%s" y="%s" width="%s" height="%s"/></clipPath>`+"\n",
		num(f.X), num(f.Y), num(f.Width), num(f.Height))

	surface := render.Rect{Width: scene.Width, Height: scene.Height}
	bg := fillAttr(buf, "fill-bg", scene.Background, surface)
	for i, n := range scene.Nodes {
		fills[i] = fillAttr(buf, "fill-"+strconv.Itoa(i), n.Style.Fill, nodeBox(n))
	}
	buf.WriteString("  </defs>\n")
	return bg, fills
}

// fillAttr returns the fill attribute for css, writing a gradient def under
// id when needed.
func fillAttr(buf *bytes.Buffer, id, css string, box render.Rect) string {
	p := parsePaint(css)
	switch {
	case p.gradient != nil:
		writeGradient(buf, id, p.gradient, box)
		return "url(#" + id + ")"
	case p.none():
		return "none"
	}
	return attr(css)
}

func writeGradient(buf *bytes.Buffer, id string, g *linearGradient, box render.Rect) {
	x1, y1, x2, y2 := g.line(box)
	fmt.Fprintf(buf, `    <linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%s" y1="%s" x2="%s" y2="%s">`+"\n",
		id, num(x1), num(y1), num(x2), num(y2))
	for _, s := range g.stops {
		fmt.Fprintf(buf, `      <stop offset="%s" stop-color="%s"/>`+"\n", num(s.offset), attr(s.css))
	}
	buf.WriteString("    </linearGradient>\n")
}

func renderNode(buf *bytes.Buffer, n render.Node, fill string) {
	switch n.Type {
	case template.KindShape:
		stroke := ""
		if n.Style.StrokeColor != "" {
			stroke = fmt.Sprintf(` stroke="%s"`, attr(n.Style.StrokeColor))
		}
		fmt.Fprintf(buf, `    <rect id="%s" x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>`+"\n",
			attr(n.ElementID), num(n.AbsX), num(n.AbsY), num(n.AbsWidth), num(n.AbsHeight), fill, stroke)
	case template.KindImage:
		fmt.Fprintf(buf, `    <image id="%s" x="%s" y="%s" width="%s" height="%s" href="%s" preserveAspectRatio="xMidYMid meet"/>`+"\n",
			attr(n.ElementID), num(n.AbsX), num(n.AbsY), num(n.AbsWidth), num(n.AbsHeight), attr(n.ResolvedContent))
	case template.KindText:
		renderText(buf, n, fill)
	}
}

func renderText(buf *bytes.Buffer, n render.Node, fill string) {
	anchor := "start"
	switch textAnchor(n.Style.TextAlign) {
	case 0.5:
		anchor = "middle"
	case 1:
		anchor = "end"
	}

	if n.Style.Fill == "" {
		fill = defaultTextColor
	}

	var extra string
	if n.Style.FontFamily != "" {
		extra += fmt.Sprintf(` font-family="%s"`, attr(n.Style.FontFamily))
	}
	if isBold(n.Style.FontStyle) {
		extra += ` font-weight="bold"`
	}
	if isItalic(n.Style.FontStyle) {
		extra += ` font-style="italic"`
	}

	fmt.Fprintf(buf, `    <text id="%s" x="%s" y="%s" font-size="%s" fill="%s" text-anchor="%s" dominant-baseline="middle"%s>`,
		attr(n.ElementID), num(n.AbsX), num(n.AbsY), num(n.FontSize), fill, anchor, extra)
	xml.EscapeText(buf, []byte(n.ResolvedContent))
	buf.WriteString("</text>\n")
}

func renderHitRegions(buf *bytes.Buffer, scene render.Scene) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", hitRegionCSS)
	buf.WriteString(`  <g class="hit-regions">` + "\n")
	for _, n := range scene.Nodes {
		b := nodeBox(n)
		fmt.Fprintf(buf, `    <rect class="hit-region" data-element-id="%s" data-element-type="%s" x="%s" y="%s" width="%s" height="%s"/>`+"\n",
			attr(n.ElementID), n.Type, num(b.X), num(b.Y), num(b.Width), num(b.Height))
	}
	buf.WriteString("  </g>\n")
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(f float64) string {
	r := math.Round(f*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func attr(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
