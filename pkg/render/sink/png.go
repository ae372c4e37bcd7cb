package sink

import (
	"bytes"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// maxPNGPixels caps the raster size of one PNG.
const maxPNGPixels = 8192 * 8192

var (
	placeholderFill   = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	placeholderStroke = color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
}

// WithScale overrides the scene's pixel ratio.
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// RenderPNG rasterizes scene at its pixel ratio.
//
// Text uses a fixed bitmap face scaled to each node's font size, and image
// nodes are drawn as placeholders; nothing is fetched.
func RenderPNG(scene render.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: scene.PixelRatio}
	for _, opt := range opts {
		opt(&r)
	}
	if !(r.scale > 0) || math.IsInf(r.scale, 0) {
		r.scale = 1
	}

	w := int(math.Ceil(scene.Width * r.scale))
	h := int(math.Ceil(scene.Height * r.scale))
	if w <= 0 || h <= 0 || float64(w)*float64(h) > maxPNGPixels {
		return nil, errors.New(errors.ErrCodeInvalidSurface, "cannot rasterize %dx%d pixels", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.Scale(r.scale, r.scale)
	dc.SetFontFace(basicfont.Face7x13)

	r.fillRect(dc, render.Rect{Width: scene.Width, Height: scene.Height}, parsePaint(scene.Background))

	f := scene.Frame
	dc.DrawRectangle(f.X, f.Y, f.Width, f.Height)
	dc.Clip()
	for _, n := range scene.Nodes {
		switch n.Type {
		case template.KindShape:
			r.drawShape(dc, n)
		case template.KindImage:
			r.drawPlaceholder(dc, n)
		case template.KindText:
			r.drawText(dc, n)
		}
	}
	dc.ResetClip()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func (r pngRenderer) fillRect(dc *gg.Context, box render.Rect, p paint) {
	if p.none() || box.Width <= 0 || box.Height <= 0 {
		return
	}
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	if p.gradient != nil {
		dc.SetFillStyle(r.gradientPattern(p.gradient, box))
	} else {
		dc.SetColor(p.solid)
	}
	dc.Fill()
}

// gradientPattern builds a gg gradient. gg samples patterns in device
// pixels, so the line is scaled by hand.
func (r pngRenderer) gradientPattern(g *linearGradient, box render.Rect) gg.Gradient {
	x1, y1, x2, y2 := g.line(box)
	grad := gg.NewLinearGradient(x1*r.scale, y1*r.scale, x2*r.scale, y2*r.scale)
	for _, s := range g.stops {
		grad.AddColorStop(s.offset, s.color)
	}
	return grad
}

func (r pngRenderer) drawShape(dc *gg.Context, n render.Node) {
	box := n.Bounds()
	r.fillRect(dc, box, parsePaint(n.Style.Fill))

	if c, ok := parseColor(n.Style.StrokeColor); ok && box.Width > 0 && box.Height > 0 {
		dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
		dc.SetColor(c)
		dc.SetLineWidth(r.scale)
		dc.Stroke()
	}
}

func (r pngRenderer) drawPlaceholder(dc *gg.Context, n render.Node) {
	b := n.Bounds()
	if b.Width <= 0 || b.Height <= 0 {
		return
	}
	dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	dc.SetColor(placeholderFill)
	dc.FillPreserve()
	dc.SetColor(placeholderStroke)
	dc.SetLineWidth(r.scale)
	dc.Stroke()
	dc.DrawLine(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
	dc.DrawLine(b.X+b.Width, b.Y, b.X, b.Y+b.Height)
	dc.Stroke()
}

func (r pngRenderer) drawText(dc *gg.Context, n render.Node) {
	if n.FontSize <= 0 || n.ResolvedContent == "" {
		return
	}

	var c color.Color = color.Black
	switch p := parsePaint(n.Style.Fill); {
	case p.solid != nil:
		c = p.solid
	case p.gradient != nil:
		c = p.gradient.stops[0].color
	}

	k := n.FontSize / float64(basicfont.Face7x13.Height)
	ax := textAnchor(n.Style.TextAlign)

	dc.Push()
	dc.ScaleAbout(k, k, n.AbsX, n.AbsY)
	dc.SetColor(c)
	dc.DrawStringAnchored(n.ResolvedContent, n.AbsX, n.AbsY, ax, 0.5)
	if isBold(n.Style.FontStyle) {
		dc.DrawStringAnchored(n.ResolvedContent, n.AbsX+0.6, n.AbsY, ax, 0.5)
	}
	dc.Pop()
}
