package render

import (
	"math"

	"github.com/matzehuels/cardsmith/pkg/card"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// Render lays out t for surface s using the values in v.
//
// It returns an INVALID_SURFACE error for a degenerate surface and never
// fails otherwise: unknown bindings render as "{{key}}" with a warning,
// off-canvas elements are clamped, and a template without a usable reference
// canvas is drawn at scale 1 on the surface itself. Nil elements are skipped.
func Render(t template.Template, v card.View, s Surface) (Scene, error) {
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}

	d := t.Design
	refW, refH := d.ReferenceWidth, d.ReferenceHeight
	if !usable(refW) || !usable(refH) {
		refW, refH = s.Width, s.Height
	}

	scale := min(s.Width/refW, s.Height/refH)
	frame := Rect{
		Width:  refW * scale,
		Height: refH * scale,
	}
	frame.X = (s.Width - frame.Width) / 2
	frame.Y = (s.Height - frame.Height) / 2

	l := &layouter{
		design: d,
		view:   v,
		refW:   refW,
		refH:   refH,
		scale:  scale,
		frame:  frame,
		nodes:  make([]Node, 0, len(d.Elements)),
	}
	for _, el := range d.Elements {
		if el != nil {
			el.Accept(l)
		}
	}

	return Scene{
		Width:      s.Width,
		Height:     s.Height,
		PixelRatio: s.Ratio(),
		Scale:      scale,
		Frame:      frame,
		Background: d.BackgroundColor,
		Nodes:      l.nodes,
		Warnings:   l.warnings,
	}, nil
}

// RenderOrDefault renders t, or [template.Default] when t is nil.
func RenderOrDefault(t *template.Template, v card.View, s Surface) (Scene, error) {
	return Render(template.OrDefault(t), v, s)
}

// layouter converts each element variant into a Node.
type layouter struct {
	design     template.Design
	view       card.View
	refW, refH float64
	scale      float64
	frame      Rect
	nodes      []Node
	warnings   []BindingWarning
}

func (l *layouter) VisitText(e template.Text) {
	content := e.Content
	if e.IsBinding {
		if s, ok := l.view.Lookup(e.Content); ok {
			content = s
		} else {
			content = "{{" + e.Content + "}}"
			l.warnings = append(l.warnings, BindingWarning{ElementID: e.ID, Key: e.Content})
		}
	}

	x, y := l.point(e.X, e.Y)
	l.nodes = append(l.nodes, Node{
		Type:            template.KindText,
		ElementID:       e.ID,
		AbsX:            x,
		AbsY:            y,
		FontSize:        e.FontSize * l.scale,
		ResolvedContent: content,
		Style: Style{
			Fill:       firstNonEmpty(e.Fill, l.design.TextColor),
			FontFamily: firstNonEmpty(e.FontFamily, l.design.FontFamily),
			FontStyle:  e.FontStyle,
			TextAlign:  e.TextAlign,
		},
	})
}

func (l *layouter) VisitShape(e template.Shape) {
	n := l.box(template.KindShape, e.ID, e.X, e.Y, e.Width, e.Height)
	n.Style = Style{Fill: e.Fill, StrokeColor: e.StrokeColor}
	l.nodes = append(l.nodes, n)
}

func (l *layouter) VisitImage(e template.Image) {
	n := l.box(template.KindImage, e.ID, e.X, e.Y, e.Width, e.Height)
	n.ResolvedContent = e.SourceRef
	l.nodes = append(l.nodes, n)
}

// point clamps a reference-canvas point and maps it to the surface.
func (l *layouter) point(x, y float64) (float64, float64) {
	x = clamp(x, 0, l.refW)
	y = clamp(y, 0, l.refH)
	return l.frame.X + x*l.scale, l.frame.Y + y*l.scale
}

// box clips a reference-canvas rectangle to the canvas and maps it to the surface.
func (l *layouter) box(kind template.Kind, id string, x, y, w, h float64) Node {
	x0, x1 := clamp(x, 0, l.refW), clamp(x+w, 0, l.refW)
	y0, y1 := clamp(y, 0, l.refH), clamp(y+h, 0, l.refH)
	absX, absY := l.point(x0, y0)
	return Node{
		Type:      kind,
		ElementID: id,
		AbsX:      absX,
		AbsY:      absY,
		AbsWidth:  max(x1-x0, 0) * l.scale,
		AbsHeight: max(y1-y0, 0) * l.scale,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return max(lo, min(v, hi))
}

func usable(f float64) bool { return f > 0 && !math.IsInf(f, 0) }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
