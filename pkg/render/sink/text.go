package sink

import (
	"unicode/utf8"

	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/template"
)

const (
	// Average glyph advance relative to font size for proportional sans fonts.
	fontCharWidth = 0.55

	defaultTextColor = "#000000"
)

// textAnchor maps a text alignment to its horizontal anchor fraction
// (0 left, 0.5 center, 1 right).
func textAnchor(align string) float64 {
	switch align {
	case template.AlignCenter:
		return 0.5
	case template.AlignRight:
		return 1
	}
	return 0
}

// textBox estimates the box a text node covers. The anchor point is the
// aligned edge horizontally and the middle of the line vertically.
func textBox(n render.Node) render.Rect {
	w := float64(utf8.RuneCountInString(n.ResolvedContent)) * n.FontSize * fontCharWidth
	return render.Rect{
		X:      n.AbsX - w*textAnchor(n.Style.TextAlign),
		Y:      n.AbsY - n.FontSize/2,
		Width:  w,
		Height: n.FontSize,
	}
}

// nodeBox returns the painted box of any node.
func nodeBox(n render.Node) render.Rect {
	if n.Type == template.KindText {
		return textBox(n)
	}
	return n.Bounds()
}

func isBold(fontStyle string) bool {
	switch fontStyle {
	case "bold", "bolder", "600", "700", "800", "900", "bold italic", "italic bold":
		return true
	}
	return false
}

func isItalic(fontStyle string) bool {
	switch fontStyle {
	case "italic", "oblique", "bold italic", "italic bold":
		return true
	}
	return false
}
