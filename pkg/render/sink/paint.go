package sink

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/cardsmith/pkg/render"
)

// paint is a parsed CSS fill: a solid color, a linear gradient, or nothing.
type paint struct {
	solid    color.Color
	gradient *linearGradient
}

func (p paint) none() bool { return p.solid == nil && p.gradient == nil }

type linearGradient struct {
	angle float64 // CSS degrees: 0 points up, 90 points right
	stops []gradientStop
}

type gradientStop struct {
	css    string
	color  color.Color
	offset float64 // 0..1
}

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"gray":    "#808080",
	"grey":    "#808080",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"navy":    "#000080",
	"teal":    "#008080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"olive":   "#808000",
	"fuchsia": "#ff00ff",
	"aqua":    "#00ffff",
}

// parsePaint reads a fill value. Unparseable values paint nothing.
func parsePaint(s string) paint {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "linear-gradient(") && strings.HasSuffix(s, ")") {
		if g, ok := parseLinearGradient(s[len("linear-gradient(") : len(s)-1]); ok {
			return paint{gradient: g}
		}
		return paint{}
	}
	if c, ok := parseColor(s); ok {
		return paint{solid: c}
	}
	return paint{}
}

// parseColor reads hex, rgb()/rgba() and a small set of named colors.
func parseColor(s string) (color.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "none" || s == "transparent":
		return nil, false
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, false
		}
		return c.Clamped(), true
	case strings.HasPrefix(s, "rgb"):
		return parseRGB(s)
	}
	if hex, ok := namedColors[s]; ok {
		c, _ := colorful.Hex(hex)
		return c, true
	}
	return nil, false
}

func parseRGB(s string) (color.Color, bool) {
	lp, rp := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if lp < 0 || rp < lp {
		return nil, false
	}
	parts := strings.Split(s[lp+1:rp], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return nil, false
	}

	var ch [3]float64
	for i := range ch {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return nil, false
		}
		ch[i] = v / 255
	}
	r, g, b := colorful.Color{R: ch[0], G: ch[1], B: ch[2]}.Clamped().RGB255()

	alpha := 1.0
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return nil, false
		}
		alpha = math.Max(0, math.Min(a, 1))
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}, true
}

// parseLinearGradient reads the inside of linear-gradient(...).
// Supported: an optional "<n>deg" or "to <side>" direction followed by at
// least two color stops with optional percentage offsets.
func parseLinearGradient(body string) (*linearGradient, bool) {
	args := splitTopLevel(body)
	if len(args) == 0 {
		return nil, false
	}

	g := &linearGradient{angle: 180}
	if a, ok := parseDirection(args[0]); ok {
		g.angle = a
		args = args[1:]
	}
	if len(args) < 2 {
		return nil, false
	}

	explicit := make([]bool, len(args))
	for i, arg := range args {
		css, offset, hasOffset := splitStop(arg)
		c, ok := parseColor(css)
		if !ok {
			return nil, false
		}
		g.stops = append(g.stops, gradientStop{css: css, color: c, offset: offset})
		explicit[i] = hasOffset
	}

	// Stops without an offset are spread evenly, like CSS.
	last := len(g.stops) - 1
	for i := range g.stops {
		if !explicit[i] {
			g.stops[i].offset = float64(i) / float64(last)
		}
	}
	return g, true
}

var sideAngles = map[string]float64{
	"to top":          0,
	"to top right":    45,
	"to right top":    45,
	"to right":        90,
	"to bottom right": 135,
	"to right bottom": 135,
	"to bottom":       180,
	"to bottom left":  225,
	"to left bottom":  225,
	"to left":         270,
	"to top left":     315,
	"to left top":     315,
}

func parseDirection(s string) (float64, bool) {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	if a, ok := sideAngles[s]; ok {
		return a, true
	}
	if strings.HasSuffix(s, "deg") {
		a, err := strconv.ParseFloat(strings.TrimSuffix(s, "deg"), 64)
		return a, err == nil
	}
	return 0, false
}

func splitStop(s string) (css string, offset float64, ok bool) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, ' ')
	if i < 0 || !strings.HasSuffix(s, "%") {
		return s, 0, false
	}
	pct, err := strconv.ParseFloat(s[i+1:len(s)-1], 64)
	if err != nil {
		return s, 0, false
	}
	return strings.TrimSpace(s[:i]), math.Max(0, math.Min(pct/100, 1)), true
}

// splitTopLevel splits on commas that are not inside parentheses.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// line returns the CSS gradient line across r: it passes through the center
// at the given angle and is long enough for the corners to reach the end colors.
func (g *linearGradient) line(r render.Rect) (x1, y1, x2, y2 float64) {
	rad := g.angle * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := (math.Abs(r.Width*dx) + math.Abs(r.Height*dy)) / 2
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	return cx - dx*half, cy - dy*half, cx + dx*half, cy + dy*half
}
