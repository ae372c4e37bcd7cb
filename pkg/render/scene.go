package render

import "github.com/matzehuels/cardsmith/pkg/template"

// Scene is a SceneGraph: the resolved, positioned output of [Render] for one
// surface. Nodes are in paint order, identical to the template's element order.
type Scene struct {
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	PixelRatio float64          `json:"pixelRatio"`
	Scale      float64          `json:"scale"`
	Frame      Rect             `json:"frame"`
	Background string           `json:"background,omitempty"`
	Nodes      []Node           `json:"nodes"`
	Warnings   []BindingWarning `json:"warnings,omitempty"`
}

// Rect is an axis-aligned rectangle in surface pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one RenderNode: an element with absolute surface coordinates and
// its display content.
//
// For text nodes AbsWidth and AbsHeight are zero and (AbsX, AbsY) is the
// anchor point given by Style.TextAlign. ResolvedContent is the display text
// for text nodes and the asset reference for image nodes.
type Node struct {
	Type            template.Kind `json:"type"`
	ElementID       string        `json:"elementId"`
	AbsX            float64       `json:"absX"`
	AbsY            float64       `json:"absY"`
	AbsWidth        float64       `json:"absWidth,omitempty"`
	AbsHeight       float64       `json:"absHeight,omitempty"`
	FontSize        float64       `json:"fontSize,omitempty"`
	ResolvedContent string        `json:"resolvedContent,omitempty"`
	Style           Style         `json:"style"`
}

// Style is the non-geometric styling of a node, passed through unscaled.
type Style struct {
	Fill        string `json:"fill,omitempty"`
	StrokeColor string `json:"strokeColor,omitempty"`
	FontFamily  string `json:"fontFamily,omitempty"`
	FontStyle   string `json:"fontStyle,omitempty"`
	TextAlign   string `json:"textAlign,omitempty"`
}

// BindingWarning records a binding key the card view could not resolve.
// The node still renders, showing "{{key}}".
type BindingWarning struct {
	ElementID string `json:"elementId"`
	Key       string `json:"key"`
}

func (w BindingWarning) String() string {
	return "element " + w.ElementID + ": unknown binding " + `"` + w.Key + `"`
}

// Bounds returns the node's box. Text nodes have an empty box at their anchor.
func (n Node) Bounds() Rect {
	return Rect{X: n.AbsX, Y: n.AbsY, Width: n.AbsWidth, Height: n.AbsHeight}
}
