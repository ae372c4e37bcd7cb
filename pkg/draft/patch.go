package draft

import (
	"strings"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// Patch is a partial element update. Nil fields are left unchanged.
type Patch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty"`
	Content     *string  `json:"content,omitempty"`
	IsBinding   *bool    `json:"isBinding,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	FontFamily  *string  `json:"fontFamily,omitempty"`
	FontStyle   *string  `json:"fontStyle,omitempty"`
	TextAlign   *string  `json:"textAlign,omitempty"`
	StrokeColor *string  `json:"strokeColor,omitempty"`
	SourceRef   *string  `json:"sourceRef,omitempty"`
}

// Float returns a pointer to f, for building patches.
func Float(f float64) *float64 { return &f }

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }

func (p Patch) apply(el template.Element) (template.Element, error) {
	a := &patcher{p: p}
	el.Accept(a)
	if len(a.invalid) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"%s element has no field(s): %s", el.Kind(), strings.Join(a.invalid, ", "))
	}
	return a.out, nil
}

// patcher applies a Patch to whichever variant it visits and records fields
// the variant does not have.
type patcher struct {
	p       Patch
	out     template.Element
	invalid []string
}

func (a *patcher) VisitText(e template.Text) {
	setFloat(&e.X, a.p.X)
	setFloat(&e.Y, a.p.Y)
	setFloat(&e.FontSize, a.p.FontSize)
	setString(&e.Content, a.p.Content)
	if a.p.IsBinding != nil {
		e.IsBinding = *a.p.IsBinding
	}
	setString(&e.Fill, a.p.Fill)
	setString(&e.FontFamily, a.p.FontFamily)
	setString(&e.FontStyle, a.p.FontStyle)
	setString(&e.TextAlign, a.p.TextAlign)
	a.reject("width", a.p.Width != nil)
	a.reject("height", a.p.Height != nil)
	a.reject("strokeColor", a.p.StrokeColor != nil)
	a.reject("sourceRef", a.p.SourceRef != nil)
	a.out = e
}

func (a *patcher) VisitShape(e template.Shape) {
	setFloat(&e.X, a.p.X)
	setFloat(&e.Y, a.p.Y)
	setFloat(&e.Width, a.p.Width)
	setFloat(&e.Height, a.p.Height)
	setString(&e.Fill, a.p.Fill)
	setString(&e.StrokeColor, a.p.StrokeColor)
	a.rejectTextFields()
	a.reject("sourceRef", a.p.SourceRef != nil)
	a.out = e
}

func (a *patcher) VisitImage(e template.Image) {
	setFloat(&e.X, a.p.X)
	setFloat(&e.Y, a.p.Y)
	setFloat(&e.Width, a.p.Width)
	setFloat(&e.Height, a.p.Height)
	setString(&e.SourceRef, a.p.SourceRef)
	a.rejectTextFields()
	a.reject("fill", a.p.Fill != nil)
	a.reject("strokeColor", a.p.StrokeColor != nil)
	a.out = e
}

func (a *patcher) rejectTextFields() {
	a.reject("fontSize", a.p.FontSize != nil)
	a.reject("content", a.p.Content != nil)
	a.reject("isBinding", a.p.IsBinding != nil)
	a.reject("fontFamily", a.p.FontFamily != nil)
	a.reject("fontStyle", a.p.FontStyle != nil)
	a.reject("textAlign", a.p.TextAlign != nil)
}

func (a *patcher) reject(field string, set bool) {
	if set {
		a.invalid = append(a.invalid, field)
	}
}

// DesignPatch is a partial update of a template's design-level fields.
type DesignPatch struct {
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	TextColor       *string  `json:"textColor,omitempty"`
	FontFamily      *string  `json:"fontFamily,omitempty"`
	Layout          *string  `json:"layout,omitempty"`
	AspectRatio     *string  `json:"aspectRatio,omitempty"`
	ReferenceWidth  *float64 `json:"referenceWidth,omitempty"`
	ReferenceHeight *float64 `json:"referenceHeight,omitempty"`
}

func (p DesignPatch) apply(d *template.Design) {
	setString(&d.BackgroundColor, p.BackgroundColor)
	setString(&d.TextColor, p.TextColor)
	setString(&d.FontFamily, p.FontFamily)
	setString(&d.Layout, p.Layout)
	setString(&d.AspectRatio, p.AspectRatio)
	setFloat(&d.ReferenceWidth, p.ReferenceWidth)
	setFloat(&d.ReferenceHeight, p.ReferenceHeight)
}

// MetaPatch is a partial update of a template's catalog metadata.
type MetaPatch struct {
	Name       *string   `json:"name,omitempty"`
	Category   *string   `json:"category,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	IsActive   *bool     `json:"isActive,omitempty"`
	IsFeatured *bool     `json:"isFeatured,omitempty"`
}

func (p MetaPatch) apply(t *template.Template) {
	setString(&t.Name, p.Name)
	setString(&t.Category, p.Category)
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if p.IsFeatured != nil {
		t.IsFeatured = *p.IsFeatured
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
