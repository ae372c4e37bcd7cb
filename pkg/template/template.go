package template

import "slices"

// =============================================================================
// Template - Versioned Design Document
// =============================================================================

// Template is a versioned visual design for visiting cards.
// Version is assigned by the persistence layer on commit and increases
// monotonically; clients never set it.
type Template struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IsActive   bool     `json:"isActive"`
	IsFeatured bool     `json:"isFeatured"`
	Version    int      `json:"version"`
	Design     Design   `json:"design"`
}

// Design holds the visual part of a Template.
type Design struct {
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	TextColor       string   `json:"textColor,omitempty"`
	FontFamily      string   `json:"fontFamily,omitempty"`
	Layout          string   `json:"layout,omitempty"`
	AspectRatio     string   `json:"aspectRatio"`
	ReferenceWidth  float64  `json:"referenceWidth"`
	ReferenceHeight float64  `json:"referenceHeight"`
	Elements        Elements `json:"elements"`
}

// Clone returns a deep copy that shares no mutable state with t.
// Element values are plain structs, so copying the slice copies them.
func (t Template) Clone() Template {
	out := t
	out.Tags = slices.Clone(t.Tags)
	out.Design.Elements = slices.Clone(t.Design.Elements)
	return out
}

// Element returns the element with the given id and its index.
func (t Template) Element(id string) (Element, int, bool) {
	for i, el := range t.Design.Elements {
		if el.ElementID() == id {
			return el, i, true
		}
	}
	return nil, -1, false
}

// HasTag reports whether the template carries tag.
func (t Template) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}
