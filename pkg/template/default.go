package template

// DefaultID is the id of the built-in fallback template.
const DefaultID = "default"

// Default returns a fresh copy of the built-in fallback template: a gradient
// backdrop covering the canvas and one centered Text bound to fullName.
//
// Callers substitute it when a card's template is absent or fails to load, and
// render it through the normal pipeline; see [OrDefault].
func Default() Template {
	return Template{
		ID:       DefaultID,
		Name:     "Default",
		Category: "basic",
		IsActive: true,
		Version:  1,
		Design: Design{
			BackgroundColor: "#667eea",
			TextColor:       "#ffffff",
			FontFamily:      "Inter, sans-serif",
			Layout:          "centered",
			AspectRatio:     AspectStandard,
			ReferenceWidth:  700,
			ReferenceHeight: 400,
			Elements: Elements{
				Shape{
					ID:     "background",
					X:      0,
					Y:      0,
					Width:  700,
					Height: 400,
					Fill:   "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
				},
				Text{
					ID:        "name",
					X:         350,
					Y:         200,
					Content:   "fullName",
					IsBinding: true,
					FontSize:  36,
					Fill:      "#ffffff",
					FontStyle: "bold",
					TextAlign: AlignCenter,
				},
			},
		},
	}
}

// OrDefault returns a copy of *t, or [Default] when t is nil.
func OrDefault(t *Template) Template {
	if t == nil {
		return Default()
	}
	return t.Clone()
}
