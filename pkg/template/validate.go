package template

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/cardsmith/pkg/errors"
)

// ValidationError is one authoring problem found by [Validate].
type ValidationError struct {
	Path      string `json:"path"`                // e.g. "design.elements[2].fontSize"
	ElementID string `json:"elementId,omitempty"` // set for element-level problems
	Message   string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}

// ValidationErrors is the full list of problems in a Template.
type ValidationErrors []ValidationError

// Error joins every message.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when es is empty, otherwise an INVALID_TEMPLATE error
// wrapping es. Use errors.As to get the list back.
func (es ValidationErrors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidTemplate, es, "template has %d validation error(s)", len(es))
}

// Validate checks t and returns every problem found; it never stops early.
//
// Rules:
//   - id is a valid slug (uniqueness across the catalog is the store's job)
//   - aspectRatio is a preset or a positive "W:H"
//   - referenceWidth and referenceHeight are positive
//   - every element has a non-empty id, unique within the template
//   - Text fontSize > 0; Shape and Image width, height > 0
//
// Elements outside the reference canvas are accepted; the renderer clamps them.
func Validate(t Template) ValidationErrors {
	var errs ValidationErrors
	add := func(path, elementID, format string, args ...any) {
		errs = append(errs, ValidationError{Path: path, ElementID: elementID, Message: fmt.Sprintf(format, args...)})
	}

	if err := errors.ValidateSlug(t.ID); err != nil {
		add("id", "", "%s", errors.UserMessage(err))
	}

	d := t.Design
	if _, err := ParseAspectRatio(d.AspectRatio); err != nil {
		add("design.aspectRatio", "", "%s", errors.UserMessage(err))
	}
	if !positive(d.ReferenceWidth) {
		add("design.referenceWidth", "", "must be greater than 0, got %v", d.ReferenceWidth)
	}
	if !positive(d.ReferenceHeight) {
		add("design.referenceHeight", "", "must be greater than 0, got %v", d.ReferenceHeight)
	}

	seen := make(map[string]int, len(d.Elements))
	for i, el := range d.Elements {
		base := fmt.Sprintf("design.elements[%d]", i)
		if el == nil {
			add(base, "", "element is empty")
			continue
		}

		id := el.ElementID()
		switch prev, dup := seen[id]; {
		case id == "":
			add(base+".id", "", "element id is required")
		case dup:
			add(base+".id", id, "duplicate element id %q (first used by elements[%d])", id, prev)
		default:
			seen[id] = i
		}

		v := &elementValidator{path: base, id: id, add: add}
		el.Accept(v)
	}

	return errs
}

// elementValidator applies the per-variant rules.
type elementValidator struct {
	path string
	id   string
	add  func(path, elementID, format string, args ...any)
}

func (v *elementValidator) VisitText(e Text) {
	if !positive(e.FontSize) {
		v.add(v.path+".fontSize", v.id, "must be greater than 0, got %v", e.FontSize)
	}
	if e.IsBinding && strings.TrimSpace(e.Content) == "" {
		v.add(v.path+".content", v.id, "binding needs a field name")
	}
	switch e.TextAlign {
	case "", AlignLeft, AlignCenter, AlignRight:
	default:
		v.add(v.path+".textAlign", v.id, "must be left, center or right, got %q", e.TextAlign)
	}
	v.position(e.X, e.Y)
}

func (v *elementValidator) VisitShape(e Shape) {
	v.size(e.Width, e.Height)
	v.position(e.X, e.Y)
}

func (v *elementValidator) VisitImage(e Image) {
	v.size(e.Width, e.Height)
	v.position(e.X, e.Y)
}

func (v *elementValidator) size(w, h float64) {
	if !positive(w) {
		v.add(v.path+".width", v.id, "must be greater than 0, got %v", w)
	}
	if !positive(h) {
		v.add(v.path+".height", v.id, "must be greater than 0, got %v", h)
	}
}

// position only rejects values no renderer could clamp.
func (v *elementValidator) position(x, y float64) {
	if !finite(x) {
		v.add(v.path+".x", v.id, "must be a finite number")
	}
	if !finite(y) {
		v.add(v.path+".y", v.id, "must be a finite number")
	}
}

func positive(f float64) bool { return f > 0 && finite(f) }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
