// Package draft implements the builder session used to edit templates.
//
// A Draft is an in-memory, copy-on-write working copy of one committed
// Template version. Every operation returns a new Draft value; neither the
// base Template nor earlier drafts are ever modified, so the "live" version and
// the one being edited can never alias.
//
// # Lifecycle
//
//	Editing --Commit--> Validating --ok--> Committed
//	                               \-fail-> Rejected --edit--> Editing
//
// Commit validates the working copy. On success it returns an immutable
// Template with Version = base.Version + 1 and a Draft rebased on it. On
// failure it returns the working copy untouched, in state Rejected, with the
// validation errors attached; the errors stay visible until the next Commit.
//
// A Draft has a single writer. Two admins editing the same template need
// version-checked saves (see package store), not a shared Draft.
package draft

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// State is a position in the draft lifecycle.
type State string

// Draft states.
const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateCommitted  State = "committed"
	StateRejected   State = "rejected"
)

// Option configures a Draft.
type Option func(*config)

type config struct {
	newID  func() string
	onMove func(from, to State)
}

// WithIDFunc overrides how fresh element ids are generated.
func WithIDFunc(fn func() string) Option {
	return func(c *config) { c.newID = fn }
}

// WithTransitionHook registers fn to observe every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(c *config) { c.onMove = fn }
}

// NewElementID returns a fresh element id such as "el-1b4e28ba".
func NewElementID() string {
	return "el-" + uuid.NewString()[:8]
}

// Draft is a working copy of a Template. The zero value is not usable; call Open.
type Draft struct {
	base    template.Template
	working template.Template
	state   State
	errs    template.ValidationErrors
	cfg     *config
}

// Open starts an edit session on base.
func Open(base template.Template, opts ...Option) Draft {
	cfg := &config{newID: NewElementID}
	for _, opt := range opts {
		opt(cfg)
	}
	return Draft{
		base:    base.Clone(),
		working: base.Clone(),
		state:   StateEditing,
		cfg:     cfg,
	}
}

// Base returns a copy of the version the draft started from.
func (d Draft) Base() template.Template { return d.base.Clone() }

// Working returns a copy of the current working document.
// It can be rendered directly for a live builder preview.
func (d Draft) Working() template.Template { return d.working.Clone() }

// State returns the lifecycle state.
func (d Draft) State() State { return d.state }

// Errors returns the validation errors of the last rejected commit.
func (d Draft) Errors() template.ValidationErrors { return slices.Clone(d.errs) }

// Dirty reports whether the working copy differs from the base in any element
// or field.
func (d Draft) Dirty() bool {
	a, errA := template.Marshal(d.base)
	b, errB := template.Marshal(d.working)
	return errA != nil || errB != nil || string(a) != string(b)
}

// AddElement appends el on top of the z-order under a fresh id and returns the
// new draft and the id. Any id already set on el is replaced.
func (d Draft) AddElement(el template.Element) (Draft, string) {
	id := d.freshID()
	next := d.edit()
	next.working.Design.Elements = append(next.working.Design.Elements, template.WithID(el, id))
	return next, id
}

// UpdateElement applies a partial update to the element with the given id.
// Setting a field that the element's kind does not have is an error.
func (d Draft) UpdateElement(id string, p Patch) (Draft, error) {
	el, idx, ok := d.working.Element(id)
	if !ok {
		return d, errors.New(errors.ErrCodeNotFound, "element %q not found", id)
	}

	updated, err := p.apply(el)
	if err != nil {
		return d, err
	}

	next := d.edit()
	next.working.Design.Elements[idx] = updated
	return next, nil
}

// RemoveElement deletes the element with the given id.
func (d Draft) RemoveElement(id string) (Draft, error) {
	_, idx, ok := d.working.Element(id)
	if !ok {
		return d, errors.New(errors.ErrCodeNotFound, "element %q not found", id)
	}

	next := d.edit()
	next.working.Design.Elements = slices.Delete(next.working.Design.Elements, idx, idx+1)
	return next, nil
}

// Reorder moves the element with the given id to newIndex in the paint order
// (0 is the back). newIndex must address an existing slot.
func (d Draft) Reorder(id string, newIndex int) (Draft, error) {
	el, idx, ok := d.working.Element(id)
	if !ok {
		return d, errors.New(errors.ErrCodeNotFound, "element %q not found", id)
	}
	n := len(d.working.Design.Elements)
	if newIndex < 0 || newIndex >= n {
		return d, errors.New(errors.ErrCodeInvalidInput, "index %d out of range [0, %d]", newIndex, n-1)
	}

	next := d.edit()
	els := slices.Delete(next.working.Design.Elements, idx, idx+1)
	next.working.Design.Elements = slices.Insert(els, newIndex, el)
	return next, nil
}

// UpdateDesign applies a partial update to the design-level fields.
func (d Draft) UpdateDesign(p DesignPatch) Draft {
	next := d.edit()
	p.apply(&next.working.Design)
	return next
}

// UpdateMeta applies a partial update to the catalog metadata.
func (d Draft) UpdateMeta(p MetaPatch) Draft {
	next := d.edit()
	p.apply(&next.working)
	return next
}

// Replace swaps in a whole submitted document, as a builder does when it
// saves its full state. The id and version stay those of the base; clients
// never choose them.
func (d Draft) Replace(submitted template.Template) Draft {
	next := d.edit()
	next.working = submitted.Clone()
	next.working.ID = d.base.ID
	next.working.Version = d.base.Version
	return next
}

// Commit validates the working copy.
//
// On success it returns the new immutable Template (Version = base.Version+1)
// and a Draft rebased on it in state Committed. On failure it returns a zero
// Template, the draft in state Rejected with Errors set, and an
// INVALID_TEMPLATE error wrapping the same list.
func (d Draft) Commit() (template.Template, Draft, error) {
	d.transition(StateValidating)

	candidate := d.working.Clone()
	candidate.ID = d.base.ID
	candidate.Version = d.base.Version

	if errs := template.Validate(candidate); len(errs) > 0 {
		rejected := d
		rejected.errs = errs
		rejected.transition(StateRejected)
		return template.Template{}, rejected, errs.Err()
	}

	candidate.Version = d.base.Version + 1
	committed := Draft{
		base:    candidate.Clone(),
		working: candidate.Clone(),
		cfg:     d.cfg,
		state:   StateValidating,
	}
	committed.transition(StateCommitted)
	return candidate, committed, nil
}

// edit returns a copy-on-write successor in state Editing.
// Errors from a rejected commit stay attached until the next Commit.
func (d Draft) edit() Draft {
	next := d
	next.working = d.working.Clone()
	next.errs = slices.Clone(d.errs)
	if d.state != StateEditing {
		next.transition(StateEditing)
	}
	return next
}

func (d *Draft) transition(to State) {
	from := d.state
	d.state = to
	if d.cfg != nil && d.cfg.onMove != nil && from != to {
		d.cfg.onMove(from, to)
	}
}

// maxIDAttempts bounds retries of a custom id function that keeps colliding.
const maxIDAttempts = 16

func (d Draft) freshID() string {
	for i := 0; i < maxIDAttempts; i++ {
		id := d.cfg.newID()
		if _, _, taken := d.working.Element(id); !taken && id != "" {
			return id
		}
	}
	for {
		id := "el-" + uuid.NewString()
		if _, _, taken := d.working.Element(id); !taken {
			return id
		}
	}
}
