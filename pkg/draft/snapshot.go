package draft

import (
	"slices"

	"github.com/matzehuels/cardsmith/pkg/template"
)

// Snapshot is the serializable form of a Draft, used to park an edit
// session between requests.
type Snapshot struct {
	Base    template.Template         `json:"base"`
	Working template.Template         `json:"working"`
	State   State                     `json:"state"`
	Errors  template.ValidationErrors `json:"errors,omitempty"`
}

// Snapshot captures d. Restoring the result yields an equivalent draft.
func (d Draft) Snapshot() Snapshot {
	return Snapshot{
		Base:    d.base.Clone(),
		Working: d.working.Clone(),
		State:   d.state,
		Errors:  slices.Clone(d.errs),
	}
}

// Restore rebuilds a draft from a snapshot. A snapshot caught mid-commit
// comes back in state Editing; an empty state means Editing too.
func Restore(s Snapshot, opts ...Option) Draft {
	d := Open(s.Base, opts...)
	d.working = s.Working.Clone()
	d.errs = slices.Clone(s.Errors)
	switch s.State {
	case StateCommitted, StateRejected:
		d.state = s.State
	}
	return d
}
