// Package store persists versioned templates.
//
// Every backend keeps each committed version of a template and enforces the
// same optimistic concurrency rule on [Store.Save]: the incoming version must
// be exactly one more than the latest stored version (1 for a new id).
// A concurrent editor that committed first wins; the loser gets
// VERSION_CONFLICT and must reopen its draft from the new latest version.
//
// Backends:
//   - [MemoryStore]: process-local, for tests and one-shot CLI runs
//   - [FileStore]: one JSON document per version under a directory
//   - [MongoStore]: one MongoDB document per version
package store

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// Store is a versioned template catalog.
type Store interface {
	// Get returns the latest version of the template with the given id.
	Get(ctx context.Context, id string) (template.Template, error)
	// GetVersion returns one specific version.
	GetVersion(ctx context.Context, id string, version int) (template.Template, error)
	// Save stores t as a new version. t.Version must be latest+1.
	Save(ctx context.Context, t template.Template) error
	// List returns the latest version of every template matching f, by id.
	List(ctx context.Context, f Filter) ([]template.Template, error)
	Close() error
}

// Filter narrows [Store.List]. Zero fields match everything.
type Filter struct {
	Category string
	Tag      string
	Active   *bool
	Featured *bool
}

// Matches reports whether t passes the filter.
func (f Filter) Matches(t template.Template) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, t.Category) {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	if f.Active != nil && *f.Active != t.IsActive {
		return false
	}
	if f.Featured != nil && *f.Featured != t.IsFeatured {
		return false
	}
	return true
}

// checkSave validates t and its version against the latest stored version
// (0 when the id is new).
func checkSave(t template.Template, latest int) error {
	if err := template.Validate(t).Err(); err != nil {
		return err
	}
	if t.Version != latest+1 {
		return errors.New(errors.ErrCodeVersionConflict,
			"template %q: cannot save version %d, latest is %d", t.ID, t.Version, latest)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeTemplateNotFound, "template %q not found", id)
}

func versionNotFound(id string, version int) error {
	return errors.New(errors.ErrCodeTemplateNotFound, "template %q has no version %d", id, version)
}

// filterSorted applies f to latest-version templates and sorts them by id.
func filterSorted(latest []template.Template, f Filter) []template.Template {
	out := make([]template.Template, 0, len(latest))
	for _, t := range latest {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b template.Template) int { return strings.Compare(a.ID, b.ID) })
	return out
}
