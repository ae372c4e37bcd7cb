package draft

import (
	"context"

	"github.com/matzehuels/cardsmith/pkg/template"
)

// Saver persists committed templates. store.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, t template.Template) error
}

// CommitTo commits d and saves the new version with s.
//
// A validation failure returns the rejected draft, as [Draft.Commit] does.
// A save failure (typically VERSION_CONFLICT because another editor
// committed first) returns d unchanged so the caller can rebase and retry.
func (d Draft) CommitTo(ctx context.Context, s Saver) (template.Template, Draft, error) {
	committed, next, err := d.Commit()
	if err != nil {
		return template.Template{}, next, err
	}
	if err := s.Save(ctx, committed); err != nil {
		return template.Template{}, d, err
	}
	return committed, next, nil
}

// New starts a draft for a template that has never been committed: id set,
// version 0, so the first commit produces version 1.
func New(id string, opts ...Option) Draft {
	return Open(template.Template{ID: id}, opts...)
}
