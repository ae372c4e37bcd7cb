package draft

import (
	"context"
	"testing"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// latestSaver accepts only latest+1, like a real store.
type latestSaver struct {
	latest map[string]int
	saved  []template.Template
}

func (s *latestSaver) Save(_ context.Context, t template.Template) error {
	if t.Version != s.latest[t.ID]+1 {
		return errors.New(errors.ErrCodeVersionConflict, "conflict")
	}
	s.latest[t.ID] = t.Version
	s.saved = append(s.saved, t)
	return nil
}

func TestCommitToSavesNewVersion(t *testing.T) {
	s := &latestSaver{latest: map[string]int{}}

	submitted := template.Default()
	submitted.ID = "ignored"
	d := New("fresh").Replace(submitted)

	got, next, err := d.CommitTo(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "fresh" || got.Version != 1 {
		t.Errorf("committed %s v%d, want fresh v1", got.ID, got.Version)
	}
	if next.State() != StateCommitted || len(s.saved) != 1 {
		t.Errorf("state %s, saved %d", next.State(), len(s.saved))
	}
}

func TestCommitToConflictKeepsDraft(t *testing.T) {
	base := template.Default()
	s := &latestSaver{latest: map[string]int{base.ID: 2}} // someone else committed v2

	d := Open(base).UpdateMeta(MetaPatch{Name: String("Mine")})
	_, back, err := d.CommitTo(context.Background(), s)
	if !errors.Is(err, errors.ErrCodeVersionConflict) {
		t.Fatalf("err = %v, want VERSION_CONFLICT", err)
	}
	if back.State() != StateEditing || back.Working().Name != "Mine" {
		t.Errorf("draft not preserved: state %s name %q", back.State(), back.Working().Name)
	}
}

func TestCommitToInvalidNeverSaves(t *testing.T) {
	s := &latestSaver{latest: map[string]int{}}
	_, back, err := New("empty").CommitTo(context.Background(), s)
	if !errors.Is(err, errors.ErrCodeInvalidTemplate) {
		t.Fatalf("err = %v, want INVALID_TEMPLATE", err)
	}
	if back.State() != StateRejected || len(s.saved) != 0 {
		t.Errorf("state %s, saved %d", back.State(), len(s.saved))
	}
}
