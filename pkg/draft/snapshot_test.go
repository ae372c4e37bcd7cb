package draft

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/cardsmith/pkg/template"
)

func TestSnapshotRestoreKeepsRejection(t *testing.T) {
	d := Open(template.Default(), counterIDs())
	d = d.UpdateDesign(DesignPatch{AspectRatio: String("")})
	_, rejected, err := d.Commit()
	if err == nil {
		t.Fatal("commit with an empty aspect ratio should fail")
	}

	data, err := json.Marshal(rejected.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	restored := Restore(snap, counterIDs())

	if restored.State() != StateRejected {
		t.Errorf("State() = %q, want %q", restored.State(), StateRejected)
	}
	if diff := cmp.Diff(rejected.Errors(), restored.Errors()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if !restored.Dirty() {
		t.Error("restored draft lost its edits")
	}
	if restored.Base().Version != template.Default().Version {
		t.Errorf("Base().Version = %d, want %d", restored.Base().Version, template.Default().Version)
	}

	// Editing the restored draft works like editing the original.
	next, id := restored.AddElement(template.Shape{Width: 1, Height: 1})
	if id != "el-1" || next.State() != StateEditing {
		t.Errorf("AddElement after restore = %q in %q", id, next.State())
	}
}

func TestRestoreMidCommitIsEditing(t *testing.T) {
	for _, s := range []State{"", StateEditing, StateValidating} {
		d := Restore(Snapshot{Base: template.Default(), Working: template.Default(), State: s})
		if d.State() != StateEditing {
			t.Errorf("Restore(state %q).State() = %q, want editing", s, d.State())
		}
	}
}
