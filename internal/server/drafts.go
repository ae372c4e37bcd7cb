package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/cardsmith/pkg/draft"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/session"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// openDraftRequest is the body of POST /api/v1/drafts. An empty
// BaseVersion opens the latest version; a template that does not exist yet
// starts a fresh draft.
type openDraftRequest struct {
	TemplateID  string `json:"templateId"`
	BaseVersion int    `json:"baseVersion,omitempty"`
}

// draftView is how a parked draft is shown to the builder.
type draftView struct {
	ID          string                    `json:"id"`
	TemplateID  string                    `json:"templateId"`
	BaseVersion int                       `json:"baseVersion"`
	State       draft.State               `json:"state"`
	Dirty       bool                      `json:"dirty"`
	Errors      template.ValidationErrors `json:"errors"`
	Working     template.Template         `json:"working"`
	ExpiresAt   time.Time                 `json:"expiresAt"`

	// ElementID is the id assigned by an element add.
	ElementID string `json:"elementId,omitempty"`
}

func newDraftView(sess *session.Session) draftView {
	d := sess.Draft()
	errs := d.Errors()
	if errs == nil {
		errs = template.ValidationErrors{}
	}
	base := d.Base()
	return draftView{
		ID:          sess.ID,
		TemplateID:  base.ID,
		BaseVersion: base.Version,
		State:       d.State(),
		Dirty:       d.Dirty(),
		Errors:      errs,
		Working:     d.Working(),
		ExpiresAt:   sess.ExpiresAt,
	}
}

func (s *Server) handleOpenDraft(w http.ResponseWriter, r *http.Request) {
	var req openDraftRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateSlug(req.TemplateID); err != nil {
		writeError(w, err)
		return
	}

	var (
		base template.Template
		err  error
	)
	if req.BaseVersion > 0 {
		base, err = s.store.GetVersion(r.Context(), req.TemplateID, req.BaseVersion)
	} else {
		base, err = s.store.Get(r.Context(), req.TemplateID)
	}

	var d draft.Draft
	switch {
	case err == nil:
		d = draft.Open(base)
	case errors.IsNotFound(err) && req.BaseVersion == 0:
		d = draft.New(req.TemplateID)
	default:
		writeError(w, err)
		return
	}

	sess, err := session.New(d, s.draftTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.drafts.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("opened draft", "session", sess.ID, "template", req.TemplateID, "base", base.Version)
	writeJSON(w, http.StatusCreated, newDraftView(sess))
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	sess, err := s.drafts.Get(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(sess))
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.drafts.Delete(r.Context(), chi.URLParam(r, "sid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// editDraft applies fn to the parked draft and writes the updated view.
func (s *Server) editDraft(w http.ResponseWriter, r *http.Request, fn func(draft.Draft) (draft.Draft, error)) {
	if sess, ok := s.updateDraft(w, r, fn); ok {
		writeJSON(w, http.StatusOK, newDraftView(sess))
	}
}

// updateDraft loads the session, applies fn and parks the result with a
// renewed expiry. On failure the error is already written and ok is false.
func (s *Server) updateDraft(w http.ResponseWriter, r *http.Request, fn func(draft.Draft) (draft.Draft, error)) (*session.Session, bool) {
	sess, err := s.drafts.Get(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	next, err := fn(sess.Draft())
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	sess.Update(next, s.draftTTL)
	if err := s.drafts.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleReplaceDraft(w http.ResponseWriter, r *http.Request) {
	var t template.Template
	if err := decodeBody(w, r, &t); err != nil {
		writeError(w, err)
		return
	}
	s.editDraft(w, r, func(d draft.Draft) (draft.Draft, error) {
		return d.Replace(t), nil
	})
}

func (s *Server) handlePatchDesign(w http.ResponseWriter, r *http.Request) {
	var p draft.DesignPatch
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	s.editDraft(w, r, func(d draft.Draft) (draft.Draft, error) {
		return d.UpdateDesign(p), nil
	})
}

func (s *Server) handlePatchMeta(w http.ResponseWriter, r *http.Request) {
	var p draft.MetaPatch
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	s.editDraft(w, r, func(d draft.Draft) (draft.Draft, error) {
		return d.UpdateMeta(p), nil
	})
}

func (s *Server) handleAddElement(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, err)
		return
	}
	var els template.Elements
	if err := json.Unmarshal(append(append([]byte{'['}, raw...), ']'), &els); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid element"))
		return
	}
	var added string
	sess, ok := s.updateDraft(w, r, func(d draft.Draft) (draft.Draft, error) {
		next, id := d.AddElement(els[0])
		added = id
		return next, nil
	})
	if !ok {
		return
	}
	view := newDraftView(sess)
	view.ElementID = added
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePatchElement(w http.ResponseWriter, r *http.Request) {
	var p draft.Patch
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "eid")
	s.editDraft(w, r, func(d draft.Draft) (draft.Draft, error) {
		return d.UpdateElement(id, p)
	})
}

func (s *Server) handleRemoveElement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eid")
	s.editDraft(w, r, func(d draft.Draft) (draft.Draft, error) {
		return d.RemoveElement(id)
	})
}

func (s *Server) handleMoveElement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Index == nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "index is required"))
		return
	}
	id := chi.URLParam(r, "eid")
	s.editDraft(w, r, func(d draft.Draft) (draft.Draft, error) {
		return d.Reorder(id, *req.Index)
	})
}

// handlePreviewDraft renders the working copy, as POST /api/v1/render does
// for an inline template.
func (s *Server) handlePreviewDraft(w http.ResponseWriter, r *http.Request) {
	sess, err := s.drafts.Get(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, err)
		return
	}
	working := sess.Draft().Working()
	s.render(w, r, func(req *renderRequest) {
		req.TemplateID, req.Version = "", 0
		req.Template = &working
	})
}

// handleCommitDraft validates the working copy and saves it as the next
// version. A rejected draft stays parked with its errors so the builder can
// fix them; a version conflict leaves the draft untouched.
func (s *Server) handleCommitDraft(w http.ResponseWriter, r *http.Request) {
	sess, err := s.drafts.Get(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, err)
		return
	}

	committed, next, err := sess.Draft().CommitTo(r.Context(), s.store)
	if err != nil && next.State() != draft.StateRejected {
		writeError(w, err)
		return
	}

	sess.Update(next, s.draftTTL)
	if serr := s.drafts.Set(r.Context(), sess); serr != nil {
		writeError(w, serr)
		return
	}

	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Code:    errors.ErrCodeInvalidTemplate,
			Message: errors.UserMessage(err),
			Details: next.Errors(),
		})
		return
	}

	s.logger.Info("committed template", "template", committed.ID, "version", committed.Version, "session", sess.ID)
	writeJSON(w, http.StatusCreated, committed)
}
