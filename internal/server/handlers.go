package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/cardsmith/pkg/buildinfo"
	"github.com/matzehuels/cardsmith/pkg/card"
	"github.com/matzehuels/cardsmith/pkg/draft"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/pipeline"
	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/store"
	"github.com/matzehuels/cardsmith/pkg/template"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
}

// renderRequest is the body of POST /api/v1/render.
type renderRequest struct {
	TemplateID string             `json:"templateId,omitempty"`
	Version    int                `json:"version,omitempty"`
	Template   *template.Template `json:"template,omitempty"`
	Card       card.Record        `json:"card"`
	Owner      card.Record        `json:"owner,omitempty"`
	Surface    *render.Surface    `json:"surface,omitempty"`
	Preset     string             `json:"preset,omitempty"`
	HitRegions bool               `json:"hitRegions,omitempty"`
}

// commitRequest is the body of PUT /api/v1/templates/{id}. BaseVersion is
// the version the editor started from, 0 for a new template.
type commitRequest struct {
	BaseVersion int               `json:"baseVersion"`
	Template    template.Template `json:"template"`
}

type validateResponse struct {
	Valid  bool                      `json:"valid"`
	Errors template.ValidationErrors `json:"errors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{Category: q.Get("category"), Tag: q.Get("tag")}

	var err error
	if f.Active, err = boolParam(q.Get("active"), "active"); err != nil {
		writeError(w, err)
		return
	}
	if f.Featured, err = boolParam(q.Get("featured"), "featured"); err != nil {
		writeError(w, err)
		return
	}

	list, err := s.store.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []template.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": list})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		t   template.Template
		err error
	)
	if v := r.URL.Query().Get("version"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil || n < 1 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "version must be a positive integer, got %q", v))
			return
		}
		t, err = s.store.GetVersion(r.Context(), id, n)
	} else {
		t, err = s.store.Get(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCommitTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSlug(id); err != nil {
		writeError(w, err)
		return
	}

	var req commitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	d := draft.New(id)
	if req.BaseVersion > 0 {
		base, err := s.store.GetVersion(r.Context(), id, req.BaseVersion)
		if err != nil {
			writeError(w, err)
			return
		}
		d = draft.Open(base)
	}

	committed, rejected, err := d.Replace(req.Template).CommitTo(r.Context(), s.store)
	if err != nil {
		if rejected.State() == draft.StateRejected {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{
				Code:    errors.ErrCodeInvalidTemplate,
				Message: errors.UserMessage(err),
				Details: rejected.Errors(),
			})
			return
		}
		writeError(w, err)
		return
	}

	s.logger.Info("committed template", "template", committed.ID, "version", committed.Version)
	writeJSON(w, http.StatusCreated, committed)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var t template.Template
	if err := decodeBody(w, r, &t); err != nil {
		writeError(w, err)
		return
	}
	errs := template.Validate(t)
	if errs == nil {
		errs = template.ValidationErrors{}
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: len(errs) == 0, Errors: errs})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, nil)
}

// render decodes a renderRequest, lets adjust override parts of it and
// writes the single requested artifact.
func (s *Server) render(w http.ResponseWriter, r *http.Request, adjust func(*renderRequest)) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}

	var req renderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if adjust != nil {
		adjust(&req)
	}

	opts := pipeline.Options{
		TemplateID: req.TemplateID,
		Version:    req.Version,
		Template:   req.Template,
		Preset:     req.Preset,
		Formats:    []string{format},
		HitRegions: req.HitRegions,
	}
	if opts.Preset == "" {
		opts.Preset = s.preset
	}
	if req.Surface != nil {
		opts.Surface = *req.Surface
	}

	res, err := s.runner.Execute(r.Context(), opts, req.Card, req.Owner)
	if err != nil {
		writeError(w, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("X-Cardsmith-Template", res.Template.ID+"@"+strconv.Itoa(res.Template.Version))
	h.Set("X-Cardsmith-Warnings", strconv.Itoa(res.Stats.WarningCount))
	if res.DefaultUsed {
		h.Set("X-Cardsmith-Default-Template", "true")
	}
	if res.CacheInfo.SceneHit && res.CacheInfo.ArtifactHit {
		h.Set("X-Cache", "hit")
	} else {
		h.Set("X-Cache", "miss")
	}
	h.Set("ETag", `"`+res.SceneHash+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// decodeBody reads one JSON value from the request body. Numbers inside
// card records stay json.Number so large counters survive.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooBig):
			return errors.New(errors.ErrCodeInvalidInput, "request body larger than %d bytes", tooBig.Limit)
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		case errors.GetCode(err) != "":
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

func boolParam(v, name string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s must be true or false, got %q", name, v)
	}
	return &b, nil
}
