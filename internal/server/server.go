// Package server exposes the render pipeline and the template catalog over
// HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/v1/templates                 ?category= &tag= &active= &featured=
//	GET  /api/v1/templates/{id}            ?version=
//	PUT  /api/v1/templates/{id}            commit a new version
//	POST /api/v1/templates/validate
//	POST /api/v1/render                    ?format=svg|png|json
//
// Builder drafts, parked in a [session.Store] between requests:
//
//	POST   /api/v1/drafts                        open {templateId, baseVersion}
//	GET    /api/v1/drafts/{sid}
//	PUT    /api/v1/drafts/{sid}                  replace the working copy
//	DELETE /api/v1/drafts/{sid}                  discard
//	PATCH  /api/v1/drafts/{sid}/design
//	PATCH  /api/v1/drafts/{sid}/meta
//	POST   /api/v1/drafts/{sid}/elements         add on top, reports elementId
//	PATCH  /api/v1/drafts/{sid}/elements/{eid}
//	DELETE /api/v1/drafts/{sid}/elements/{eid}
//	POST   /api/v1/drafts/{sid}/elements/{eid}/move  {index}
//	POST   /api/v1/drafts/{sid}/preview          ?format= render the working copy
//	POST   /api/v1/drafts/{sid}/commit
//
// Errors are JSON {code, message} with the status derived from the code.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cardsmith/pkg/buildinfo"
	"github.com/matzehuels/cardsmith/pkg/observability"
	"github.com/matzehuels/cardsmith/pkg/pipeline"
	"github.com/matzehuels/cardsmith/pkg/session"
	"github.com/matzehuels/cardsmith/pkg/store"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithPreset sets the surface preset used when a render request names
// neither a surface nor a preset.
func WithPreset(name string) Option {
	return func(s *Server) { s.preset = name }
}

// WithDrafts parks builder drafts in ds for ttl after their last edit.
// Without it drafts live in process memory for [session.DefaultTTL].
func WithDrafts(ds session.Store, ttl time.Duration) Option {
	return func(s *Server) {
		s.drafts = ds
		if ttl > 0 {
			s.draftTTL = ttl
		}
	}
}

// Server holds the chi router and the pipeline it serves.
type Server struct {
	router   chi.Router
	runner   *pipeline.Runner
	store    store.Store
	drafts   session.Store
	draftTTL time.Duration
	logger   *log.Logger
	preset   string
}

// New creates a Server with all routes configured. Templates are read from
// and committed to the runner's store.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{
		runner: runner,
		store:  runner.Store,
		logger: logger,
		preset: pipeline.DefaultPreset,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.drafts == nil {
		s.drafts = session.NewMemoryStore()
	}
	if s.draftTTL <= 0 {
		s.draftTTL = session.DefaultTTL
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates/validate", s.handleValidate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Put("/templates/{id}", s.handleCommitTemplate)
		r.Post("/render", s.handleRender)

		r.Post("/drafts", s.handleOpenDraft)
		r.Route("/drafts/{sid}", func(r chi.Router) {
			r.Get("/", s.handleGetDraft)
			r.Put("/", s.handleReplaceDraft)
			r.Delete("/", s.handleDiscardDraft)
			r.Patch("/design", s.handlePatchDesign)
			r.Patch("/meta", s.handlePatchMeta)
			r.Post("/elements", s.handleAddElement)
			r.Patch("/elements/{eid}", s.handlePatchElement)
			r.Delete("/elements/{eid}", s.handleRemoveElement)
			r.Post("/elements/{eid}/move", s.handleMoveElement)
			r.Post("/preview", s.handlePreviewDraft)
			r.Post("/commit", s.handleCommitDraft)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFoundRoute(r))
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusRecorder captures the status and size of a response for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Server", buildinfo.UserAgent())
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.bytes,
			"duration", elapsed.Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
	})
}
