package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/pipeline"
	"github.com/matzehuels/cardsmith/pkg/store"
	"github.com/matzehuels/cardsmith/pkg/template"
)

func sample(id string, v int) template.Template {
	t := template.Default()
	t.ID, t.Version, t.Name = id, v, id
	return t
}

// newTestServer returns a server over a memory store holding "modern" v1
// (active, featured, tagged blue) and "plain" v1 (inactive).
func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	modern := sample("modern", 1)
	modern.Category, modern.Tags, modern.IsFeatured = "business", []string{"blue"}, true
	plain := sample("plain", 1)
	plain.IsActive = false

	s, err := store.NewMemoryStore(modern, plain)
	if err != nil {
		t.Fatal(err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(s, cache.NewMemoryCache(0), nil, logger)
	return New(runner, logger), s
}

func do(t *testing.T, srv *Server, method, target, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w.Result()
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func wantError(t *testing.T, resp *http.Response, status int, code errors.Code) {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	body := decode[errorBody](t, resp)
	if body.Code != code {
		t.Errorf("code = %s, want %s (message %q)", body.Code, code, body.Message)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[map[string]string](t, resp)["status"]; got != "ok" {
		t.Errorf("status = %q", got)
	}
	if got := resp.Header.Get("Server"); !strings.HasPrefix(got, "cardsmith/") {
		t.Errorf("Server header = %q", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	wantError(t, do(t, srv, http.MethodGet, "/nope", ""), http.StatusNotFound, errors.ErrCodeNotFound)
}

func TestListTemplates(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"modern", "plain"}},
		{"?category=business", []string{"modern"}},
		{"?tag=blue", []string{"modern"}},
		{"?active=false", []string{"plain"}},
		{"?featured=true", []string{"modern"}},
		{"?tag=red", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := do(t, srv, http.MethodGet, "/api/v1/templates"+tt.query, "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			body := decode[struct {
				Templates []template.Template `json:"templates"`
			}](t, resp)
			ids := []string{}
			for _, tpl := range body.Templates {
				ids = append(ids, tpl.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}

	wantError(t, do(t, srv, http.MethodGet, "/api/v1/templates?active=maybe", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestGetTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/v1/templates/modern?version=1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[template.Template](t, resp); got.ID != "modern" || len(got.Design.Elements) != 2 {
		t.Errorf("got %s with %d elements", got.ID, len(got.Design.Elements))
	}

	wantError(t, do(t, srv, http.MethodGet, "/api/v1/templates/ghost", ""), http.StatusNotFound, errors.ErrCodeTemplateNotFound)
	wantError(t, do(t, srv, http.MethodGet, "/api/v1/templates/modern?version=7", ""), http.StatusNotFound, errors.ErrCodeTemplateNotFound)
	wantError(t, do(t, srv, http.MethodGet, "/api/v1/templates/modern?version=x", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	wantError(t, do(t, srv, http.MethodGet, "/api/v1/templates/Bad%20Id", ""), http.StatusBadRequest, errors.ErrCodeInvalidSlug)
}

func TestValidate(t *testing.T) {
	srv, _ := newTestServer(t)

	good, _ := template.Marshal(sample("good", 1))
	resp := do(t, srv, http.MethodPost, "/api/v1/templates/validate", string(good))
	if body := decode[validateResponse](t, resp); !body.Valid || len(body.Errors) != 0 {
		t.Errorf("valid template reported %+v", body)
	}

	bad := sample("bad", 1)
	bad.Design.ReferenceWidth = 0
	bad.Design.AspectRatio = ""
	data, _ := template.Marshal(bad)
	resp = do(t, srv, http.MethodPost, "/api/v1/templates/validate", string(data))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decode[validateResponse](t, resp); body.Valid || len(body.Errors) != 2 {
		t.Errorf("got %+v, want two errors", body)
	}

	wantError(t, do(t, srv, http.MethodPost, "/api/v1/templates/validate", "{"), http.StatusBadRequest, errors.ErrCodeInvalidInput)
	wantError(t, do(t, srv, http.MethodPost, "/api/v1/templates/validate", ""), http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestCommitTemplate(t *testing.T) {
	srv, s := newTestServer(t)

	edited := sample("modern", 1)
	edited.Name = "Modern v2"
	body, _ := json.Marshal(commitRequest{BaseVersion: 1, Template: edited})

	resp := do(t, srv, http.MethodPut, "/api/v1/templates/modern", string(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[template.Template](t, resp); got.Version != 2 || got.Name != "Modern v2" {
		t.Errorf("committed v%d %q", got.Version, got.Name)
	}
	if latest, _ := s.Get(t.Context(), "modern"); latest.Version != 2 {
		t.Errorf("store latest = v%d", latest.Version)
	}

	// A second editor that also started from v1 loses.
	wantError(t, do(t, srv, http.MethodPut, "/api/v1/templates/modern", string(body)), http.StatusConflict, errors.ErrCodeVersionConflict)
}

func TestCommitNewAndInvalidTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(commitRequest{Template: sample("whatever", 9)})
	resp := do(t, srv, http.MethodPut, "/api/v1/templates/fresh", string(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[template.Template](t, resp); got.ID != "fresh" || got.Version != 1 {
		t.Errorf("committed %s v%d, want fresh v1", got.ID, got.Version)
	}

	bad := sample("x", 1)
	bad.Design.ReferenceHeight = -1
	body, _ = json.Marshal(commitRequest{Template: bad})
	resp = do(t, srv, http.MethodPut, "/api/v1/templates/broken", string(body))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var eb struct {
		Code    errors.Code               `json:"code"`
		Details template.ValidationErrors `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
		t.Fatal(err)
	}
	if eb.Code != errors.ErrCodeInvalidTemplate || len(eb.Details) != 1 || eb.Details[0].Path != "design.referenceHeight" {
		t.Errorf("got %+v", eb)
	}

	body, _ = json.Marshal(commitRequest{BaseVersion: 4, Template: sample("modern", 1)})
	wantError(t, do(t, srv, http.MethodPut, "/api/v1/templates/modern", string(body)), http.StatusNotFound, errors.ErrCodeTemplateNotFound)
}

func TestRenderSVG(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"templateId":"modern","card":{"fullName":"Ada & Co","views":12345678901234567}}`

	resp := do(t, srv, http.MethodPost, "/api/v1/render", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := resp.Header.Get("X-Cardsmith-Template"); got != "modern@1" {
		t.Errorf("X-Cardsmith-Template = %q", got)
	}
	if resp.Header.Get("X-Cache") != "miss" || resp.Header.Get("ETag") == "" {
		t.Errorf("cache headers = %v", resp.Header)
	}
	svg, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(svg, []byte("Ada &amp; Co")) {
		t.Errorf("card text not rendered escaped:\n%s", svg)
	}

	again := do(t, srv, http.MethodPost, "/api/v1/render", body)
	if again.Header.Get("X-Cache") != "hit" {
		t.Errorf("second render X-Cache = %q", again.Header.Get("X-Cache"))
	}
}

func TestRenderFormatsAndSurfaces(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/v1/render?format=png", `{"templateId":"modern","card":{},"preset":"thumbnail"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 168 || b.Dy() != 96 {
		t.Errorf("thumbnail@2 size = %v", b)
	}

	resp = do(t, srv, http.MethodPost, "/api/v1/render?format=json", `{"card":{},"surface":{"width":350,"height":200}}`)
	if resp.Header.Get("X-Cardsmith-Default-Template") != "true" {
		t.Error("render without a template should report the default")
	}
	var scene struct {
		Width float64 `json:"width"`
		Nodes []struct {
			ResolvedContent string `json:"resolvedContent"`
		} `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&scene); err != nil {
		t.Fatal(err)
	}
	if scene.Width != 350 || len(scene.Nodes) != 2 || scene.Nodes[1].ResolvedContent != "Your Name" {
		t.Errorf("scene = %+v", scene)
	}
}

func TestRenderHitRegionsAndInlineTemplate(t *testing.T) {
	srv, _ := newTestServer(t)
	inline, _ := json.Marshal(sample("preview", 1))
	body := `{"template":` + string(inline) + `,"card":{},"hitRegions":true}`

	resp := do(t, srv, http.MethodPost, "/api/v1/render", body)
	svg, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(svg, []byte(`data-element-id="name"`)) {
		t.Error("hit regions missing")
	}
	if resp.Header.Get("X-Cardsmith-Template") != "preview@1" {
		t.Errorf("template header = %q", resp.Header.Get("X-Cardsmith-Template"))
	}
}

func TestRenderErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   errors.Code
	}{
		{"bad format", "/api/v1/render?format=gif", `{"card":{}}`, http.StatusBadRequest, errors.ErrCodeUnsupported},
		{"bad json", "/api/v1/render", `{"card":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad preset", "/api/v1/render", `{"card":{},"preset":"poster"}`, http.StatusBadRequest, errors.ErrCodeInvalidSurface},
		{"bad surface", "/api/v1/render", `{"card":{},"surface":{"width":0,"height":10}}`, http.StatusBadRequest, errors.ErrCodeInvalidSurface},
		{"too big", "/api/v1/render", `{"card":{"bio":"` + strings.Repeat("x", maxBodyBytes) + `"}}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantError(t, do(t, srv, http.MethodPost, tt.target, tt.body), tt.status, tt.code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidInput:     http.StatusBadRequest,
		errors.ErrCodeInvalidTemplate:  http.StatusUnprocessableEntity,
		errors.ErrCodeTemplateNotFound: http.StatusNotFound,
		errors.ErrCodeVersionConflict:  http.StatusConflict,
		errors.ErrCodeNetwork:          http.StatusServiceUnavailable,
		errors.ErrCodeInternal:         http.StatusInternalServerError,
		errors.Code("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
