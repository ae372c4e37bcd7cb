package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// FileStore keeps one JSON document per version at <dir>/<id>/v<N>.json.
//
// Version files are created exclusively, so two processes saving the same
// version race safely: the second create fails with VERSION_CONFLICT.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore opens (creating if needed) a store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := errors.ValidatePath(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store root.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Get(ctx context.Context, id string) (template.Template, error) {
	latest, err := s.latest(id)
	if err != nil {
		return template.Template{}, err
	}
	if latest == 0 {
		return template.Template{}, notFound(id)
	}
	return s.read(id, latest)
}

func (s *FileStore) GetVersion(_ context.Context, id string, version int) (template.Template, error) {
	latest, err := s.latest(id)
	if err != nil {
		return template.Template{}, err
	}
	if latest == 0 {
		return template.Template{}, notFound(id)
	}
	if version < 1 || version > latest {
		return template.Template{}, versionNotFound(id, version)
	}
	return s.read(id, version)
}

func (s *FileStore) Save(_ context.Context, t template.Template) error {
	if err := errors.ValidateSlug(t.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.latest(t.ID)
	if err != nil {
		return err
	}
	if err := checkSave(t, latest); err != nil {
		return err
	}

	data, err := template.Marshal(t)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode template %q", t.ID)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, t.ID), 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}

	path := s.path(t.ID, t.Version)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return errors.New(errors.ErrCodeVersionConflict, "template %q version %d already exists", t.ID, t.Version)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (s *FileStore) List(_ context.Context, f Filter) ([]template.Template, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var latest []template.Template
	for _, e := range entries {
		if !e.IsDir() || errors.ValidateSlug(e.Name()) != nil {
			continue
		}
		v, err := s.latest(e.Name())
		if err != nil || v == 0 {
			continue
		}
		t, err := s.read(e.Name(), v)
		if err != nil {
			return nil, err
		}
		latest = append(latest, t)
	}
	return filterSorted(latest, f), nil
}

func (s *FileStore) Close() error { return nil }

// latest returns the highest stored version of id, or 0.
func (s *FileStore) latest(id string) (int, error) {
	if err := errors.ValidateSlug(id); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, id))
	if stderrors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read template dir: %w", err)
	}

	newest := 0
	for _, e := range entries {
		if v, ok := parseVersionFile(e.Name()); ok && v > newest {
			newest = v
		}
	}
	return newest, nil
}

func (s *FileStore) read(id string, version int) (template.Template, error) {
	t, err := template.ReadFile(s.path(id, version))
	if stderrors.Is(err, fs.ErrNotExist) {
		return template.Template{}, versionNotFound(id, version)
	}
	return t, err
}

func (s *FileStore) path(id string, version int) string {
	return filepath.Join(s.dir, id, "v"+strconv.Itoa(version)+".json")
}

func parseVersionFile(name string) (int, bool) {
	if !strings.HasPrefix(name, "v") || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSuffix(name[1:], ".json"))
	return v, err == nil && v > 0
}
