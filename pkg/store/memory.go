package store

import (
	"context"
	"sync"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// MemoryStore keeps templates in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string][]template.Template // index i holds version i+1
}

// NewMemoryStore returns an empty store, optionally seeded with templates
// saved in order. Seeding fails on the first template Save rejects.
func NewMemoryStore(seed ...template.Template) (*MemoryStore, error) {
	s := &MemoryStore{versions: make(map[string][]template.Template)}
	for _, t := range seed {
		if err := s.Save(context.Background(), t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (template.Template, error) {
	if err := errors.ValidateSlug(id); err != nil {
		return template.Template{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.versions[id]
	if len(vs) == 0 {
		return template.Template{}, notFound(id)
	}
	return vs[len(vs)-1].Clone(), nil
}

func (s *MemoryStore) GetVersion(_ context.Context, id string, version int) (template.Template, error) {
	if err := errors.ValidateSlug(id); err != nil {
		return template.Template{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.versions[id]
	if len(vs) == 0 {
		return template.Template{}, notFound(id)
	}
	if version < 1 || version > len(vs) {
		return template.Template{}, versionNotFound(id, version)
	}
	return vs[version-1].Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, t template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkSave(t, len(s.versions[t.ID])); err != nil {
		return err
	}
	s.versions[t.ID] = append(s.versions[t.ID], t.Clone())
	return nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]template.Template, error) {
	s.mu.RLock()
	latest := make([]template.Template, 0, len(s.versions))
	for _, vs := range s.versions {
		latest = append(latest, vs[len(vs)-1].Clone())
	}
	s.mu.RUnlock()
	return filterSorted(latest, f), nil
}

func (s *MemoryStore) Close() error { return nil }
