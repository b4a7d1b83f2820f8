// Package memory provides an in-memory registry store. It backs the
// storage "memory" mode and the test doubles used across the engine.
package memory

import (
	"context"
	"sync"

	"github.com/waroute/waroute/internal/domain"
	"github.com/waroute/waroute/internal/registry"
)

// Store is an in-memory implementation of registry.Store. Mutations swap a
// fresh slice under the write lock, so readers always observe a complete
// set. Insertion order is preserved.
type Store struct {
	mu     sync.RWMutex
	routes []domain.RouteConfig
}

var _ registry.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) ListAll(ctx context.Context) ([]domain.RouteConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RouteConfig, len(s.routes))
	copy(out, s.routes)
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.RouteConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rc := range s.routes {
		if rc.ID == id {
			found := rc
			return &found, nil
		}
	}
	return nil, registry.ErrNotFound
}

func (s *Store) Add(ctx context.Context, n registry.NewRoute) (*domain.RouteConfig, error) {
	rc, err := registry.BuildRoute(n)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.RouteConfig, len(s.routes), len(s.routes)+1)
	copy(next, s.routes)
	s.routes = append(next, rc)
	return &rc, nil
}

func (s *Store) Update(ctx context.Context, id string, u registry.RouteUpdate) (*domain.RouteConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rc := range s.routes {
		if rc.ID != id {
			continue
		}
		if err := registry.ApplyUpdate(&rc, u); err != nil {
			return nil, err
		}
		next := make([]domain.RouteConfig, len(s.routes))
		copy(next, s.routes)
		next[i] = rc
		s.routes = next
		return &rc, nil
	}
	return nil, registry.ErrNotFound
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rc := range s.routes {
		if rc.ID != id {
			continue
		}
		next := make([]domain.RouteConfig, 0, len(s.routes)-1)
		next = append(next, s.routes[:i]...)
		next = append(next, s.routes[i+1:]...)
		s.routes = next
		return nil
	}
	return registry.ErrNotFound
}

func (s *Store) SyncFromExternal(ctx context.Context, candidates []registry.Candidate) (int, error) {
	mapped := registry.MapCandidates(candidates)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.RouteConfig, 0, len(s.routes)+len(mapped))
	for _, rc := range s.routes {
		if !rc.Synced {
			next = append(next, rc)
		}
	}
	next = append(next, mapped...)
	s.routes = next
	return len(mapped), nil
}

func (s *Store) Close() error {
	return nil
}
