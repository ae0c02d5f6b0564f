package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cartd/internal/events"
	"github.com/noah-isme/cartd/internal/store"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// Service hands out one Manager per cart key. Managers are created lazily
// from persisted state, so an instance can serve carts written by another
// process sharing the same backend.
type Service struct {
	Store  store.Store
	Bus    *events.Bus
	Logger zerolog.Logger

	mu       sync.Mutex
	managers map[string]*Manager
}

// Create allocates a fresh cart key and its manager.
func (s *Service) Create(ctx context.Context) (*Manager, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	key := uuid.NewString()
	mgr, err := NewManager(ctx, ManagerConfig{Key: key, Store: s.Store, Bus: s.Bus, Logger: s.Logger})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.managers == nil {
		s.managers = make(map[string]*Manager)
	}
	s.managers[key] = mgr
	s.mu.Unlock()
	return mgr, nil
}

// Lookup returns the manager for an existing cart. Keys this instance has
// never seen are hydrated from the backend; keys absent there too yield
// ErrNotFound.
func (s *Service) Lookup(ctx context.Context, key string) (*Manager, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	if _, err := uuid.Parse(key); err != nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	mgr, ok := s.managers[key]
	s.mu.Unlock()
	if ok {
		return mgr, nil
	}

	_, exists, err := s.Store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	mgr, err = NewManager(ctx, ManagerConfig{Key: key, Store: s.Store, Bus: s.Bus, Logger: s.Logger})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.managers == nil {
		s.managers = make(map[string]*Manager)
	}
	if existing, ok := s.managers[key]; ok {
		// Lost a race with a concurrent Lookup; keep the first manager.
		s.mu.Unlock()
		mgr.Close()
		return existing, nil
	}
	s.managers[key] = mgr
	s.mu.Unlock()
	return mgr, nil
}

// Close tears down every managed cart's change subscription.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	managers := make([]*Manager, 0, len(s.managers))
	for _, mgr := range s.managers {
		managers = append(managers, mgr)
	}
	s.managers = nil
	s.mu.Unlock()
	for _, mgr := range managers {
		mgr.Close()
	}
}
