// Package storage provides compost bin store implementations.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Compile-time interface check.
var _ domain.BinStore = (*MemoryBinStore)(nil)

// MemoryBinStore is an in-memory bin store. Safe for concurrent access.
// Bins are copied on the way in and out, so callers never share state
// with the store. Nothing survives a restart.
type MemoryBinStore struct {
	mu   sync.RWMutex
	bins map[string]*domain.CompostBin
	log  *logger.Logger
}

// NewMemoryBinStore creates an empty in-memory bin store.
func NewMemoryBinStore(log *logger.Logger) *MemoryBinStore {
	return &MemoryBinStore{
		bins: make(map[string]*domain.CompostBin),
		log:  log,
	}
}

// Save stores a bin. Overwrites if it already exists.
func (s *MemoryBinStore) Save(ctx context.Context, bin *domain.CompostBin) error {
	if bin == nil || bin.ID == "" {
		return fmt.Errorf("saving bin without id: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving bin %s (%s, %d logs)", bin.ID, bin.Type, len(bin.Logs))
	s.bins[bin.ID] = clone(bin)
	return nil
}

// Load retrieves a bin by ID.
func (s *MemoryBinStore) Load(ctx context.Context, id string) (*domain.CompostBin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bin, ok := s.bins[id]
	if !ok {
		s.log.Debug("bin not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return clone(bin), nil
}

// Delete removes a bin by ID.
func (s *MemoryBinStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bins[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.bins, id)
	s.log.Debug("deleted bin %s", id)
	return nil
}

// Update runs fn on a copy of the bin under the write lock and stores the
// result. Concurrent updates of one bin are serialized.
func (s *MemoryBinStore) Update(ctx context.Context, id string, fn func(bin *domain.CompostBin) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bin, ok := s.bins[id]
	if !ok {
		return domain.ErrNotFound
	}
	next := clone(bin)
	if err := fn(next); err != nil {
		return err
	}
	next.ID = id
	s.bins[id] = clone(next)
	s.log.Debug("updated bin %s (%d logs)", id, len(next.Logs))
	return nil
}

// List returns every bin, oldest start date first.
func (s *MemoryBinStore) List(ctx context.Context) ([]*domain.CompostBin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.CompostBin, 0, len(s.bins))
	for _, bin := range s.bins {
		out = append(out, clone(bin))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	s.log.Debug("listing bins, count=%d", len(out))
	return out, nil
}

func clone(b *domain.CompostBin) *domain.CompostBin {
	c := *b
	c.Logs = make([]domain.BinLog, len(b.Logs))
	for i, l := range b.Logs {
		if l.Temperature != nil {
			t := *l.Temperature
			l.Temperature = &t
		}
		c.Logs[i] = l
	}
	return &c
}
