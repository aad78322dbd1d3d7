package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

// MemoryResultRepository keeps results in process memory.
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results map[string]models.StoredResult
	closed  bool
}

// NewMemoryResultRepository creates an empty in-memory repository
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{results: make(map[string]models.StoredResult)}
}

// SaveResult stores a copy of result
func (r *MemoryResultRepository) SaveResult(ctx context.Context, result *models.StoredResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRepositoryUnavailable
	}
	if _, exists := r.results[result.ID]; exists {
		return ErrDuplicateResult
	}
	r.results[result.ID] = *result
	return nil
}

// GetResult retrieves a stored result by ID
func (r *MemoryResultRepository) GetResult(ctx context.Context, id string) (*models.StoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRepositoryUnavailable
	}
	res, ok := r.results[id]
	if !ok {
		return nil, ErrResultNotFound
	}
	return &res, nil
}

// ListResults returns up to limit results, newest first
func (r *MemoryResultRepository) ListResults(ctx context.Context, limit int) ([]*models.StoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRepositoryUnavailable
	}

	out := make([]*models.StoredResult, 0, len(r.results))
	for _, res := range r.results {
		res := res
		out = append(out, &res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LockedAt.Equal(out[j].LockedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].LockedAt.After(out[j].LockedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close marks the repository unavailable
func (r *MemoryResultRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
