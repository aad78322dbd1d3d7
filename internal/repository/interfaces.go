package repository

import (
	"context"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

// ResultRepository stores locked measurements
type ResultRepository interface {
	// SaveResult stores a locked measurement. IDs must be unique.
	SaveResult(ctx context.Context, result *models.StoredResult) error

	// GetResult retrieves a stored result by ID
	GetResult(ctx context.Context, id string) (*models.StoredResult, error)

	// ListResults returns the most recently locked results, newest first
	ListResults(ctx context.Context, limit int) ([]*models.StoredResult, error)

	// Close releases the underlying store
	Close() error
}

// DefaultListLimit caps ListResults when the caller passes a non-positive limit.
const DefaultListLimit = 100
