// Package repository declares the storage contract the service layer depends on.
// Concrete backends live in sub-packages (sqlite, mongo).
package repository

import (
	"context"
	"time"

	"github.com/sakif/content-studio/internal/model"
)

// ListOptions controls List. A zero Limit means "no limit".
type ListOptions struct {
	FavoritesOnly bool
	Limit         int
	Offset        int
}

// DuplicateFilter selects a recently created record with identical fields.
// Topic and Type always participate; Content and ImageURL only when non-nil.
type DuplicateFilter struct {
	Topic        string
	Type         string
	Content      *string
	ImageURL     *string
	CreatedAfter time.Time
}

// ContentRepository is the document store seen by the service layer.
//
// GetByID returns apperror.ErrInvalidID for identifiers the backend could never
// have issued and apperror.ErrNotFound for well-formed but absent ones.
// FindOne returns apperror.ErrNotFound when nothing matches.
// Save persists the mutable part of a record (IsFavorite only).
type ContentRepository interface {
	Create(ctx context.Context, content *model.Content) error
	GetByID(ctx context.Context, id string) (*model.Content, error)
	FindOne(ctx context.Context, filter DuplicateFilter) (*model.Content, error)
	List(ctx context.Context, opts ListOptions) ([]model.Content, error)
	Save(ctx context.Context, content *model.Content) error
	Close() error
}
