package ports

import (
	"context"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

// SnapshotRepository persists the principal snapshot across process restarts.
// Load returns domain.ErrSnapshotNotFound when nothing is stored.
type SnapshotRepository interface {
	Load(ctx context.Context) (*domain.Principal, error)
	Save(ctx context.Context, p *domain.Principal) error
	Delete(ctx context.Context) error
}

// SearchHistoryRepository persists the recent advanced-search filters, newest first.
// Load returns an empty history when nothing is stored.
type SearchHistoryRepository interface {
	Load(ctx context.Context) ([]domain.SearchFilters, error)
	Save(ctx context.Context, history []domain.SearchFilters) error
	Delete(ctx context.Context) error
}
