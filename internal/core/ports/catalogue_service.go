package ports

import (
	"context"
	"net/url"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

// CatalogueService defines the use cases behind the browsing and administration views.
type CatalogueService interface {
	Artworks(ctx context.Context, query url.Values) ([]domain.Record, error)
	Artwork(ctx context.Context, id string) (domain.Record, error)
	Search(ctx context.Context, f domain.SearchFilters) ([]domain.Record, error)
	SearchHistory(ctx context.Context) ([]domain.SearchFilters, error)
	ClearSearchHistory(ctx context.Context) error

	Galleries(ctx context.Context) ([]domain.Record, error)
	Gallery(ctx context.Context, id string) (domain.Record, error)
	CreateGallery(ctx context.Context, in domain.NewGallery) (domain.Record, error)

	Expositions(ctx context.Context) ([]domain.Record, error)
	Exposition(ctx context.Context, id string) (domain.Record, error)
	CreateExposition(ctx context.Context, in domain.NewExposition) (domain.Record, error)

	GenerateArtwork(ctx context.Context) (domain.Record, error)

	VirtualExhibitions(ctx context.Context) ([]domain.Record, error)
	StartTour(ctx context.Context, exhibitionID string) error
	TourProgress(ctx context.Context, exhibitionID string) (*domain.TourProgress, error)
	AdvanceTour(ctx context.Context, exhibitionID string) (*domain.TourProgress, error)
	GoToTourStep(ctx context.Context, exhibitionID string, index int) (*domain.TourProgress, error)

	Register(ctx context.Context, in domain.Registration) error
	Profile(ctx context.Context) (*domain.Principal, error)
	Users(ctx context.Context) ([]domain.Record, error)
	UpdateUserRole(ctx context.Context, userID string, role domain.Role) error
}
