package ports

import (
	"context"
	"net/url"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

// CatalogueBackend is the REST backend's browsing and administration surface.
// Records are passed through opaque.
type CatalogueBackend interface {
	ListArtworks(ctx context.Context, query url.Values) ([]domain.Record, error)
	GetArtwork(ctx context.Context, id string) (domain.Record, error)
	AdvancedSearch(ctx context.Context, query url.Values) ([]domain.Record, error)

	ListGalleries(ctx context.Context) ([]domain.Record, error)
	GetGallery(ctx context.Context, id string) (domain.Record, error)
	CreateGallery(ctx context.Context, in domain.NewGallery) (domain.Record, error)

	ListExpositions(ctx context.Context) ([]domain.Record, error)
	GetExposition(ctx context.Context, id string) (domain.Record, error)
	CreateExposition(ctx context.Context, in domain.NewExposition) (domain.Record, error)

	GenerateArtwork(ctx context.Context) (domain.Record, error)

	ListVirtualExhibitions(ctx context.Context) ([]domain.Record, error)
	StartTour(ctx context.Context, exhibitionID string) error
	TourProgress(ctx context.Context, exhibitionID string) (*domain.TourProgress, error)
	AdvanceTour(ctx context.Context, exhibitionID string) (*domain.TourProgress, error)
	GoToTourStep(ctx context.Context, exhibitionID string, index int) (*domain.TourProgress, error)

	Register(ctx context.Context, in domain.Registration) error
	Profile(ctx context.Context) (*domain.Principal, error)
	ListUsers(ctx context.Context) ([]domain.Record, error)
	UpdateUserRole(ctx context.Context, userID string, role domain.Role) error
}
