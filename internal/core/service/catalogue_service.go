package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

// CatalogueService backs the browsing and administration views. It holds no
// state of its own; authorization is the route guard's job.
type CatalogueService struct {
	backend ports.CatalogueBackend
	history *SearchHistoryService
	log     zerolog.Logger
}

func NewCatalogueService(backend ports.CatalogueBackend, history *SearchHistoryService, log zerolog.Logger) *CatalogueService {
	return &CatalogueService{backend: backend, history: history, log: log}
}

func (s *CatalogueService) Artworks(ctx context.Context, query url.Values) ([]domain.Record, error) {
	return s.backend.ListArtworks(ctx, query)
}

func (s *CatalogueService) Artwork(ctx context.Context, id string) (domain.Record, error) {
	return s.backend.GetArtwork(ctx, id)
}

// Search runs an advanced search and records the filters in the history.
// A history write failure does not fail the search.
func (s *CatalogueService) Search(ctx context.Context, f domain.SearchFilters) ([]domain.Record, error) {
	results, err := s.backend.AdvancedSearch(ctx, f.Values())
	if err != nil {
		return nil, fmt.Errorf("advanced search: %w", err)
	}
	if _, err := s.history.Record(ctx, f); err != nil {
		s.log.Warn().Err(err).Msg("failed to record search history")
	}
	return results, nil
}

func (s *CatalogueService) SearchHistory(ctx context.Context) ([]domain.SearchFilters, error) {
	return s.history.List(ctx)
}

func (s *CatalogueService) ClearSearchHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

func (s *CatalogueService) Galleries(ctx context.Context) ([]domain.Record, error) {
	return s.backend.ListGalleries(ctx)
}

func (s *CatalogueService) Gallery(ctx context.Context, id string) (domain.Record, error) {
	return s.backend.GetGallery(ctx, id)
}

func (s *CatalogueService) CreateGallery(ctx context.Context, in domain.NewGallery) (domain.Record, error) {
	rec, err := s.backend.CreateGallery(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create gallery: %w", err)
	}
	s.log.Info().Str("gallery", rec.Title()).Msg("gallery created")
	return rec, nil
}

func (s *CatalogueService) Expositions(ctx context.Context) ([]domain.Record, error) {
	return s.backend.ListExpositions(ctx)
}

func (s *CatalogueService) Exposition(ctx context.Context, id string) (domain.Record, error) {
	return s.backend.GetExposition(ctx, id)
}

func (s *CatalogueService) CreateExposition(ctx context.Context, in domain.NewExposition) (domain.Record, error) {
	rec, err := s.backend.CreateExposition(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create exposition: %w", err)
	}
	s.log.Info().Str("exposition", rec.Title()).Msg("exposition created")
	return rec, nil
}

// GenerateArtwork asks the backend to compose a new artwork and returns it.
func (s *CatalogueService) GenerateArtwork(ctx context.Context) (domain.Record, error) {
	rec, err := s.backend.GenerateArtwork(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate artwork: %w", err)
	}
	s.log.Info().Str("artwork", rec.Title()).Str("id", rec.ID()).Msg("artwork generated")
	return rec, nil
}

func (s *CatalogueService) VirtualExhibitions(ctx context.Context) ([]domain.Record, error) {
	return s.backend.ListVirtualExhibitions(ctx)
}

func (s *CatalogueService) StartTour(ctx context.Context, exhibitionID string) error {
	if err := s.backend.StartTour(ctx, exhibitionID); err != nil {
		return fmt.Errorf("start tour: %w", err)
	}
	return nil
}

func (s *CatalogueService) TourProgress(ctx context.Context, exhibitionID string) (*domain.TourProgress, error) {
	return s.backend.TourProgress(ctx, exhibitionID)
}

func (s *CatalogueService) AdvanceTour(ctx context.Context, exhibitionID string) (*domain.TourProgress, error) {
	p, err := s.backend.AdvanceTour(ctx, exhibitionID)
	if err != nil {
		return nil, fmt.Errorf("advance tour: %w", err)
	}
	return p, nil
}

// GoToTourStep jumps to the artwork at index. The upper bound is the backend's to check.
func (s *CatalogueService) GoToTourStep(ctx context.Context, exhibitionID string, index int) (*domain.TourProgress, error) {
	if index < 0 {
		return nil, fmt.Errorf("go to tour step: %w: %d", domain.ErrInvalidTourStep, index)
	}
	p, err := s.backend.GoToTourStep(ctx, exhibitionID, index)
	if err != nil {
		return nil, fmt.Errorf("go to tour step: %w", err)
	}
	return p, nil
}

func (s *CatalogueService) Register(ctx context.Context, in domain.Registration) error {
	if err := s.backend.Register(ctx, in); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.log.Info().Str("username", in.Username).Msg("account registered")
	return nil
}

func (s *CatalogueService) Profile(ctx context.Context) (*domain.Principal, error) {
	return s.backend.Profile(ctx)
}

func (s *CatalogueService) Users(ctx context.Context) ([]domain.Record, error) {
	return s.backend.ListUsers(ctx)
}

// UpdateUserRole rejects roles outside the closed set before calling the backend.
func (s *CatalogueService) UpdateUserRole(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("update user role: %w: %q", domain.ErrInvalidRole, role)
	}
	if err := s.backend.UpdateUserRole(ctx, userID, role); err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Msg("user role updated")
	return nil
}
