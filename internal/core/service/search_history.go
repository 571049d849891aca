package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

const defaultHistoryLimit = 5

// SearchHistoryService keeps the most recent advanced searches, newest first.
type SearchHistoryService struct {
	repo  ports.SearchHistoryRepository
	limit int
	log   zerolog.Logger
}

func NewSearchHistoryService(repo ports.SearchHistoryRepository, limit int, log zerolog.Logger) *SearchHistoryService {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &SearchHistoryService{repo: repo, limit: limit, log: log}
}

// List returns the stored history. A missing history is empty, not an error.
func (s *SearchHistoryService) List(ctx context.Context) ([]domain.SearchFilters, error) {
	history, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	if len(history) > s.limit {
		history = history[:s.limit]
	}
	return history, nil
}

// Record moves f to the front of the history, dropping equal entries and
// anything past the limit. Empty filters are ignored.
func (s *SearchHistoryService) Record(ctx context.Context, f domain.SearchFilters) ([]domain.SearchFilters, error) {
	history, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if f.IsZero() {
		return history, nil
	}

	next := make([]domain.SearchFilters, 0, s.limit)
	next = append(next, f)
	for _, h := range history {
		if len(next) == s.limit {
			break
		}
		if h != f {
			next = append(next, h)
		}
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save search history: %w", err)
	}
	s.log.Debug().Int("entries", len(next)).Msg("search history updated")
	return next, nil
}

func (s *SearchHistoryService) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("clear search history: %w", err)
	}
	return nil
}
