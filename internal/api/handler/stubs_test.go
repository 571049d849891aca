package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/domain"
)

type stubAuth struct {
	loginFn  func(ctx context.Context, username, password string) (*domain.Principal, error)
	logoutFn func(ctx context.Context) error
}

func (s *stubAuth) Login(ctx context.Context, username, password string) (*domain.Principal, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuth) Logout(ctx context.Context) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx)
}

type stubSessions domain.Session

func (s stubSessions) Session() domain.Session { return domain.Session(s) }

// stubCatalogue answers every call with the configured records.
type stubCatalogue struct {
	records  []domain.Record
	record   domain.Record
	history  []domain.SearchFilters
	profile  *domain.Principal
	err      error
	searched []domain.SearchFilters
	roleSet  string
	created  any
	cleared  bool
	register *domain.Registration
	progress *domain.TourProgress
	tourErr  error
	tourLog  []string
}

func (s *stubCatalogue) Artworks(context.Context, url.Values) ([]domain.Record, error) {
	return s.records, s.err
}
func (s *stubCatalogue) Artwork(context.Context, string) (domain.Record, error) { return s.record, s.err }
func (s *stubCatalogue) Search(_ context.Context, f domain.SearchFilters) ([]domain.Record, error) {
	s.searched = append(s.searched, f)
	return s.records, s.err
}
func (s *stubCatalogue) SearchHistory(context.Context) ([]domain.SearchFilters, error) {
	return s.history, nil
}
func (s *stubCatalogue) ClearSearchHistory(context.Context) error {
	s.cleared = true
	return s.err
}
func (s *stubCatalogue) Galleries(context.Context) ([]domain.Record, error) { return s.records, s.err }
func (s *stubCatalogue) Gallery(context.Context, string) (domain.Record, error) {
	return s.record, s.err
}
func (s *stubCatalogue) CreateGallery(_ context.Context, in domain.NewGallery) (domain.Record, error) {
	s.created = in
	return s.record, s.err
}
func (s *stubCatalogue) Expositions(context.Context) ([]domain.Record, error) {
	return s.records, s.err
}
func (s *stubCatalogue) Exposition(context.Context, string) (domain.Record, error) {
	return s.record, s.err
}
func (s *stubCatalogue) CreateExposition(_ context.Context, in domain.NewExposition) (domain.Record, error) {
	s.created = in
	return s.record, s.err
}
func (s *stubCatalogue) Register(_ context.Context, in domain.Registration) error {
	s.register = &in
	return s.err
}
func (s *stubCatalogue) Profile(context.Context) (*domain.Principal, error) { return s.profile, s.err }
func (s *stubCatalogue) Users(context.Context) ([]domain.Record, error)     { return s.records, s.err }
func (s *stubCatalogue) UpdateUserRole(_ context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	s.roleSet = id + ":" + string(role)
	return s.err
}

func (s *stubCatalogue) GenerateArtwork(context.Context) (domain.Record, error) {
	return s.record, s.err
}
func (s *stubCatalogue) VirtualExhibitions(context.Context) ([]domain.Record, error) {
	return s.records, s.err
}
func (s *stubCatalogue) StartTour(_ context.Context, id string) error {
	s.tourLog = append(s.tourLog, "start "+id)
	return s.err
}
func (s *stubCatalogue) TourProgress(context.Context, string) (*domain.TourProgress, error) {
	return s.progress, s.tourErr
}
func (s *stubCatalogue) AdvanceTour(_ context.Context, id string) (*domain.TourProgress, error) {
	s.tourLog = append(s.tourLog, "advance "+id)
	return s.progress, s.err
}
func (s *stubCatalogue) GoToTourStep(_ context.Context, id string, index int) (*domain.TourProgress, error) {
	if index < 0 {
		return nil, domain.ErrInvalidTourStep
	}
	s.tourLog = append(s.tourLog, fmt.Sprintf("go-to %s %d", id, index))
	return s.progress, s.err
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	r, err := view.New()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e.Renderer = r
	e.Validator = NewValidator()
	return e
}

func postForm(e *echo.Echo, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
