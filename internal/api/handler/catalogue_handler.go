package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/api/metrics"
	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

// CatalogueHandler serves the public browsing pages.
type CatalogueHandler struct {
	catalogue ports.CatalogueService
	log       zerolog.Logger
}

func NewCatalogueHandler(catalogue ports.CatalogueService, log zerolog.Logger) *CatalogueHandler {
	return &CatalogueHandler{catalogue: catalogue, log: log}
}

type recordsData struct {
	BasePath string
	Records  []domain.Record
}

type tourData struct {
	ID       string
	Progress *domain.TourProgress
}

type tourStepForm struct {
	Index int `form:"index"`
}

type searchData struct {
	Filters  domain.SearchFilters
	History  []domain.SearchFilters
	Results  []domain.Record
	Searched bool
}

func (h *CatalogueHandler) Home(c echo.Context) error {
	return render(c, http.StatusOK, view.Home, "Home", nil)
}

func (h *CatalogueHandler) Artworks(c echo.Context) error {
	recs, err := h.catalogue.Artworks(c.Request().Context(), c.QueryParams())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Records, "Catalogue", recordsData{BasePath: "/catalogue", Records: recs})
}

func (h *CatalogueHandler) Artwork(c echo.Context) error {
	rec, err := h.catalogue.Artwork(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Record, rec.Title(), rec)
}

// Search shows the advanced search form with the recent searches, and runs
// the search when at least one filter is set.
func (h *CatalogueHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	var data searchData
	if err := c.Bind(&data.Filters); err != nil {
		return err
	}

	var searchErr error
	if err := c.Validate(&data.Filters); err != nil {
		searchErr = err
	} else if !data.Filters.IsZero() {
		data.Results, searchErr = h.catalogue.Search(ctx, data.Filters)
		data.Searched = searchErr == nil
		if data.Searched {
			metrics.SearchHistoryWritesTotal.Inc()
		}
	}

	history, err := h.catalogue.SearchHistory(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("search history unavailable")
	}
	data.History = history

	if searchErr != nil {
		return renderWithError(c, view.Search, "Advanced search", data, searchErr)
	}
	return render(c, http.StatusOK, view.Search, "Advanced search", data)
}

func (h *CatalogueHandler) ClearSearchHistory(c echo.Context) error {
	if err := h.catalogue.ClearSearchHistory(c.Request().Context()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/catalogue/search")
}

func (h *CatalogueHandler) Galleries(c echo.Context) error {
	recs, err := h.catalogue.Galleries(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Records, "Galleries", recordsData{BasePath: "/galleries", Records: recs})
}

func (h *CatalogueHandler) Gallery(c echo.Context) error {
	rec, err := h.catalogue.Gallery(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Record, rec.Title(), rec)
}

func (h *CatalogueHandler) Expositions(c echo.Context) error {
	recs, err := h.catalogue.Expositions(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Records, "Expositions", recordsData{BasePath: "/expositions", Records: recs})
}

func (h *CatalogueHandler) Exposition(c echo.Context) error {
	rec, err := h.catalogue.Exposition(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Record, rec.Title(), rec)
}

func (h *CatalogueHandler) VirtualExhibitions(c echo.Context) error {
	recs, err := h.catalogue.VirtualExhibitions(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Records, "Virtual tours", recordsData{BasePath: "/virtual-exhibitions", Records: recs})
}

// Tour shows the current artwork of the tour. A tour that was never started
// has no progress on the backend and renders with only the start button.
func (h *CatalogueHandler) Tour(c echo.Context) error {
	id := c.Param("id")
	p, err := h.catalogue.TourProgress(c.Request().Context(), id)
	var be *domain.BackendError
	switch {
	case errors.As(err, &be) && be.StatusCode == http.StatusNotFound:
		p = nil
	case err != nil:
		return err
	}
	return render(c, http.StatusOK, view.Tour, "Virtual tour", tourData{ID: id, Progress: p})
}

func (h *CatalogueHandler) StartTour(c echo.Context) error {
	id := c.Param("id")
	if err := h.catalogue.StartTour(c.Request().Context(), id); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, tourPath(id))
}

func (h *CatalogueHandler) AdvanceTour(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.catalogue.AdvanceTour(c.Request().Context(), id); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, tourPath(id))
}

func (h *CatalogueHandler) GoToTourStep(c echo.Context) error {
	id := c.Param("id")
	var form tourStepForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	if _, err := h.catalogue.GoToTourStep(c.Request().Context(), id, form.Index); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, tourPath(id))
}

func tourPath(id string) string {
	return "/virtual-exhibitions/" + url.PathEscape(id)
}

func (h *CatalogueHandler) GenerateForm(c echo.Context) error {
	return render(c, http.StatusOK, view.Generate, "Generate an artwork", nil)
}

// Generate has the backend compose a new artwork and opens it.
func (h *CatalogueHandler) Generate(c echo.Context) error {
	rec, err := h.catalogue.GenerateArtwork(c.Request().Context())
	if err != nil {
		return renderWithError(c, view.Generate, "Generate an artwork", nil, err)
	}
	return c.Redirect(http.StatusSeeOther, "/catalogue/"+url.PathEscape(rec.ID()))
}
