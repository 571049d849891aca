package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

// AdminHandler serves the role-gated administration pages. Access control
// is applied by the route guard before these run.
type AdminHandler struct {
	catalogue ports.CatalogueService
	log       zerolog.Logger
}

func NewAdminHandler(catalogue ports.CatalogueService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{catalogue: catalogue, log: log}
}

type expositionFormData struct {
	Form      domain.NewExposition
	Galleries []domain.Record
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	return render(c, http.StatusOK, view.Admin, "Administration", nil)
}

func (h *AdminHandler) Users(c echo.Context) error {
	users, err := h.catalogue.Users(c.Request().Context())
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, view.Users, "Users", users)
}

func (h *AdminHandler) UpdateUserRole(c echo.Context) error {
	role := domain.Role(c.FormValue("role"))
	if err := h.catalogue.UpdateUserRole(c.Request().Context(), c.Param("id"), role); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/users")
}

func (h *AdminHandler) NewGalleryForm(c echo.Context) error {
	return render(c, http.StatusOK, view.GalleryForm, "New gallery", domain.NewGallery{})
}

func (h *AdminHandler) CreateGallery(c echo.Context) error {
	var f domain.NewGallery
	if err := c.Bind(&f); err != nil {
		return renderWithError(c, view.GalleryForm, "New gallery", f, err)
	}
	if err := c.Validate(&f); err != nil {
		return renderWithError(c, view.GalleryForm, "New gallery", f, err)
	}
	rec, err := h.catalogue.CreateGallery(c.Request().Context(), f)
	if err != nil {
		return renderWithError(c, view.GalleryForm, "New gallery", f, err)
	}
	return c.Redirect(http.StatusSeeOther, detailPath("/galleries", rec))
}

func (h *AdminHandler) NewExpositionForm(c echo.Context) error {
	return render(c, http.StatusOK, view.ExpositionForm, "New exposition",
		expositionFormData{Galleries: h.galleries(c)})
}

func (h *AdminHandler) CreateExposition(c echo.Context) error {
	var f domain.NewExposition
	if err := c.Bind(&f); err != nil {
		return renderWithError(c, view.ExpositionForm, "New exposition", expositionFormData{Form: f}, err)
	}
	data := expositionFormData{Form: f}
	err := c.Validate(&f)
	if err == nil && f.EndDate < f.StartDate {
		err = echo.NewHTTPError(http.StatusBadRequest, "date_fin must not be before date_debut")
	}
	if err == nil {
		var rec domain.Record
		if rec, err = h.catalogue.CreateExposition(c.Request().Context(), f); err == nil {
			return c.Redirect(http.StatusSeeOther, detailPath("/expositions", rec))
		}
	}
	data.Galleries = h.galleries(c)
	return renderWithError(c, view.ExpositionForm, "New exposition", data, err)
}

// galleries feeds the exposition form's gallery picker. The form still works
// without it.
func (h *AdminHandler) galleries(c echo.Context) []domain.Record {
	recs, err := h.catalogue.Galleries(c.Request().Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("gallery list unavailable for exposition form")
		return nil
	}
	return recs
}

func detailPath(base string, rec domain.Record) string {
	if id := rec.ID(); id != "" {
		return base + "/" + id
	}
	return base
}
