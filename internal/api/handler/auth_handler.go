package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/api/metrics"
	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

// AuthHandler serves the login, logout, registration and profile pages.
type AuthHandler struct {
	auth      ports.Authenticator
	catalogue ports.CatalogueService
	log       zerolog.Logger
}

func NewAuthHandler(auth ports.Authenticator, catalogue ports.CatalogueService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, catalogue: catalogue, log: log}
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

type loginData struct {
	Username string
	Next     string
}

// LoginForm renders the login page. Logged-in visitors go straight on.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	next := c.QueryParam("next")
	if sessionFrom(c).IsAuthenticated() {
		return c.Redirect(http.StatusSeeOther, afterLogin(next))
	}
	p := view.NewPage(c, "Log in", loginData{Next: next})
	if c.QueryParam("registered") != "" {
		p.Notice = "Account created, you can now log in."
	}
	return c.Render(http.StatusOK, view.Login, p)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var f loginForm
	if err := c.Bind(&f); err != nil {
		return renderWithError(c, view.Login, "Log in", loginData{}, err)
	}
	data := loginData{Username: f.Username, Next: f.Next}
	if err := c.Validate(&f); err != nil {
		return renderWithError(c, view.Login, "Log in", data, err)
	}

	_, err := h.auth.Login(c.Request().Context(), f.Username, f.Password)
	metrics.AuthOperationsTotal.WithLabelValues("login", metrics.AuthResult(err)).Inc()
	if err != nil {
		return renderWithError(c, view.Login, "Log in", data, err)
	}
	return c.Redirect(http.StatusSeeOther, afterLogin(f.Next))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	err := h.auth.Logout(c.Request().Context())
	metrics.AuthOperationsTotal.WithLabelValues("logout", metrics.AuthResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return render(c, http.StatusOK, view.Register, "Register", domain.Registration{})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var f domain.Registration
	if err := c.Bind(&f); err != nil {
		return renderWithError(c, view.Register, "Register", domain.Registration{}, err)
	}
	shown := f
	shown.Password, shown.PasswordConfirm = "", ""
	if err := c.Validate(&f); err != nil {
		return renderWithError(c, view.Register, "Register", shown, err)
	}
	if err := h.catalogue.Register(c.Request().Context(), f); err != nil {
		return renderWithError(c, view.Register, "Register", shown, err)
	}
	return c.Redirect(http.StatusSeeOther, "/login?registered=1")
}

// Profile shows the backend's current view of the principal, falling back to
// the session's copy when the backend cannot answer.
func (h *AuthHandler) Profile(c echo.Context) error {
	p, err := h.catalogue.Profile(c.Request().Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("profile unavailable, showing session principal")
		p = sessionFrom(c).Principal
	}
	return render(c, http.StatusOK, view.Profile, "Profile", p)
}
