package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/artgallery/gallery-web/internal/api/metrics"
	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

// SessionHandler exposes the session store and the auth gateway as JSON.
type SessionHandler struct {
	sessions ports.SessionReader
	auth     ports.Authenticator
}

func NewSessionHandler(sessions ports.SessionReader, auth ports.Authenticator) *SessionHandler {
	return &SessionHandler{sessions: sessions, auth: auth}
}

type sessionResponse struct {
	State           domain.SessionState `json:"state"`
	Loading         bool                `json:"loading"`
	IsAuthenticated bool                `json:"is_authenticated"`
	User            *domain.Principal   `json:"user"`
}

type userResponse struct {
	User *domain.Principal `json:"user"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		State:           s.State,
		Loading:         s.Loading(),
		IsAuthenticated: s.IsAuthenticated(),
		User:            s.Principal,
	}
}

// Get returns the current session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(h.sessions.Session()))
}

// Login authenticates against the backend and stores the principal.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      domain.Credentials  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var creds domain.Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&creds); err != nil {
		return err
	}

	p, err := h.auth.Login(c.Request().Context(), creds.Username, creds.Password)
	metrics.AuthOperationsTotal.WithLabelValues("login", metrics.AuthResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: p})
}

// Logout clears the session. It succeeds even when the backend is unreachable.
//
// @Summary      Logout
// @Tags         session
// @Accept       json
// @Success      204
// @Failure      415  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	err := h.auth.Logout(c.Request().Context())
	metrics.AuthOperationsTotal.WithLabelValues("logout", metrics.AuthResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated principal.
//
// @Summary      Current user
// @Tags         session
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/me [get]
func (h *SessionHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, userResponse{User: h.sessions.Session().Principal})
}
