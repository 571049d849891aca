package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/service"
)

// DefaultLanding is where a login without a usable next location ends up.
const DefaultLanding = "/profile"

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// sessionFrom returns the session the guard read for this request.
func sessionFrom(c echo.Context) domain.Session {
	sess, _ := c.Get(view.SessionKey).(domain.Session)
	return sess
}

// afterLogin picks the location to continue to once logged in.
func afterLogin(next string) string {
	if !service.IsLocalPath(next) || strings.HasPrefix(next, service.LoginPath) {
		return DefaultLanding
	}
	return next
}

func render(c echo.Context, status int, page, title string, data any) error {
	return c.Render(status, page, view.NewPage(c, title, data))
}

// renderWithError re-renders a form page with the message of err.
func renderWithError(c echo.Context, page, title string, data any, err error) error {
	status, msg := ErrorStatus(err)
	p := view.NewPage(c, title, data)
	p.Error = msg
	return c.Render(status, page, p)
}

// ErrorStatus maps an error to its HTTP status and a message safe to show.
func ErrorStatus(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ae *domain.AuthError
	switch {
	case errors.As(err, &ae) && errors.Is(err, domain.ErrAuthRejected):
		return http.StatusUnauthorized, ae.Error()
	case errors.As(err, &ae) && errors.Is(err, domain.ErrNetworkFailure):
		return http.StatusBadGateway, ae.Error()
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "session expired"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "invalid role"
	case errors.Is(err, domain.ErrInvalidTourStep):
		return http.StatusBadRequest, "invalid tour step"
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrBackendUnreachable):
		return http.StatusBadGateway, "the server could not be reached, please try again"
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		msg := be.Message
		if msg == "" {
			msg = http.StatusText(be.StatusCode)
		}
		return be.StatusCode, msg
	}
	return http.StatusInternalServerError, "internal server error"
}

// formName makes validation messages use the form field name.
func formName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
