package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/artgallery/gallery-web/internal/api/metrics"
	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/ports"
	"github.com/artgallery/gallery-web/internal/core/service"
)

// Guard evaluates rule on every request to a page. Loading renders a
// self-refreshing page with 503, anonymous visitors of protected pages are
// sent to the login page and principals without an accepted role get the
// access denied page.
func Guard(sessions ports.SessionReader, rule service.GuardRule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := decide(c, sessions, rule)
			switch d.Kind {
			case service.DecisionLoading:
				c.Response().Header().Set("Retry-After", "1")
				return c.Render(http.StatusServiceUnavailable, view.Loading, view.NewPage(c, "Loading", nil))
			case service.DecisionRedirect:
				return c.Redirect(http.StatusSeeOther, d.RedirectTo)
			case service.DecisionDenied:
				return c.Render(http.StatusForbidden, view.Denied, view.NewPage(c, "Access denied", d.Denied))
			}
			return next(c)
		}
	}
}

// GuardAPI is Guard for JSON endpoints: 503, 401 and 403 with the error envelope.
func GuardAPI(sessions ports.SessionReader, rule service.GuardRule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := decide(c, sessions, rule)
			switch d.Kind {
			case service.DecisionLoading:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session is being verified"})
			case service.DecisionRedirect:
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			case service.DecisionDenied:
				return c.JSON(http.StatusForbidden, map[string]string{"error": d.Denied.Message()})
			}
			return next(c)
		}
	}
}

func decide(c echo.Context, sessions ports.SessionReader, rule service.GuardRule) service.Decision {
	sess := sessions.Session()
	c.Set(view.SessionKey, sess)

	// only GET targets can be replayed after login
	requested := ""
	if c.Request().Method == http.MethodGet {
		requested = c.Request().URL.RequestURI()
	}
	d := service.Decide(sess, rule, requested)
	metrics.GuardDecisionsTotal.WithLabelValues(c.Path(), d.Kind.String()).Inc()
	return d
}
