package middleware

import (
	"mime"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
)

// LoopbackOnly refuses every request whose TCP peer is not on this machine.
// The session is process-wide, so a remote peer would act as the signed-in user.
// Forwarding headers are ignored.
func LoopbackOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isLoopbackPeer(c.Request().RemoteAddr) {
				return echo.NewHTTPError(http.StatusForbidden, "only local connections are accepted")
			}
			return next(c)
		}
	}
}

func isLoopbackPeer(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// RequireJSON rejects writes that are not application/json. A cross-site page
// cannot send a JSON body without a CORS preflight, which is never granted.
func RequireJSON() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			if req.Header.Get("Sec-Fetch-Site") == "cross-site" {
				return echo.NewHTTPError(http.StatusForbidden, "cross-site request refused")
			}
			mt, _, err := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
			if err != nil || mt != echo.MIMEApplicationJSON {
				return echo.NewHTTPError(http.StatusUnsupportedMediaType, "request body must be application/json")
			}
			return next(c)
		}
	}
}
