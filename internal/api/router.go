package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/artgallery/gallery-web/docs"
	"github.com/artgallery/gallery-web/internal/api/handler"
	"github.com/artgallery/gallery-web/internal/api/middleware"
	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
	"github.com/artgallery/gallery-web/internal/core/service"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Sessions  ports.SessionReader
	Auth      ports.Authenticator
	Catalogue ports.CatalogueService
	Checks    map[string]handler.Check
	Log       zerolog.Logger
	// SecureCookies marks the CSRF cookie Secure; set it when served over HTTPS.
	SecureCookies bool
	// Registry receives the request metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	renderer, err := view.New()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.LoopbackOnly())
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "gallery",
		Registerer: registerer,
	}))
	e.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		Skipper:        skipCSRF,
		TokenLookup:    "form:_csrf",
		ContextKey:     view.CSRFKey,
		CookieName:     "_gallery_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   d.SecureCookies,
		CookieSameSite: http.SameSiteStrictMode,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Catalogue, d.Log)
	sessionHandler := handler.NewSessionHandler(d.Sessions, d.Auth)
	catalogueHandler := handler.NewCatalogueHandler(d.Catalogue, d.Log)
	adminHandler := handler.NewAdminHandler(d.Catalogue, d.Log)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	public := middleware.Guard(d.Sessions, service.Public())
	authenticated := middleware.Guard(d.Sessions, service.Protect())
	adminOrArtist := middleware.Guard(d.Sessions, service.Protect(domain.RoleAdmin, domain.RoleArtist))
	adminOnly := middleware.Guard(d.Sessions, service.Protect(domain.RoleAdmin))
	adminOrCurator := middleware.Guard(d.Sessions, service.Protect(domain.RoleAdmin, domain.RoleCurator))

	// --- Public pages ---
	pages := e.Group("", public)
	pages.GET("/", catalogueHandler.Home)
	pages.GET("/login", authHandler.LoginForm)
	pages.POST("/login", authHandler.Login)
	pages.GET("/register", authHandler.RegisterForm)
	pages.POST("/register", authHandler.Register)
	pages.GET("/catalogue", catalogueHandler.Artworks)
	pages.GET("/catalogue/search", catalogueHandler.Search)
	pages.POST("/catalogue/search/history/clear", catalogueHandler.ClearSearchHistory)
	pages.GET("/catalogue/:id", catalogueHandler.Artwork)
	pages.GET("/galleries", catalogueHandler.Galleries)
	pages.GET("/galleries/:id", catalogueHandler.Gallery)
	pages.GET("/expositions", catalogueHandler.Expositions)
	pages.GET("/expositions/:id", catalogueHandler.Exposition)
	pages.GET("/virtual-exhibitions", catalogueHandler.VirtualExhibitions)
	pages.GET("/virtual-exhibitions/:id", catalogueHandler.Tour)
	pages.POST("/virtual-exhibitions/:id/start", catalogueHandler.StartTour)
	pages.POST("/virtual-exhibitions/:id/advance", catalogueHandler.AdvanceTour)
	pages.POST("/virtual-exhibitions/:id/go-to", catalogueHandler.GoToTourStep)

	// --- Authenticated pages ---
	e.GET("/profile", authHandler.Profile, authenticated)
	e.POST("/logout", authHandler.Logout, authenticated)
	e.GET("/generate", catalogueHandler.GenerateForm, authenticated)
	e.POST("/generate", catalogueHandler.Generate, authenticated)

	// --- Role-gated pages ---
	e.GET("/admin", adminHandler.Dashboard, adminOrArtist)
	e.GET("/admin/users", adminHandler.Users, adminOnly)
	e.POST("/admin/users/:id/role", adminHandler.UpdateUserRole, adminOnly)
	e.GET("/admin/galleries/new", adminHandler.NewGalleryForm, adminOrCurator)
	e.POST("/admin/galleries/new", adminHandler.CreateGallery, adminOrCurator)
	e.GET("/admin/expositions/new", adminHandler.NewExpositionForm, adminOrCurator)
	e.POST("/admin/expositions/new", adminHandler.CreateExposition, adminOrCurator)

	// --- JSON session API ---
	apiGroup := e.Group("/api", middleware.RequireJSON())
	apiGroup.GET("/session", sessionHandler.Get)
	apiGroup.POST("/login", sessionHandler.Login)
	apiGroup.POST("/logout", sessionHandler.Logout)
	apiGroup.GET("/me", sessionHandler.Me, middleware.GuardAPI(d.Sessions, service.Protect()))

	// --- Ops (no guard) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness) // storage and backend reachable
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// skipCSRF exempts the JSON API and the ops endpoints.
func skipCSRF(c echo.Context) bool {
	p := c.Request().URL.Path
	for _, prefix := range []string{"/api/", "/health", "/metrics", "/swagger/"} {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
