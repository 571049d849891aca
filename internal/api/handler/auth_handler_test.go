package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/artgallery/gallery-web/internal/api/view"
	"github.com/artgallery/gallery-web/internal/core/domain"
)

func withSession(sess domain.Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(view.SessionKey, sess)
			return next(c)
		}
	}
}

func TestAuthHandler_Login_RedirectsToNext(t *testing.T) {
	e := newTestEcho(t)
	stub := &stubAuth{
		loginFn: func(_ context.Context, username, password string) (*domain.Principal, error) {
			if username != "admin" || password != "admin123" {
				t.Fatalf("unexpected credentials: %s/%s", username, password)
			}
			return &domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdmin}, nil
		},
	}
	h := NewAuthHandler(stub, &stubCatalogue{}, testLogger())
	e.POST("/login", h.Login)

	rec := postForm(e, "/login", url.Values{"username": {"admin"}, "password": {"admin123"}, "next": {"/admin/users"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/admin/users" {
		t.Fatalf("expected redirect to next, got %q", loc)
	}
}

func TestAuthHandler_Login_IgnoresForeignNext(t *testing.T) {
	e := newTestEcho(t)
	stub := &stubAuth{loginFn: func(context.Context, string, string) (*domain.Principal, error) {
		return &domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdmin}, nil
	}}
	e.POST("/login", NewAuthHandler(stub, &stubCatalogue{}, testLogger()).Login)

	rec := postForm(e, "/login", url.Values{"username": {"admin"}, "password": {"x"}, "next": {"//evil.example"}})
	if loc := rec.Header().Get(echo.HeaderLocation); loc != DefaultLanding {
		t.Fatalf("expected default landing, got %q", loc)
	}
}

func TestAuthHandler_Login_RejectedShowsBackendMessage(t *testing.T) {
	e := newTestEcho(t)
	stub := &stubAuth{loginFn: func(context.Context, string, string) (*domain.Principal, error) {
		return nil, &domain.AuthError{Kind: domain.ErrAuthRejected, Message: "Invalid credentials"}
	}}
	e.POST("/login", NewAuthHandler(stub, &stubCatalogue{}, testLogger()).Login)

	rec := postForm(e, "/login", url.Values{"username": {"admin"}, "password": {"wrongpass"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Fatalf("expected backend message in page")
	}
	if !strings.Contains(rec.Body.String(), `value="admin"`) {
		t.Fatalf("expected username kept in form")
	}
}

func TestAuthHandler_Login_NetworkFailure(t *testing.T) {
	e := newTestEcho(t)
	stub := &stubAuth{loginFn: func(context.Context, string, string) (*domain.Principal, error) {
		return nil, &domain.AuthError{Kind: domain.ErrNetworkFailure, Message: "the server could not be reached, please try again"}
	}}
	e.POST("/login", NewAuthHandler(stub, &stubCatalogue{}, testLogger()).Login)

	rec := postForm(e, "/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_EmptyFieldsNeverReachGateway(t *testing.T) {
	e := newTestEcho(t)
	stub := &stubAuth{loginFn: func(context.Context, string, string) (*domain.Principal, error) {
		t.Fatalf("gateway must not be called with empty fields")
		return nil, nil
	}}
	e.POST("/login", NewAuthHandler(stub, &stubCatalogue{}, testLogger()).Login)

	rec := postForm(e, "/login", url.Values{"username": {""}, "password": {""}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "username is required") {
		t.Fatalf("expected validation message, got:\n%s", rec.Body.String())
	}
}

func TestAuthHandler_LoginForm_AuthenticatedGoesOn(t *testing.T) {
	e := newTestEcho(t)
	h := NewAuthHandler(&stubAuth{}, &stubCatalogue{}, testLogger())
	sess := domain.Session{State: domain.StateAuthenticated, Principal: &domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdmin}}
	e.GET("/login", h.LoginForm, withSession(sess))

	rec := get(e, "/login?next=/catalogue")
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/catalogue" {
		t.Fatalf("expected redirect to /catalogue, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newTestEcho(t)
	called := false
	h := NewAuthHandler(&stubAuth{logoutFn: func(context.Context) error {
		called = true
		return nil
	}}, &stubCatalogue{}, testLogger())
	e.POST("/logout", h.Logout)

	rec := postForm(e, "/logout", url.Values{})
	if !called || rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Fatalf("expected logout then redirect home, got %d", rec.Code)
	}
}

func TestAuthHandler_Register(t *testing.T) {
	e := newTestEcho(t)
	cat := &stubCatalogue{}
	e.POST("/register", NewAuthHandler(&stubAuth{}, cat, testLogger()).Register)

	form := url.Values{
		"username": {"vincent"}, "email": {"v@gallery.test"},
		"password": {"sunflowers"}, "password_confirm": {"sunflowers"},
	}
	rec := postForm(e, "/register", form)
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/login?registered=1" {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if cat.register == nil || cat.register.Username != "vincent" {
		t.Fatalf("expected registration forwarded, got %+v", cat.register)
	}
}

func TestAuthHandler_Register_PasswordMismatch(t *testing.T) {
	e := newTestEcho(t)
	cat := &stubCatalogue{}
	e.POST("/register", NewAuthHandler(&stubAuth{}, cat, testLogger()).Register)

	form := url.Values{
		"username": {"vincent"}, "email": {"v@gallery.test"},
		"password": {"sunflowers"}, "password_confirm": {"irises"},
	}
	rec := postForm(e, "/register", form)
	if rec.Code != http.StatusBadRequest || cat.register != nil {
		t.Fatalf("expected 400 without backend call, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sunflowers") {
		t.Fatalf("password must not be echoed back")
	}
}

func TestAuthHandler_Profile_FallsBackToSession(t *testing.T) {
	e := newTestEcho(t)
	cat := &stubCatalogue{err: errors.New("backend down")}
	sess := domain.Session{State: domain.StateAuthenticated, Principal: &domain.Principal{ID: 1, Username: "admin", Email: "admin@gallery.test", Role: domain.RoleAdmin}}
	e.GET("/profile", NewAuthHandler(&stubAuth{}, cat, testLogger()).Profile, withSession(sess))

	rec := get(e, "/profile")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "admin@gallery.test") {
		t.Fatalf("expected profile from session, got %d", rec.Code)
	}
}
