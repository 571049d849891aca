package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/api/handler"
	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

type fixedSession domain.Session

func (f fixedSession) Session() domain.Session { return domain.Session(f) }

type recordingAuth struct {
	logins  int
	logouts int
}

func (a *recordingAuth) Login(_ context.Context, username, _ string) (*domain.Principal, error) {
	a.logins++
	return &domain.Principal{ID: 1, Username: username, Role: domain.RoleVisitor}, nil
}

func (a *recordingAuth) Logout(context.Context) error {
	a.logouts++
	return nil
}

// emptyCatalogue embeds the interface so only the calls a test reaches need a body.
type emptyCatalogue struct {
	ports.CatalogueService
}

func (emptyCatalogue) Profile(context.Context) (*domain.Principal, error) {
	return nil, domain.ErrBackendUnreachable
}

var (
	loadingSession   = fixedSession{State: domain.StateVerifying}
	anonymousSession = fixedSession{State: domain.StateAnonymous}
	curatorSession   = fixedSession{
		State:     domain.StateAuthenticated,
		Principal: &domain.Principal{ID: 2, Username: "claire", Role: domain.RoleCurator},
	}
)

func newTestRouter(t *testing.T, sess fixedSession, auth *recordingAuth) http.Handler {
	t.Helper()
	e, err := NewRouter(Dependencies{
		Sessions:  sess,
		Auth:      auth,
		Catalogue: emptyCatalogue{},
		Checks:    map[string]handler.Check{},
		Log:       zerolog.Nop(),
		Registry:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return e
}

// do serves req as if it came from a browser on this machine.
func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.RemoteAddr = "127.0.0.1:40000"
	return doFrom(h, req)
}

func doFrom(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Guard wiring
// ---------------------------------------------------------------------------

func TestRouter_LoadingBlocksPagesButNotOps(t *testing.T) {
	h := newTestRouter(t, loadingSession, &recordingAuth{})

	if rec := do(h, httptest.NewRequest(http.MethodGet, "/profile", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", rec.Code)
	}
	if rec := do(h, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected liveness to answer while loading, got %d", rec.Code)
	}
}

func TestRouter_AnonymousRedirectedFromAdmin(t *testing.T) {
	h := newTestRouter(t, anonymousSession, &recordingAuth{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fadmin%2Fusers" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestRouter_RoleRules(t *testing.T) {
	h := newTestRouter(t, curatorSession, &recordingAuth{})

	tests := []struct {
		path string
		code int
	}{
		{"/admin/users", http.StatusForbidden},
		{"/admin", http.StatusForbidden},
		{"/admin/galleries/new", http.StatusOK},
		{"/profile", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestRouter_GenerateNeedsLogin(t *testing.T) {
	h := newTestRouter(t, anonymousSession, &recordingAuth{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/generate", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login?next=%2Fgenerate" {
		t.Fatalf("expected login redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouter_TourActionsNeedCSRFToken(t *testing.T) {
	h := newTestRouter(t, anonymousSession, &recordingAuth{})

	req := httptest.NewRequest(http.MethodPost, "/virtual-exhibitions/vx-1/advance", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := do(h, req); rec.Code != http.StatusBadRequest && rec.Code != http.StatusForbidden {
		t.Fatalf("expected rejection without token, got %d", rec.Code)
	}
}

func TestRouter_APIMeUsesJSONGuard(t *testing.T) {
	h := newTestRouter(t, anonymousSession, &recordingAuth{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected 401 envelope, got %d %s", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// CSRF
// ---------------------------------------------------------------------------

func TestRouter_FormPostNeedsCSRFToken(t *testing.T) {
	auth := &recordingAuth{}
	h := newTestRouter(t, anonymousSession, auth)

	form := url.Values{"username": {"alice"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := do(h, req)
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusForbidden {
		t.Fatalf("expected rejection without token, got %d", rec.Code)
	}
	if auth.logins != 0 {
		t.Fatalf("login must not be attempted without a csrf token")
	}
}

func TestRouter_FormPostWithCSRFToken(t *testing.T) {
	auth := &recordingAuth{}
	h := newTestRouter(t, anonymousSession, auth)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("login page: %d", rec.Code)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "_gallery_csrf" {
			cookie = c
		}
	}
	if cookie == nil || !strings.Contains(rec.Body.String(), cookie.Value) {
		t.Fatalf("expected csrf cookie echoed in the form")
	}

	form := url.Values{"username": {"alice"}, "password": {"pw"}, "_csrf": {cookie.Value}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	rec = do(h, req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != handler.DefaultLanding {
		t.Fatalf("expected redirect to landing, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if auth.logins != 1 {
		t.Fatalf("expected one login, got %d", auth.logins)
	}
}

func TestRouter_JSONLoginSkipsCSRF(t *testing.T) {
	auth := &recordingAuth{}
	h := newTestRouter(t, anonymousSession, auth)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"alice","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := do(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_CrossSiteFormCannotLogOut(t *testing.T) {
	auth := &recordingAuth{}
	h := newTestRouter(t, curatorSession, auth)

	req := httptest.NewRequest(http.MethodPost, "/api/logout", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://evil.example")

	if rec := do(h, req); rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
	if auth.logouts != 0 {
		t.Fatalf("logout must not run for a form post")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("Content-Type", "application/json")
	if rec := do(h, req); rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Fatalf("expected JSON logout to succeed, got %d %s", rec.Code, rec.Body.String())
	}
	if auth.logouts != 1 {
		t.Fatalf("expected one logout, got %d", auth.logouts)
	}
}

// ---------------------------------------------------------------------------
// Local peers
// ---------------------------------------------------------------------------

func TestRouter_RemotePeersAreRefused(t *testing.T) {
	adminSession := fixedSession{
		State:     domain.StateAuthenticated,
		Principal: &domain.Principal{ID: 1, Username: "margaux", Role: domain.RoleAdmin},
	}
	h := newTestRouter(t, adminSession, &recordingAuth{})

	for _, path := range []string{"/api/me", "/admin/users", "/api/session"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", "127.0.0.1")
		rec := doFrom(h, req)
		if rec.Code != http.StatusForbidden || strings.Contains(rec.Body.String(), "margaux") {
			t.Fatalf("%s: expected 403 without the principal, got %d %s", path, rec.Code, rec.Body.String())
		}
	}

	if rec := do(h, httptest.NewRequest(http.MethodGet, "/api/me", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected the local browser to be served, got %d", rec.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, anonymousSession, &recordingAuth{})

	do(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "gallery_requests_total") {
		t.Fatalf("expected request metrics, got %d", rec.Code)
	}
}
