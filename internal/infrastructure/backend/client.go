// Package backend talks to the gallery REST backend over HTTP. The session
// cookie set by the backend lives in the client's cookie jar, so one Client is
// one browser-like session. With a CookieStore the jar outlives the process.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

const (
	// CSRFCookie is the cookie the backend stores its anti-forgery token in.
	CSRFCookie = "csrftoken"
	// CSRFHeader carries the token on state-changing requests.
	CSRFHeader = "X-CSRFToken"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Endpoints are the auth paths relative to the base URL.
type Endpoints struct {
	CSRF   string
	Login  string
	Logout string
	Verify string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		CSRF:   "/api/auth/csrf-token/",
		Login:  "/api/auth/login/",
		Logout: "/api/auth/logout/",
		Verify: "/api/auth/verify/",
	}
}

// CookieStore persists the backend's session and csrf cookies.
type CookieStore interface {
	Load(ctx context.Context) ([]*http.Cookie, error)
	Save(ctx context.Context, cookies []*http.Cookie) error
	Delete(ctx context.Context) error
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Endpoints Endpoints
	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
	// Cookies keeps the jar across restarts. Nil keeps it in memory only.
	Cookies CookieStore
}

// Client implements ports.AuthBackend and ports.CatalogueBackend.
type Client struct {
	base    *url.URL
	http    *http.Client
	ep      Endpoints
	cookies CookieStore
	log     zerolog.Logger
}

func New(opts Options, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute", opts.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("backend: cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ep := opts.Endpoints
	def := DefaultEndpoints()
	if ep.CSRF == "" {
		ep.CSRF = def.CSRF
	}
	if ep.Login == "" {
		ep.Login = def.Login
	}
	if ep.Logout == "" {
		ep.Logout = def.Logout
	}
	if ep.Verify == "" {
		ep.Verify = def.Verify
	}

	return &Client{
		base:    base,
		http:    &http.Client{Jar: jar, Timeout: timeout, Transport: opts.Transport},
		ep:      ep,
		cookies: opts.Cookies,
		log:     log,
	}, nil
}

// RestoreSession loads the persisted cookies into the jar. Call it before
// the session store verifies its snapshot.
func (c *Client) RestoreSession(ctx context.Context) error {
	if c.cookies == nil {
		return nil
	}
	cookies, err := c.cookies.Load(ctx)
	if err != nil {
		return fmt.Errorf("backend: restore cookies: %w", err)
	}
	if len(cookies) > 0 {
		c.http.Jar.SetCookies(c.base, cookies)
		c.log.Debug().Int("cookies", len(cookies)).Msg("backend session restored")
	}
	return nil
}

func (c *Client) saveSession(ctx context.Context) {
	if c.cookies == nil {
		return
	}
	if err := c.cookies.Save(ctx, c.http.Jar.Cookies(c.base)); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist backend cookies")
	}
}

// clearSession expires every cookie the jar holds for the backend and
// forgets the persisted copy.
func (c *Client) clearSession(ctx context.Context) {
	held := c.http.Jar.Cookies(c.base)
	expired := make([]*http.Cookie, 0, len(held))
	for _, ck := range held {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		c.http.Jar.SetCookies(c.base, expired)
	}
	if c.cookies == nil {
		return
	}
	if err := c.cookies.Delete(ctx); err != nil {
		c.log.Warn().Err(err).Msg("failed to delete persisted backend cookies")
	}
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type userEnvelope struct {
	User *domain.Principal `json:"user"`
}

// CSRFToken primes the jar with the backend's csrftoken cookie and returns it.
// Backends that answer with the token in the body instead are also accepted.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	var body struct {
		CSRFToken  string `json:"csrfToken"`
		CSRFToken2 string `json:"csrf_token"`
	}
	if err := c.do(ctx, http.MethodGet, c.ep.CSRF, nil, nil, "", &body); err != nil {
		return "", err
	}
	if tok := c.cookie(CSRFCookie); tok != "" {
		return tok, nil
	}
	if body.CSRFToken != "" {
		return body.CSRFToken, nil
	}
	if body.CSRFToken2 != "" {
		return body.CSRFToken2, nil
	}
	return "", fmt.Errorf("backend: no csrf token in %s response", c.ep.CSRF)
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials, csrfToken string) (*domain.Principal, error) {
	var raw json.RawMessage
	payload := map[string]string{"username": creds.Username, "password": creds.Password}
	if err := c.do(ctx, http.MethodPost, c.ep.Login, nil, payload, csrfToken, &raw); err != nil {
		return nil, err
	}
	p, err := decodePrincipal(raw)
	if err != nil {
		return nil, err
	}
	if p != nil {
		c.saveSession(ctx)
	}
	return p, nil
}

// Logout ends the backend session. The local cookies are dropped whatever
// the backend answers.
func (c *Client) Logout(ctx context.Context, csrfToken string) error {
	err := c.do(ctx, http.MethodPost, c.ep.Logout, nil, struct{}{}, csrfToken, nil)
	c.clearSession(ctx)
	return err
}

// Verify confirms the session cookie still authenticates. A nil principal
// with a nil error means the backend confirmed without a user payload.
// A rejected session also drops the cookies; an unreachable backend keeps them.
func (c *Client) Verify(ctx context.Context) (*domain.Principal, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.ep.Verify, nil, nil, "", &raw); err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) {
			c.clearSession(ctx)
		}
		return nil, err
	}
	p, err := decodePrincipal(raw)
	if err != nil {
		return nil, err
	}
	c.saveSession(ctx)
	return p, nil
}

func decodePrincipal(raw json.RawMessage) (*domain.Principal, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var env userEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("backend: decode user: %w", err)
	}
	if env.User != nil {
		return env.User, nil
	}
	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err == nil && p.Username != "" {
		return &p, nil
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Catalogue and administration
// ---------------------------------------------------------------------------

func (c *Client) ListArtworks(ctx context.Context, query url.Values) ([]domain.Record, error) {
	return c.list(ctx, "/catalogue/oeuvres/", query)
}

func (c *Client) GetArtwork(ctx context.Context, id string) (domain.Record, error) {
	return c.get(ctx, "/catalogue/oeuvres/"+url.PathEscape(id)+"/")
}

func (c *Client) AdvancedSearch(ctx context.Context, query url.Values) ([]domain.Record, error) {
	return c.list(ctx, "/catalogue/advanced-search/", query)
}

func (c *Client) ListGalleries(ctx context.Context) ([]domain.Record, error) {
	return c.list(ctx, "/galeries/", nil)
}

func (c *Client) GetGallery(ctx context.Context, id string) (domain.Record, error) {
	return c.get(ctx, "/galeries/"+url.PathEscape(id)+"/")
}

func (c *Client) CreateGallery(ctx context.Context, in domain.NewGallery) (domain.Record, error) {
	return c.create(ctx, "/galeries/ajouter/", in)
}

func (c *Client) ListExpositions(ctx context.Context) ([]domain.Record, error) {
	return c.list(ctx, "/expositions/", nil)
}

func (c *Client) GetExposition(ctx context.Context, id string) (domain.Record, error) {
	return c.get(ctx, "/expositions/"+url.PathEscape(id)+"/")
}

func (c *Client) CreateExposition(ctx context.Context, in domain.NewExposition) (domain.Record, error) {
	return c.create(ctx, "/expositions/ajouter/", in)
}

// GenerateArtwork asks the backend to compose and store a new artwork.
func (c *Client) GenerateArtwork(ctx context.Context) (domain.Record, error) {
	return c.create(ctx, "/catalogue/generer/", struct{}{})
}

func (c *Client) ListVirtualExhibitions(ctx context.Context) ([]domain.Record, error) {
	return c.list(ctx, "/virtual-exhibitions/", nil)
}

// tourPath addresses one action of the virtual tour API of an exhibition.
func tourPath(exhibitionID, action string) string {
	return "/virtual-exhibitions/" + url.PathEscape(exhibitionID) + "/api/" + action + "/"
}

func (c *Client) StartTour(ctx context.Context, exhibitionID string) error {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, tourPath(exhibitionID, "start-session"), nil, struct{}{}, token, nil)
}

func (c *Client) TourProgress(ctx context.Context, exhibitionID string) (*domain.TourProgress, error) {
	var p domain.TourProgress
	if err := c.do(ctx, http.MethodGet, tourPath(exhibitionID, "progress"), nil, nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) AdvanceTour(ctx context.Context, exhibitionID string) (*domain.TourProgress, error) {
	return c.moveTour(ctx, tourPath(exhibitionID, "advance"), struct{}{})
}

func (c *Client) GoToTourStep(ctx context.Context, exhibitionID string, index int) (*domain.TourProgress, error) {
	return c.moveTour(ctx, tourPath(exhibitionID, "go-to"), map[string]int{"index": index})
}

func (c *Client) moveTour(ctx context.Context, path string, in any) (*domain.TourProgress, error) {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}
	var p domain.TourProgress
	if err := c.do(ctx, http.MethodPost, path, nil, in, token, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Register(ctx context.Context, in domain.Registration) error {
	payload := map[string]string{
		"username":   in.Username,
		"email":      in.Email,
		"password":   in.Password,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register/", nil, payload, token, nil)
}

func (c *Client) Profile(ctx context.Context) (*domain.Principal, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/accounts/profile/", nil, nil, "", &raw); err != nil {
		return nil, err
	}
	p, err := decodePrincipal(raw)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("backend: profile: %w", domain.ErrRecordNotFound)
	}
	return p, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.Record, error) {
	return c.list(ctx, "/accounts/users/", nil)
}

func (c *Client) UpdateUserRole(ctx context.Context, userID string, role domain.Role) error {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return err
	}
	path := "/accounts/users/" + url.PathEscape(userID) + "/role/"
	return c.do(ctx, http.MethodPatch, path, nil, map[string]string{"role": string(role)}, token, nil)
}

func (c *Client) get(ctx context.Context, path string) (domain.Record, error) {
	var rec domain.Record
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "", &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrRecordNotFound
	}
	return rec, nil
}

func (c *Client) create(ctx context.Context, path string, in any) (domain.Record, error) {
	token, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}
	var rec domain.Record
	if err := c.do(ctx, http.MethodPost, path, nil, in, token, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// listKeys are the envelope keys under which the backend nests its lists.
var listKeys = []string{"oeuvres", "results", "galeries", "expositions", "users"}

func (c *Client) list(ctx context.Context, path string, query url.Values) ([]domain.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, query, nil, "", &raw); err != nil {
		return nil, err
	}
	return decodeList(raw)
}

func decodeList(raw json.RawMessage) ([]domain.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []domain.Record{}, nil
	}
	if raw[0] == '[' {
		var recs []domain.Record
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("backend: decode list: %w", err)
		}
		return recs, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("backend: decode list: %w", err)
	}
	for _, k := range listKeys {
		if inner, ok := env[k]; ok {
			return decodeList(inner)
		}
	}
	return []domain.Record{}, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any, csrfToken string, out any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("backend: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrfToken != "" {
		req.Header.Set(CSRFHeader, csrfToken)
		// Django checks the referer on HTTPS requests carrying a CSRF token.
		req.Header.Set("Referer", c.base.String())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", domain.ErrBackendUnreachable, method, path, err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.BackendError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

var messageKeys = []string{"error", "detail", "message", "non_field_errors"}

// errorMessage pulls a human message out of an error body. Well-known keys
// win; otherwise field errors are flattened in key order.
func errorMessage(data []byte) string {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	for _, k := range messageKeys {
		if s := flatten(body[k]); s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if s := flatten(body[k]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := flatten(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
