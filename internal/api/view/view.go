// Package view renders the HTML pages of the gallery front end from
// templates embedded in the binary.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Renderer.Render.
const (
	Home           = "home.html"
	Login          = "login.html"
	Register       = "register.html"
	Profile        = "profile.html"
	Records        = "records.html"
	Record         = "record.html"
	Search         = "search.html"
	Tour           = "tour.html"
	Generate       = "generate.html"
	Admin          = "admin.html"
	Users          = "users.html"
	GalleryForm    = "gallery_form.html"
	ExpositionForm = "exposition_form.html"
	Loading        = "loading.html"
	Denied         = "denied.html"
	Error          = "error.html"
)

var pages = []string{
	Home, Login, Register, Profile, Records, Record, Search, Tour, Generate,
	Admin, Users, GalleryForm, ExpositionForm, Loading, Denied, Error,
}

// Page is the data every template receives.
type Page struct {
	Title     string
	Session   domain.Session
	CSRFToken string
	Error     string
	Notice    string
	Data      any
}

// Can reports whether the current principal holds one of roles. Used by the
// layout to hide links the guard would refuse.
func (p Page) Can(roles ...domain.Role) bool {
	return p.Session.Principal.HasAnyRole(roles...)
}

// Renderer implements echo.Renderer.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

var funcs = template.FuncMap{
	"roles": domain.Roles,
}

// Context keys read by NewPage. The guard middleware sets SessionKey; echo's
// CSRF middleware sets CSRFKey.
const (
	SessionKey = "session"
	CSRFKey    = "csrf"
)

// NewPage builds the page data for the current request.
func NewPage(c echo.Context, title string, data any) Page {
	p := Page{Title: title, Data: data}
	if s, ok := c.Get(SessionKey).(domain.Session); ok {
		p.Session = s
	}
	if tok, ok := c.Get(CSRFKey).(string); ok {
		p.CSRFToken = tok
	}
	return p
}
