package domain

import (
	"fmt"
	"net/url"
	"sort"
)

// Record is an artwork, gallery, exposition or user row exactly as the
// backend returned it. Views display it without interpreting it.
type Record map[string]any

var titleKeys = []string{"titre", "title", "nom", "name", "username"}

// Title picks the first human label found on the record.
func (r Record) Title() string {
	for _, k := range titleKeys {
		if v, ok := r[k]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return fmt.Sprint(r["id"])
}

// ID returns the record identifier as a path segment. Expositions are keyed by uuid.
func (r Record) ID() string {
	for _, k := range []string{"uuid", "id"} {
		if v, ok := r[k]; ok && v != nil {
			switch n := v.(type) {
			case float64:
				return fmt.Sprintf("%d", int64(n))
			default:
				return fmt.Sprint(n)
			}
		}
	}
	return ""
}

// Field is a single key/value pair for rendering.
type Field struct {
	Key   string
	Value string
}

// Fields returns the record's scalar fields sorted by key.
func (r Record) Fields() []Field {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		switch v := r[k].(type) {
		case nil:
			continue
		case map[string]any, []any:
			continue
		case float64:
			out = append(out, Field{Key: k, Value: fmt.Sprintf("%g", v)})
		default:
			out = append(out, Field{Key: k, Value: fmt.Sprint(v)})
		}
	}
	return out
}

// SearchFilters is the advanced catalogue search form.
type SearchFilters struct {
	Q        string `json:"q,omitempty"                  query:"q"                  form:"q"`
	Style    string `json:"style,omitempty"              query:"style"              form:"style"`
	Theme    string `json:"theme,omitempty"              query:"theme"              form:"theme"`
	Color    string `json:"couleur_principale,omitempty" query:"couleur_principale" form:"couleur_principale"`
	Artist   string `json:"artiste,omitempty"            query:"artiste"            form:"artiste"`
	DateMin  string `json:"date_min,omitempty"           query:"date_min"           form:"date_min"   validate:"omitempty,datetime=2006-01-02"`
	DateMax  string `json:"date_max,omitempty"           query:"date_max"           form:"date_max"   validate:"omitempty,datetime=2006-01-02"`
	Tags     string `json:"tags,omitempty"               query:"tags"               form:"tags"`
	MinViews string `json:"min_views,omitempty"          query:"min_views"          form:"min_views"  validate:"omitempty,numeric"`
	MaxViews string `json:"max_views,omitempty"          query:"max_views"          form:"max_views"  validate:"omitempty,numeric"`
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return f == SearchFilters{}
}

// Values encodes the non-empty filters as query parameters.
func (f SearchFilters) Values() url.Values {
	v := url.Values{}
	add := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	add("q", f.Q)
	add("style", f.Style)
	add("theme", f.Theme)
	add("couleur_principale", f.Color)
	add("artiste", f.Artist)
	add("date_min", f.DateMin)
	add("date_max", f.DateMax)
	add("tags", f.Tags)
	add("min_views", f.MinViews)
	add("max_views", f.MaxViews)
	return v
}

// NewGallery is the gallery creation form.
type NewGallery struct {
	Name        string `json:"nom"         form:"nom"         validate:"required,max=200"`
	Description string `json:"description" form:"description"`
	Theme       string `json:"theme"       form:"theme"`
}

// NewExposition is the exposition creation form.
type NewExposition struct {
	Title       string `json:"titre"       form:"titre"       validate:"required,max=200"`
	Description string `json:"description" form:"description"`
	StartDate   string `json:"date_debut"  form:"date_debut"  validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"date_fin"    form:"date_fin"    validate:"required,datetime=2006-01-02"`
	GalleryID   string `json:"galerie"     form:"galerie"`
}

// Registration is the account creation form.
type Registration struct {
	Username        string `json:"username"         form:"username"         validate:"required,min=3"`
	Email           string `json:"email"            form:"email"            validate:"required,email"`
	Password        string `json:"password"         form:"password"         validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name"       form:"first_name"`
	LastName        string `json:"last_name"        form:"last_name"`
}

// TourProgress is the visitor's position in a virtual exhibition tour.
type TourProgress struct {
	CurrentIndex   int    `json:"current_index"`
	TotalArtworks  int    `json:"total_artworks"`
	Completed      bool   `json:"completed"`
	CurrentArtwork Record `json:"current_artwork"`
}

// TourStep is one entry of the tour's quick navigation.
type TourStep struct {
	Index   int
	Number  int
	Current bool
}

// Position is the 1-based index of the current artwork.
func (p TourProgress) Position() int { return p.CurrentIndex + 1 }

func (p TourProgress) HasPrevious() bool { return p.CurrentIndex > 0 }

func (p TourProgress) Previous() int { return p.CurrentIndex - 1 }

func (p TourProgress) Steps() []TourStep {
	steps := make([]TourStep, 0, p.TotalArtworks)
	for i := 0; i < p.TotalArtworks; i++ {
		steps = append(steps, TourStep{Index: i, Number: i + 1, Current: i == p.CurrentIndex})
	}
	return steps
}
