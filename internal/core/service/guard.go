package service

import (
	"net/url"
	"strings"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

// LoginPath is where unauthenticated visitors of protected views are sent.
const LoginPath = "/login"

// GuardRule is the access requirement of one view. An empty RequiredRoles
// accepts any authenticated role.
type GuardRule struct {
	RequireAuth   bool
	RequiredRoles []domain.Role
}

// Protect requires an authenticated principal holding one of roles.
func Protect(roles ...domain.Role) GuardRule {
	return GuardRule{RequireAuth: true, RequiredRoles: roles}
}

// Public lets anonymous visitors through.
func Public() GuardRule {
	return GuardRule{}
}

type DecisionKind int

const (
	DecisionLoading DecisionKind = iota
	DecisionRedirect
	DecisionDenied
	DecisionAllow
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionDenied:
		return "denied"
	default:
		return "allow"
	}
}

// Decision is the outcome of evaluating a GuardRule for one navigation.
type Decision struct {
	Kind       DecisionKind
	RedirectTo string
	Denied     domain.AccessDenied
}

// Decide evaluates rule against sess for the requested location. It is a
// pure function and must be called on every navigation.
func Decide(sess domain.Session, rule GuardRule, requested string) Decision {
	if sess.Loading() {
		return Decision{Kind: DecisionLoading}
	}
	if rule.RequireAuth && !sess.IsAuthenticated() {
		return Decision{Kind: DecisionRedirect, RedirectTo: LoginLocation(requested)}
	}
	if len(rule.RequiredRoles) > 0 && sess.Principal != nil && !sess.Principal.HasAnyRole(rule.RequiredRoles...) {
		return Decision{
			Kind: DecisionDenied,
			Denied: domain.AccessDenied{
				RequiredRoles: rule.RequiredRoles,
				ActualRole:    sess.Principal.Role,
			},
		}
	}
	return Decision{Kind: DecisionAllow}
}

// LoginLocation builds the login URL carrying the originally requested location.
func LoginLocation(requested string) string {
	if !IsLocalPath(requested) {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {requested}}.Encode()
}

// IsLocalPath reports whether p is safe to redirect to after login.
func IsLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
