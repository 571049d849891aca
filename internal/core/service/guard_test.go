package service

import (
	"net/url"
	"strings"
	"testing"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

func TestDecide(t *testing.T) {
	curator := &domain.Principal{ID: 2, Username: "claire", Role: domain.RoleCurator}
	adminP := &domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdmin}

	tests := []struct {
		name string
		sess domain.Session
		rule GuardRule
		want DecisionKind
	}{
		{"unknown is loading", domain.Session{State: domain.StateUnknown}, Protect(), DecisionLoading},
		{"verifying is loading even for public", domain.Session{State: domain.StateVerifying}, Public(), DecisionLoading},
		{"anonymous redirected", domain.Session{State: domain.StateAnonymous}, Protect(), DecisionRedirect},
		{"anonymous on public allowed", domain.Session{State: domain.StateAnonymous}, Public(), DecisionAllow},
		{"anonymous on public with roles allowed", domain.Session{State: domain.StateAnonymous}, GuardRule{RequiredRoles: []domain.Role{domain.RoleAdmin}}, DecisionAllow},
		{"any role accepted", domain.Session{State: domain.StateAuthenticated, Principal: curator}, Protect(), DecisionAllow},
		{"role mismatch denied", domain.Session{State: domain.StateAuthenticated, Principal: curator}, Protect(domain.RoleAdmin), DecisionDenied},
		{"role in set allowed", domain.Session{State: domain.StateAuthenticated, Principal: curator}, Protect(domain.RoleAdmin, domain.RoleCurator), DecisionAllow},
		{"admin allowed", domain.Session{State: domain.StateAuthenticated, Principal: adminP}, Protect(domain.RoleAdmin), DecisionAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.sess, tt.rule, "/admin/users")
			if got.Kind != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.Kind)
			}
		})
	}
}

func TestDecide_RedirectCarriesRequestedLocation(t *testing.T) {
	d := Decide(domain.Session{State: domain.StateAnonymous}, Protect(), "/profile?tab=security")
	if d.Kind != DecisionRedirect {
		t.Fatalf("expected redirect, got %s", d.Kind)
	}
	u, err := url.Parse(d.RedirectTo)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if u.Path != LoginPath {
		t.Fatalf("expected login path, got %s", u.Path)
	}
	if next := u.Query().Get("next"); next != "/profile?tab=security" {
		t.Fatalf("expected attempted path preserved, got %q", next)
	}
}

func TestDecide_DeniedNamesBothRoles(t *testing.T) {
	sess := domain.Session{
		State:     domain.StateAuthenticated,
		Principal: &domain.Principal{ID: 2, Username: "claire", Role: domain.RoleCurator},
	}
	d := Decide(sess, Protect(domain.RoleAdmin), "/admin/users")
	if d.Kind != DecisionDenied {
		t.Fatalf("expected denied, got %s", d.Kind)
	}
	msg := d.Denied.Message()
	if !strings.Contains(msg, "admin") || !strings.Contains(msg, "curator") {
		t.Fatalf("expected message naming admin and curator, got %q", msg)
	}
}

func TestLoginLocation_RejectsForeignTargets(t *testing.T) {
	for _, target := range []string{"https://evil.example", "//evil.example", "/\\evil.example", ""} {
		if got := LoginLocation(target); got != LoginPath {
			t.Fatalf("expected bare login path for %q, got %q", target, got)
		}
	}
}
