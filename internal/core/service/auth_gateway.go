package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

// AuthGateway performs every network call that changes authentication state.
type AuthGateway struct {
	backend ports.AuthBackend
	store   *SessionStore
	log     zerolog.Logger
}

func NewAuthGateway(backend ports.AuthBackend, store *SessionStore, log zerolog.Logger) *AuthGateway {
	return &AuthGateway{backend: backend, store: store, log: log}
}

// Login exchanges credentials for a session. Non-empty fields are the
// caller's concern. On failure the session store is left untouched and the
// returned *domain.AuthError carries a message fit for the user.
func (g *AuthGateway) Login(ctx context.Context, username, password string) (*domain.Principal, error) {
	token, err := g.backend.CSRFToken(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("csrf token request failed")
		return nil, classifyLoginError(err)
	}

	p, err := g.backend.Login(ctx, domain.Credentials{Username: username, Password: password}, token)
	if err != nil {
		g.log.Info().Err(err).Str("username", username).Msg("login failed")
		return nil, classifyLoginError(err)
	}
	if p == nil {
		return nil, &domain.AuthError{Kind: domain.ErrAuthRejected, Message: domain.LoginFallbackMessage}
	}

	if err := g.store.SetPrincipal(ctx, p); err != nil {
		// the in-memory session is set; only the reload snapshot is missing
		g.log.Error().Err(err).Str("username", p.Username).Msg("login succeeded but snapshot was not persisted")
	}
	g.log.Info().Str("username", p.Username).Str("role", string(p.Role)).Msg("login succeeded")
	return p, nil
}

func classifyLoginError(err error) error {
	var be *domain.BackendError
	if errors.As(err, &be) {
		msg := be.Message
		if msg == "" {
			msg = domain.LoginFallbackMessage
		}
		return &domain.AuthError{Kind: domain.ErrAuthRejected, Message: msg, Err: err}
	}
	return &domain.AuthError{
		Kind:    domain.ErrNetworkFailure,
		Message: "the server could not be reached, please try again",
		Err:     err,
	}
}

// Logout tears down the backend session best-effort, then always clears the
// local session. Only a failure to clear the local snapshot is returned.
func (g *AuthGateway) Logout(ctx context.Context) error {
	token, err := g.backend.CSRFToken(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("csrf token unavailable for logout")
	}
	if err := g.backend.Logout(ctx, token); err != nil {
		g.log.Warn().Err(err).Msg("backend logout failed, clearing local session anyway")
	}

	username := g.store.Principal().DisplayName()
	if err := g.store.SetPrincipal(ctx, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	g.log.Info().Str("username", username).Msg("logged out")
	return nil
}

// Verify checks the ambient session cookie. The backend's user payload wins
// over the snapshot when it sends one.
func (g *AuthGateway) Verify(ctx context.Context, snapshot *domain.Principal) (*domain.Principal, error) {
	p, err := g.backend.Verify(ctx)
	if err != nil {
		return nil, &domain.AuthError{Kind: domain.ErrSessionExpired, Err: err}
	}
	if p != nil {
		return p, nil
	}
	if snapshot == nil {
		return nil, &domain.AuthError{Kind: domain.ErrSessionExpired}
	}
	return snapshot, nil
}
