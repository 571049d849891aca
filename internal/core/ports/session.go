package ports

import (
	"context"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

// SessionReader gives a consistent read of who is logged in.
type SessionReader interface {
	Session() domain.Session
}

// Authenticator changes the session through the backend.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*domain.Principal, error)
	Logout(ctx context.Context) error
}
