package ports

import (
	"context"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

// AuthBackend is the REST backend's authentication surface. Implementations
// keep the session cookie between calls.
type AuthBackend interface {
	// CSRFToken obtains an anti-forgery token for the next state-changing call.
	CSRFToken(ctx context.Context) (string, error)
	Login(ctx context.Context, creds domain.Credentials, csrfToken string) (*domain.Principal, error)
	// Logout must tolerate an already torn-down session.
	Logout(ctx context.Context, csrfToken string) error
	// Verify confirms the ambient session. The returned principal is nil
	// when the backend confirms without a user payload.
	Verify(ctx context.Context) (*domain.Principal, error)
}
