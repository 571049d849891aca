package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artgallery/gallery-web/internal/core/domain"
	"github.com/artgallery/gallery-web/internal/core/ports"
)

// Verifier confirms a persisted snapshot against the backend.
type Verifier interface {
	Verify(ctx context.Context, snapshot *domain.Principal) (*domain.Principal, error)
}

// SessionStore is the single source of truth for who is logged in. One
// instance lives for the whole process and is passed to whatever needs it.
type SessionStore struct {
	mu        sync.RWMutex
	state     domain.SessionState
	principal *domain.Principal

	// persistMu orders snapshot writes and is always taken before mu, so the
	// snapshot sees changes in the same order memory does. Readers never wait on it.
	persistMu sync.Mutex

	initialized bool
	snapshots   ports.SnapshotRepository
	log         zerolog.Logger
}

func NewSessionStore(snapshots ports.SnapshotRepository, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		state:     domain.StateUnknown,
		snapshots: snapshots,
		log:       log,
	}
}

// Initialize hydrates the store from the persisted snapshot and revalidates
// it through v. It runs once; later calls return domain.ErrAlreadyInitialized.
// Verification failure is not an error: the snapshot is purged and the
// store ends anonymous.
func (s *SessionStore) Initialize(ctx context.Context, v Verifier) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return domain.ErrAlreadyInitialized
	}
	s.initialized = true
	s.mu.Unlock()

	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		corrupt := !errors.Is(err, domain.ErrSnapshotNotFound)
		if corrupt {
			s.log.Warn().Err(err).Msg("unreadable principal snapshot, discarding")
		}
		s.persistMu.Lock()
		defer s.persistMu.Unlock()
		if s.settle(domain.StateUnknown, nil) && corrupt {
			s.purge(ctx)
		}
		return nil
	}

	s.mu.Lock()
	if s.state == domain.StateUnknown {
		s.state = domain.StateVerifying
	}
	s.mu.Unlock()

	verified, err := v.Verify(ctx, snapshot)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if err != nil {
		s.log.Info().Err(err).Str("username", snapshot.Username).Msg("session no longer valid, clearing snapshot")
		if s.settle(domain.StateVerifying, nil) {
			s.purge(ctx)
		}
		return nil
	}

	if !s.settle(domain.StateVerifying, verified) {
		// a login or logout finished first
		return nil
	}
	if err := s.snapshots.Save(ctx, verified); err != nil {
		s.log.Warn().Err(err).Msg("failed to refresh principal snapshot")
	}
	s.log.Info().Str("username", verified.Username).Str("role", string(verified.Role)).Msg("session restored")
	return nil
}

// settle sets p if the store is still in state from. Caller holds persistMu.
func (s *SessionStore) settle(from domain.SessionState, p *domain.Principal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.set(p)
	return true
}

// purge deletes the snapshot. Caller holds persistMu.
func (s *SessionStore) purge(ctx context.Context) {
	if err := s.snapshots.Delete(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete principal snapshot")
	}
}

// set swaps principal and state together. Caller holds mu.
func (s *SessionStore) set(p *domain.Principal) {
	if p == nil {
		s.principal = nil
		s.state = domain.StateAnonymous
		return
	}
	clone := *p
	s.principal = &clone
	s.state = domain.StateAuthenticated
}

// SetPrincipal sets or clears the principal and writes through to the
// snapshot. Memory reflects the call even when persisting fails, and readers
// see the new principal before the write reaches storage.
func (s *SessionStore) SetPrincipal(ctx context.Context, p *domain.Principal) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.set(p)
	s.mu.Unlock()

	if p == nil {
		if err := s.snapshots.Delete(ctx); err != nil {
			return fmt.Errorf("clear principal snapshot: %w", err)
		}
		return nil
	}
	if err := s.snapshots.Save(ctx, p); err != nil {
		return fmt.Errorf("persist principal snapshot: %w", err)
	}
	return nil
}

// Session returns state and principal read under the same lock.
func (s *SessionStore) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := domain.Session{State: s.state}
	if s.principal != nil {
		clone := *s.principal
		sess.Principal = &clone
	}
	return sess
}

func (s *SessionStore) Principal() *domain.Principal { return s.Session().Principal }

func (s *SessionStore) IsAuthenticated() bool { return s.Session().IsAuthenticated() }

func (s *SessionStore) Loading() bool { return s.Session().Loading() }

func (s *SessionStore) HasRole(r domain.Role) bool { return s.Principal().HasRole(r) }

func (s *SessionStore) HasAnyRole(roles ...domain.Role) bool { return s.Principal().HasAnyRole(roles...) }

func (s *SessionStore) IsAdmin() bool { return s.Principal().IsAdmin() }

// Close releases the snapshot repository when it holds resources.
func (s *SessionStore) Close() error {
	if c, ok := s.snapshots.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
