package domain

// SessionState is the phase of the tab-wide authentication session.
//
//	unknown -> verifying -> authenticated | anonymous
//	authenticated <-> anonymous   (login / logout)
type SessionState string

const (
	StateUnknown       SessionState = "unknown"
	StateVerifying     SessionState = "verifying"
	StateAuthenticated SessionState = "authenticated"
	StateAnonymous     SessionState = "anonymous"
)

// Loading reports whether no authorization decision can be made yet.
func (s SessionState) Loading() bool {
	return s == StateUnknown || s == StateVerifying
}

// Session is a consistent read of the session store.
type Session struct {
	State     SessionState
	Principal *Principal
}

// IsAuthenticated is the session flag: true exactly when a principal is held.
func (s Session) IsAuthenticated() bool {
	return s.Principal != nil
}

func (s Session) Loading() bool {
	return s.State.Loading()
}

// Role returns the principal's role, or "" when anonymous.
func (s Session) Role() Role {
	if s.Principal == nil {
		return ""
	}
	return s.Principal.Role
}
