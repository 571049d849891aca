package domain

import "strings"

// Role is the single role value a platform account carries.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCurator Role = "curator"
	RoleArtist  Role = "artist"
	RoleVisitor Role = "visitor"
	RoleUser    Role = "user"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:   {},
	RoleCurator: {},
	RoleArtist:  {},
	RoleVisitor: {},
	RoleUser:    {},
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// Roles returns the closed role set in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCurator, RoleArtist, RoleVisitor, RoleUser}
}

// Principal is the authenticated user as the client knows it.
// The JSON layout matches the backend's user payload and the persisted snapshot.
type Principal struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Role           Role   `json:"role"`
	Bio            string `json:"bio,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
}

// HasRole reports whether p holds role r. A nil principal holds no role.
func (p *Principal) HasRole(r Role) bool {
	return p != nil && p.Role == r
}

// HasAnyRole reports whether p holds one of roles.
func (p *Principal) HasAnyRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }

func (p *Principal) IsAdminOrCurator() bool { return p.HasAnyRole(RoleAdmin, RoleCurator) }

// DisplayName prefers "First Last" and falls back to the username.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}

// Credentials is the login form payload.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
