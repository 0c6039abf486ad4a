package authz

import "github.com/google/uuid"

// Subject is the authenticated identity of a request, passed explicitly
// into services instead of being read from request-global state.
type Subject struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// Anonymous reports whether no identity is attached
func (s Subject) Anonymous() bool {
	return s.UserID == uuid.Nil
}

// Can reports whether the subject holds perm
func (s Subject) Can(perm Permission) bool {
	return HasPermission(s.Role, perm)
}

// AtLeast reports whether the subject ranks at least as high as role
func (s Subject) AtLeast(role Role) bool {
	return HasRole(s.Role, role)
}

// CanEditArtist checks edit access to an artist profile owned by ownerID
func (s Subject) CanEditArtist(ownerID *uuid.UUID) bool {
	own := !s.Anonymous() && ownerID != nil && *ownerID == s.UserID
	return CanEditArtist(s.Role, own)
}
