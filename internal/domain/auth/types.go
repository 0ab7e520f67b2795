package auth

// Package auth contains domain-level types for console credentials and access decisions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role is the backend's userType claim. Keep string form; the backend owns the vocabulary.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleManagementTeam Role = "Management Team"
	RoleMT             Role = "MT"
	RoleMTMember       Role = "MT-member"
)

// elevatedRoles are the userType values allowed into role-gated views.
var elevatedRoles = map[Role]struct{}{
	RoleAdmin:          {},
	RoleManagementTeam: {},
	RoleMT:             {},
	RoleMTMember:       {},
}

// IsElevated reports whether the role may view role-gated pages.
// Matching is exact: "admin" or " MT" are rejected.
func (r Role) IsElevated() bool {
	_, ok := elevatedRoles[r]
	return ok
}

// Claims is the typed view of a decoded credential payload.
// Fields keeps the full decoded object for views that need other claims.
type Claims struct {
	Exp      int64          `json:"exp,omitempty"`
	HasExp   bool           `json:"-"`
	UserType Role           `json:"userType,omitempty"`
	Fields   map[string]any `json:"-"`
}

// ExpiredAt reports whether the claims carry an exp strictly before now.
// Claims without exp never expire.
func (c Claims) ExpiredAt(now time.Time) bool {
	return c.HasExp && c.Exp < now.Unix()
}

// ExpiresAt returns the expiry instant, or the zero time when exp is missing.
func (c Claims) ExpiresAt() time.Time {
	if !c.HasExp {
		return time.Time{}
	}
	return time.Unix(c.Exp, 0).UTC()
}

// Subject returns the "sub" claim when it is a string.
func (c Claims) Subject() string {
	if s, ok := c.Fields["sub"].(string); ok {
		return s
	}
	return ""
}

// Email returns the "email" claim when it is a string.
func (c Claims) Email() string {
	if s, ok := c.Fields["email"].(string); ok {
		return s
	}
	return ""
}

// SessionState is derived from the stored credential at read time. It is never cached.
type SessionState string

const (
	StateNoCredential        SessionState = "no_credential"
	StateMalformedCredential SessionState = "malformed_credential"
	StateExpiredCredential   SessionState = "expired_credential"
	StateValidCredential     SessionState = "valid_credential"
)

// Session pairs a derived state with the claims it was derived from (zero unless decodable).
type Session struct {
	State  SessionState `json:"state"`
	Claims Claims       `json:"claims"`
}

// Role returns the userType for a valid session, or "" otherwise.
func (s Session) Role() Role {
	if s.State != StateValidCredential {
		return ""
	}
	return s.Claims.UserType
}
