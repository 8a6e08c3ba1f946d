package models

// Session represents the client's view of "currently logged in as".
// Credential and Identity are either both set or both empty.
type Session struct {
	Credential string
	Identity   *Identity

	// Settling is true while the session is being established or re-established.
	// No authorization decision should be made while it is set.
	Settling bool
}

// IsAuthenticated returns true if both a credential and an identity are present.
func (s Session) IsAuthenticated() bool {
	return s.Credential != "" && s.Identity != nil
}

// Role returns the identity role, or the empty role when there is no identity.
func (s Session) Role() Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Equal reports whether two sessions hold the same credential, identity and settling flag.
func (s Session) Equal(o Session) bool {
	if s.Credential != o.Credential || s.Settling != o.Settling {
		return false
	}
	if s.Identity == nil || o.Identity == nil {
		return s.Identity == nil && o.Identity == nil
	}
	return *s.Identity == *o.Identity
}

// PersistedSession is the durable encoding of a Session, minus the settling flag.
type PersistedSession struct {
	Credential string
	Identity   *Identity
}

// Empty returns true when neither value is present.
func (p PersistedSession) Empty() bool {
	return p.Credential == "" && p.Identity == nil
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}
