package models

// AccessLevel is the closed set of identity states a request can be in.
type AccessLevel int

const (
	AccessAnonymous AccessLevel = iota
	AccessStandard
	AccessAdministrator
)

func (l AccessLevel) String() string {
	switch l {
	case AccessStandard:
		return "standard"
	case AccessAdministrator:
		return "administrator"
	default:
		return "anonymous"
	}
}

// AccessLevel maps a stored role to its access level. Unknown roles are
// treated as standard users.
func (r UserRole) AccessLevel() AccessLevel {
	switch r {
	case RoleAdministrator:
		return AccessAdministrator
	default:
		return AccessStandard
	}
}

// Identity is the principal attached to a request. The zero value is anonymous.
type Identity struct {
	User  UserInfo
	Level AccessLevel
}

// IdentityFor builds the authenticated identity of u.
func IdentityFor(u *User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{User: u.Info(), Level: u.Role.AccessLevel()}
}

// Authenticated reports whether the identity was established by a valid token.
func (i Identity) Authenticated() bool {
	return i.Level != AccessAnonymous
}

// IsAdmin reports whether the identity carries administrative privileges.
func (i Identity) IsAdmin() bool {
	return i.Level == AccessAdministrator
}
