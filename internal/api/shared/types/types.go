package types

// Role is the caller role resolved by the auth middleware
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAmbassador Role = "ambassador"
)

// Valid checks if a role is valid
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAmbassador
}

// Principal is the authenticated caller of a request
type Principal struct {
	Role Role
	// AmbassadorID is the JWT subject; empty for admins
	AmbassadorID string
}

// IsAdmin reports whether the caller authenticated with an API key
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
