package auth

// Kind tags who is calling.
type Kind int

const (
	Anonymous Kind = iota
	APIKeyHolder
	AdminKeyHolder
	AuthenticatedUser
)

func (k Kind) String() string {
	switch k {
	case APIKeyHolder:
		return "api_key"
	case AdminKeyHolder:
		return "admin_key"
	case AuthenticatedUser:
		return "user"
	default:
		return "anonymous"
	}
}

// Identity is resolved once per request before any guard runs.
//
// Kind records the strongest credential presented: an admin key beats a
// bearer token, which beats the frontend key. Frontend is tracked separately
// because a signed-in browser also carries the frontend key on reads.
type Identity struct {
	Kind       Kind
	UserID     int64
	IsAdmin    bool
	IsVip      bool
	IsDisabled bool
	// Frontend is true for a GET carrying the frontend key from an allowed origin.
	Frontend bool
	// TokenError explains why a presented bearer token was not accepted.
	TokenError string
}

func (id Identity) IsAdminCaller() bool {
	return id.Kind == AdminKeyHolder || (id.Kind == AuthenticatedUser && id.IsAdmin)
}
