package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/theLastOfCats/contentgate/internal/auth"
	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/logging"
	"github.com/theLastOfCats/contentgate/internal/model"
)

const (
	HeaderAdminKey = "X-Admin-Key"
	HeaderAPIKey   = "X-Api-Key"
)

type contextKey string

const identityKey contextKey = "identity"

type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Middleware resolves the caller identity and provides the guards that read it.
type Middleware struct {
	Users          UserLookup
	Tokens         *auth.TokenIssuer
	AdminKey       string
	APIKey         string
	AllowedOrigins []string
}

// Identify resolves the caller once per request. It never rejects; the guards do.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.resolve(r)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Identify: DB error loading user")
			JSONError(w, "Database error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func (m *Middleware) resolve(r *http.Request) (auth.Identity, error) {
	var id auth.Identity

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token, ok := bearerToken(authHeader)
		if !ok {
			id.TokenError = "Invalid authorization header"
		} else if claims, err := m.Tokens.Verify(token); err != nil {
			id.TokenError = "Invalid token"
		} else {
			user, err := m.Users.GetUserByID(r.Context(), claims.UserID)
			switch {
			case errors.Is(err, db.ErrNotFound):
				// token outlived its user
				id.TokenError = "User not found"
			case err != nil:
				return id, err
			default:
				id.Kind = auth.AuthenticatedUser
				id.UserID = user.ID
				id.IsAdmin = user.IsAdmin
				id.IsVip = user.IsVip
				id.IsDisabled = user.IsDisabled
			}
		}
	}

	if secretMatches(r.Header.Get(HeaderAdminKey), m.AdminKey) {
		id.Kind = auth.AdminKeyHolder
	}

	if r.Method == http.MethodGet && secretMatches(r.Header.Get(HeaderAPIKey), m.APIKey) && m.originAllowed(r) {
		id.Frontend = true
		if id.Kind == auth.Anonymous {
			id.Kind = auth.APIKeyHolder
		}
	}
	return id, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// secretMatches compares in constant time. An unset secret never matches.
func secretMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// originAllowed checks Origin, falling back to the scheme and host of Referer.
func (m *Middleware) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		ref, err := url.Parse(r.Header.Get("Referer"))
		if err != nil || ref.Scheme == "" || ref.Host == "" {
			return false
		}
		origin = ref.Scheme + "://" + ref.Host
	}
	origin = strings.TrimSuffix(origin, "/")
	for _, allowed := range m.AllowedOrigins {
		if strings.EqualFold(origin, strings.TrimSuffix(allowed, "/")) {
			return true
		}
	}
	return false
}

// GetIdentity returns the identity resolved by Identify, or Anonymous.
func GetIdentity(r *http.Request) auth.Identity {
	id, _ := r.Context().Value(identityKey).(auth.Identity)
	return id
}

// GetUserID returns the id of the signed-in caller.
func GetUserID(r *http.Request) (int64, bool) {
	id := GetIdentity(r)
	return id.UserID, id.UserID != 0
}

// RequireUser is the bearer guard.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r)
		if id.UserID == 0 {
			msg := id.TokenError
			if msg == "" {
				msg = "Unauthorized"
			}
			JSONError(w, msg, http.StatusUnauthorized)
			return
		}
		if id.IsDisabled {
			JSONError(w, "Account is disabled", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin passes the admin key or a signed-in admin user.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r)
		switch {
		case id.Kind == auth.AdminKeyHolder:
		case id.IsAdminCaller() && !id.IsDisabled:
		case id.UserID != 0:
			JSONError(w, "Admin access required", http.StatusForbidden)
			return
		default:
			JSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPIKey passes the admin key, or a GET with the frontend key from an allowed origin.
// It does not look at the bearer token.
func RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r)
		if id.Kind == auth.AdminKeyHolder || id.Frontend {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get(HeaderAPIKey) == "" && r.Header.Get(HeaderAdminKey) == "" {
			JSONError(w, "API key required", http.StatusUnauthorized)
			return
		}
		JSONError(w, "Invalid API key", http.StatusForbidden)
	})
}
