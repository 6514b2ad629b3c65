// Package middlewares holds the chi middlewares that resolve the session
// cookie into an acting principal and gate admin-only routes.
package middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Mojahedhu/Mojahed-Store/internal/app"
	"github.com/Mojahedhu/Mojahed-Store/internal/auth"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

type contextKey struct{}

var principalKey contextKey

// PrincipalFrom returns the principal the auth middleware attached.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// Authenticator resolves the session cookie into a Principal. The user is
// re-read from the store on every request, so a deleted account or a revoked
// admin flag takes effect immediately rather than at token expiry.
type Authenticator struct {
	tokens *auth.TokenManager
	users  app.UserStore
}

func NewAuthenticator(tokens *auth.TokenManager, users app.UserStore) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate requires a valid session and attaches the principal.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil || cookie.Value == "" {
			unauthorized(w, "not authenticated")
			return
		}

		p, err := a.tokens.Verify(cookie.Value)
		if err != nil {
			unauthorized(w, "not authenticated")
			return
		}

		user, err := a.users.FindByID(r.Context(), p.UserID)
		if err != nil {
			unauthorized(w, "not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey,
			domain.Principal{UserID: user.ID, IsAdmin: user.IsAdmin})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route behind the admin role. Must run after
// Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			unauthorized(w, "not authenticated")
			return
		}
		if !p.IsAdmin {
			writeStatus(w, http.StatusForbidden, "forbidden", "not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeStatus(w, http.StatusUnauthorized, "unauthorized", msg)
}

func writeStatus(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
