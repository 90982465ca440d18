package middleware

import (
	"context"
	"net/http"

	"prepsheet/internal/common"
	"prepsheet/internal/common/security"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type contextKey string

const userCtxKey contextKey = "currentUser"

// Auth resolves the verified token to an account once per request, so
// handlers never parse claims themselves.
type Auth struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewAuth(userRepo repository.UserRepository, log *zap.Logger) *Auth {
	return &Auth{userRepo: userRepo, log: log}
}

// SessionLoader runs after jwtauth.Verifier. A missing, invalid or orphaned
// token leaves the request anonymous rather than rejecting it; the Require*
// middlewares decide per route whether anonymous is acceptable.
func (a *Auth) SessionLoader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.userRepo.FindByID(r.Context(), userID)
		if err != nil {
			// Deleted account with a still-valid token. Treat as anonymous.
			a.log.Debug("token resolved to no account", zap.String("user_id", userID))
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin distinguishes no credentials (401) from valid non-admin
// credentials (403).
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if user.Role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext returns the signed-in account, or nil for anonymous.
func GetUserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userCtxKey).(*model.User)
	return user
}
