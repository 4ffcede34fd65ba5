package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"guardx/internal/common"
	"guardx/internal/common/security"
	"guardx/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserCtxKey contextKey = "user"

const (
	msgInvalidCredentials = "Could not validate credentials"
	msgAdminRequired      = "INSUFFICIENT CLEARANCE - ADMIN ACCESS REQUIRED"
	msgInvalidClearance   = "INVALID CLEARANCE LEVEL"
)

// UserResolver maps a verified token subject to a user record.
type UserResolver interface {
	UserFromSubject(ctx context.Context, username string) (*model.User, error)
}

// Authenticator requires a token already verified by jwtauth.Verifier and
// puts the caller's user record in the request context.
func Authenticator(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				if err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound) {
					slog.Debug("Bearer token rejected", "error", err)
				}
				common.RespondWithError(w, http.StatusUnauthorized, msgInvalidCredentials)
				return
			}

			username, err := security.GetSubjectFromClaims(jwt.MapClaims(claims))
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, msgInvalidCredentials)
				return
			}

			user, err := users.UserFromSubject(r.Context(), username)
			if err != nil {
				status := common.HTTPStatusFromError(err)
				if status == http.StatusUnauthorized {
					common.RespondWithError(w, status, msgInvalidCredentials)
					return
				}
				slog.Error("Failed to resolve token subject", "username", username, "error", err)
				common.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || user.Role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, msgAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireClearance rejects callers whose clearance ranks below level.
func RequireClearance(level model.Clearance) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, msgInvalidCredentials)
				return
			}
			if _, known := user.Clearance.Rank(); !known {
				common.RespondWithError(w, http.StatusForbidden, msgInvalidClearance)
				return
			}
			if _, known := level.Rank(); !known {
				common.RespondWithError(w, http.StatusForbidden, msgInvalidClearance)
				return
			}
			if !user.Clearance.Satisfies(level) {
				common.RespondWithError(w, http.StatusForbidden, "INSUFFICIENT CLEARANCE - "+string(level)+" LEVEL REQUIRED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}
