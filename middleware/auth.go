package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/kevinaaaquil/poems/backend/apperr"
	"github.com/kevinaaaquil/poems/backend/logging"
	"github.com/kevinaaaquil/poems/backend/models"
	"github.com/kevinaaaquil/poems/backend/render"
	"github.com/kevinaaaquil/poems/backend/session"
	"github.com/kevinaaaquil/poems/backend/store"
)

const (
	MsgLoginRequired = "Login required"
	MsgInvalidToken  = "Invalid or expired token"
	MsgAdminsOnly    = "Admins only"
)

type contextKey struct{}

var claimsKey contextKey

// TokenVerifier is satisfied by *session.Manager.
type TokenVerifier interface {
	Verify(token string) (*session.Claims, error)
}

// RoleSource looks up the current role of a user. *store.Postgres and
// *store.MongoDB satisfy it.
type RoleSource interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// Auth requires a valid session token, from the cookie or a Bearer header,
// and puts its claims in the request context.
func Auth(tokens TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.Verify(session.TokenFromRequest(r))
			if err != nil {
				msg := MsgInvalidToken
				if errors.Is(err, session.ErrMissingToken) {
					msg = MsgLoginRequired
				}
				render.Error(w, r, nil, apperr.Auth(msg, err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin must run after Auth. With a nil roles it trusts the role in
// the token; otherwise it re-reads the role from the store on every request.
func RequireAdmin(roles RoleSource, log logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				render.Error(w, r, log, apperr.Auth(MsgLoginRequired, session.ErrMissingToken))
				return
			}
			role := claims.Role
			if roles != nil {
				u, err := roles.UserByID(r.Context(), claims.ID)
				if errors.Is(err, store.ErrNotFound) {
					render.Error(w, r, log, apperr.Auth(MsgInvalidToken, err))
					return
				}
				if err != nil {
					render.Error(w, r, log, apperr.Store(err))
					return
				}
				role = u.Role
			}
			if role != models.RoleAdmin {
				render.Error(w, r, log, apperr.Forbidden(MsgAdminsOnly))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin chains Auth and RequireAdmin.
func Admin(tokens TokenVerifier, roles RoleSource, log logging.Logger) func(next http.Handler) http.Handler {
	auth, gate := Auth(tokens), RequireAdmin(roles, log)
	return func(next http.Handler) http.Handler {
		return auth(gate(next))
	}
}

func WithClaims(ctx context.Context, c *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*session.Claims)
	return c, ok && c != nil
}

// MustClaims is for handlers mounted behind Auth. It panics otherwise, which
// chi's Recoverer turns into a 500.
func MustClaims(ctx context.Context) *session.Claims {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		panic("middleware: no session claims in context; route is missing Auth")
	}
	return c
}
