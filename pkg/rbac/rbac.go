// Package rbac provides role-based access control middleware.
package rbac

import (
	"context"
	"net/http"

	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/logger"
	"github.com/scholarstream/scholarstream/pkg/response"
)

// RoleLookup returns the stored role for an email.
type RoleLookup[R comparable] func(ctx context.Context, email string) (R, error)

// RequireRole allows the request only when the caller's stored role is one
// of roles. The role is read on every request so changes apply at once.
// Requires middleware.Authenticate to have run.
func RequireRole[R comparable](lookup RoleLookup[R], roles ...R) func(http.Handler) http.Handler {
	allowed := make(map[R]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				response.Unauthorized(w)
				return
			}

			role, err := lookup(r.Context(), p.Email)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("role lookup failed", "email", p.Email, "error", err)
				response.Forbidden(w)
				return
			}
			if !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
