// Package rbac holds the static role→permission policy and the chi middleware
// enforcing it. Creators author and review tests; participants take them.
// Guests authenticate as participants.
package rbac

import (
	"context"
	"net/http"
)

var rolePermissions = map[string][]string{
	"participant": {
		"test:join",
		"test:view",
		"answer:submit",
		"attempt:complete",
		"attempt:view-own",
	},
	"creator": {
		"test:create",
		"test:update",
		"test:view",
		"test:join",
		"answer:submit",
		"answer:grade",
		"attempt:complete",
		"attempt:view-own",
		"participants:list",
		"results:view",
	},
	"admin": {
		"*", // everything
	},
}

// Allowed reports whether the role grants the permission. "*" grants all.
func Allowed(role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

// Require rejects requests whose context role lacks the permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Allowed(RoleFromContext(r.Context()), perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRole).(string); ok {
		return s
	}
	return ""
}
