package auth

import (
	"context"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/httpx"
	"github.com/calebdee/dndwiki/internal/models"
)

type ctxKey string

const userCtxKey = ctxKey("user")

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// UserFromContext extracts the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*models.User)
	return u, ok && u != nil
}

// Middleware resolves the Authorization header into a request identity.
//
// No header means an anonymous request and the chain continues. A header
// that is present but does not verify is rejected with 401 outright, on
// every route: a client holding a bad token must not be silently downgraded
// to anonymous.
func Middleware(db *gorm.DB, tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			bearer, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "invalid authorization header", nil)
				return
			}
			ident, err := tokens.Verify(strings.TrimSpace(bearer))
			if err != nil {
				httpx.JSONError(w, http.StatusUnauthorized, "could not validate credentials", nil)
				return
			}
			var user models.User
			if err := db.Where("username = ? AND id = ?", ident.Username, ident.UserID).First(&user).Error; err != nil {
				httpx.JSONError(w, http.StatusUnauthorized, "could not validate credentials", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &user)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
