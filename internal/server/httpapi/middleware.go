package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/server/auth"
)

const adminRole = common.RoleAdmin

type contextKey string

const claimsContextKey contextKey = "claims"

// claimsFromContext returns the bearer claims attached by the auth
// middleware, or nil for anonymous requests.
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func (s *Server) parseBearer(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return auth.ParseToken(token, s.secretKey)
}

// optionalAuth attaches claims when a valid bearer token is present and
// rejects requests that carry an invalid one. Anonymous requests pass.
func (s *Server) optionalAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.parseBearer(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if claims != nil {
			r = r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims))
		}
		next(w, r)
	})
}

// requireAuth rejects anonymous requests.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.parseBearer(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if claims == nil {
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
	})
}

// requireRole rejects authenticated callers lacking the role.
func (s *Server) requireRole(role string, next http.HandlerFunc) http.Handler {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if !claims.HasRole(role) {
			s.writeStatus(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next(w, r)
	})
}
