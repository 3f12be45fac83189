package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

type contextKey string

const PrincipalKey contextKey = "principal"

const (
	accessTokenCookie = "access_token"
	roleFacilitator   = "facilitator"
)

// Principal is the authenticated caller taken from the access token.
type Principal struct {
	UserID string
	Name   string
	Staff  bool
	Roles  []string
}

func (p Principal) IsFacilitator() bool {
	return slices.Contains(p.Roles, roleFacilitator)
}

// Claims are the access token claims issued by the chat front end.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Staff bool     `json:"staff,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware accepts an HS256 token from the Authorization header or the
// access_token cookie and stores the Principal in the request context.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := tokenFromRequest(r)
			if err != nil {
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}

			var claims Claims
			_, err = jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil {
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}
			if strings.TrimSpace(claims.Subject) == "" {
				http.Error(w, "Unauthorized: token has no subject", http.StatusUnauthorized)
				return
			}

			principal := Principal{
				UserID: claims.Subject,
				Name:   claims.Name,
				Staff:  claims.Staff,
				Roles:  claims.Roles,
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireFacilitator must run after AuthMiddleware.
func RequireFacilitator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r)
		if !ok {
			http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
			return
		}
		if !principal.IsFacilitator() {
			http.Error(w, "Forbidden: facilitator role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkAudience only lets staff see internal polls and suggestions.
func checkAudience(r *http.Request, internal bool) error {
	if !internal {
		return nil
	}
	if p, ok := principalFrom(r); ok && p.Staff {
		return nil
	}
	return domain.ErrAudienceForbidden
}

func principalFrom(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(PrincipalKey).(Principal)
	return p, ok
}

func tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return "", errors.New("malformed authorization header")
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", errors.New("missing token")
}
