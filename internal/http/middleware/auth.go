package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey scopes values this package stores on request contexts.
type contextKey string

// OperatorKey carries the authenticated operator on the request context.
const OperatorKey contextKey = "operator"

// Operator identifies the authenticated caller of the admin API.
type Operator struct {
	ID string
}

// OperatorFrom extracts the authenticated operator from ctx, if any.
func OperatorFrom(ctx context.Context) (*Operator, bool) {
	op, ok := ctx.Value(OperatorKey).(*Operator)
	return op, ok
}

// AuthMiddleware verifies bearer tokens on the admin API. Tokens are
// HMAC-signed JWTs whose subject names the operator.
type AuthMiddleware struct {
	getSecret func() ([]byte, error)
}

// NewAuthMiddleware creates an auth middleware. The secret is fetched per
// request so rotated configuration applies without a restart.
func NewAuthMiddleware(getSecret func() ([]byte, error)) *AuthMiddleware {
	return &AuthMiddleware{getSecret: getSecret}
}

// RequireAuth wraps handlers so only requests carrying a valid bearer
// token reach them. The operator named in the token's subject is added to
// the request context.
func (m *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			secret, err := m.getSecret()
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				// Verify signing method to prevent algorithm confusion
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil {
				http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
				return
			}
			if !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			if claims.Subject == "" {
				http.Error(w, "Subject not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), OperatorKey, &Operator{ID: claims.Subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
