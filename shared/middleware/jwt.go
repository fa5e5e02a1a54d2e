package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey struct{}

// SubjectKey is the context key under which the authenticated subject is stored.
var SubjectKey = contextKey{}

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrInvalidAuthorization = errors.New("invalid authorization header format")
)

// VerifyFunc turns a bearer token into the subject it was issued for.
type VerifyFunc func(ctx context.Context, token string) (string, error)

// ErrorFunc writes the response for a request that failed authentication.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// NewJWTAuthenticator returns middleware that requires a valid bearer token and
// stores its subject in the request context.
func NewJWTAuthenticator(verify VerifyFunc, onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extractBearerToken(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			subject, err := verify(r.Context(), tokenString)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the subject stored by the authenticator.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok && subject != ""
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidAuthorization
	}

	return strings.TrimSpace(parts[1]), nil
}
