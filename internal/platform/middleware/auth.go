package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"credchain/pkg/domain"
)

// TokenValidator validates a bearer token and returns the caller address it
// carries.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.Address, error)
}

type callerKey struct{}

// GetCaller retrieves the authenticated caller address from the context.
// Returns the zero Address if the request was not authenticated.
func GetCaller(ctx context.Context) domain.Address {
	if addr, ok := ctx.Value(callerKey{}).(domain.Address); ok {
		return addr
	}
	return ""
}

// WithCaller injects a caller address into the context. Exported for handler
// tests that bypass the HTTP middleware.
func WithCaller(ctx context.Context, addr domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, addr)
}

// RequireCaller authenticates mutating endpoints: it validates the bearer
// token and stashes the caller address in the request context. Whether that
// address is the administrator or a whitelisted issuer is the registry's
// decision, not the transport's.
func RequireCaller(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, "missing bearer token")
				return
			}

			caller, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "rejected bearer token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeAuthError(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func writeAuthError(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"unauthorized","error_description":"%s"}`, desc))
}
