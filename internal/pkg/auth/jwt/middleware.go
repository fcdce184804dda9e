package jwt

import (
	"context"
	"net/http"
	"strings"

	"folio/internal/pkg/logx"
)

type contextKey string

// ContextAuthPayloadKey is where the verified Payload lives in a request context.
const ContextAuthPayloadKey contextKey = "auth_payload"

// Verifier turns a raw bearer token into a verified payload.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Payload, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>", or "" if absent.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityExtractorMiddleware verifies the bearer token when one is present and stores the
// payload in the context. It never rejects a request: missing or bad tokens mean anonymous.
func IdentityExtractorMiddleware(verifier Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logx.Debug("bearer token rejected, continuing as anonymous", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
		})
	}
}

// WithPayload returns a copy of ctx carrying payload.
func WithPayload(ctx context.Context, payload *Payload) context.Context {
	return context.WithValue(ctx, ContextAuthPayloadKey, payload)
}

// PayloadFromContext returns the verified payload, or nil for anonymous callers.
func PayloadFromContext(ctx context.Context) *Payload {
	payload, _ := ctx.Value(ContextAuthPayloadKey).(*Payload)
	return payload
}
