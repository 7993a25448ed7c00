package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/carefinder/libs/httpx"
)

type ctxKey int

const ctxKeyActor ctxKey = iota

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(Actor)
	return a, ok
}

func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(secret string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(w, r, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}
			actor, err := ParseAndVerifyHS256(token, secret)
			if err != nil {
				httpx.WriteError(w, r, http.StatusUnauthorized, "unauthenticated", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

// OptionalAuth attaches the actor when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(secret string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if actor, err := ParseAndVerifyHS256(token, secret); err == nil {
					r = r.WithContext(ContextWithActor(r.Context(), actor))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
