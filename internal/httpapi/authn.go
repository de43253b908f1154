package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"crewbase.org/internal/directory"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/signup",
	"/v1/auth/signin",
	"/v1/auth/register",
	"/v1/auth/logout",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth verifies the session token, resolves the account behind it and
// attaches it to the request context. Requests without a valid session
// never reach a protected handler.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractToken(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.tokens.Verify(raw)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		actor, err := a.svc.Resolve(r.Context(), claims.AccountID())
		if err != nil {
			// a token for a deleted or malformed subject is no session at all
			if errors.Is(err, directory.ErrNotFound) || errors.Is(err, directory.ErrInvalidInput) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := directory.ContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken prefers the Authorization header and falls back to the
// session cookie set at sign-in.
func extractToken(r *http.Request) (string, error) {
	if header := strings.TrimSpace(r.Header.Get(authHeader)); header != "" {
		if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
			return "", errors.New("invalid authorization scheme")
		}
		tok := strings.TrimSpace(header[len(bearer):])
		if tok == "" {
			return "", errors.New("missing bearer token")
		}
		return tok, nil
	}
	if c, err := r.Cookie(sessionCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return c.Value, nil
	}
	return "", errors.New("missing bearer token")
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
