package httpapi

import (
	"errors"
	"net/http"

	"bankist.app/internal/auth"
)

const authHeader = "Authorization"

var errSessionExpired = errors.New("session expired")

var publicPaths = map[string]struct{}{
	"/v1/login": {},
	"/v1/info":  {},
	"/metrics":  {},
	"/healthz":  {},
	"/readyz":   {},
	"/":         {},
}

// withAuth requires a valid bearer token on every non-public path and stores
// the session id and raw token in the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := auth.BearerToken(r.Header.Get(authHeader))
		if !ok {
			unauthorized(w, r, "missing bearer token")
			return
		}
		claims, err := a.issuer.ParseAndValidate(token)
		if err != nil {
			unauthorized(w, r, "invalid token")
			return
		}
		ctx := auth.ContextWithSession(r.Context(), claims.SessionID())
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFor resolves the registered session of an authenticated request.
func (a *API) sessionFor(r *http.Request) (*sessionEntry, error) {
	id, ok := auth.SessionIDFromContext(r.Context())
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	e, ok := a.sessions.get(id)
	if !ok {
		return nil, errSessionExpired
	}
	return e, nil
}

// optionalSession returns the session named by a valid bearer token on a
// public path, or nil.
func (a *API) optionalSession(r *http.Request) *sessionEntry {
	token, ok := auth.BearerToken(r.Header.Get(authHeader))
	if !ok {
		return nil
	}
	claims, err := a.issuer.ParseAndValidate(token)
	if err != nil {
		return nil
	}
	e, ok := a.sessions.get(claims.SessionID())
	if !ok {
		return nil
	}
	return e
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="bankist"`)
	writeError(w, r, http.StatusUnauthorized, msg)
}
