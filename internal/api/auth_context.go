package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-lists/internal/domain"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// identityKey is the context key for the resolved session.
const identityKey ctxKey = "identity"

// identity is what the session gate resolved for a request.
type identity struct {
	user    *domain.User
	session *domain.Session
}

// withIdentity stores the signed-in user and their session in context.
func withIdentity(ctx context.Context, user *domain.User, sess *domain.Session) context.Context {
	return context.WithValue(ctx, identityKey, &identity{user: user, session: sess})
}

// CurrentUser returns the signed-in user, if any.
// It is the only authentication predicate handlers consult.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	id, ok := ctx.Value(identityKey).(*identity)
	if !ok || id.user == nil {
		return nil, false
	}
	return id.user, true
}

// currentSession returns the session behind the request, if any.
func currentSession(ctx context.Context) (*domain.Session, bool) {
	id, ok := ctx.Value(identityKey).(*identity)
	if !ok || id.session == nil {
		return nil, false
	}
	return id.session, true
}

// RequireUser returns the signed-in user or a 401 for API operations.
func RequireUser(ctx context.Context) (*domain.User, error) {
	user, ok := CurrentUser(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// requireUser redirects anonymous page requests to the login form.
// Form posts get 303 so the browser follows with a GET.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			status := http.StatusFound
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				status = http.StatusSeeOther
			}
			http.Redirect(w, r, "/login", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}
