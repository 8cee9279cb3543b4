package httpapi

import (
	"context"
	"net/http"

	"DirectoryServer/internal/domain"
)

type authCtxKey int

const authSessionKey authCtxKey = iota

// withSession resolves the bearer token before next runs. Requests without a
// token continue anonymously; a token that fails verification ends the
// request with 401.
func (a *api) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.sessionSvc.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if status := WriteDomainError(w, err); status == http.StatusInternalServerError {
				a.logger.Error("resolve session", "err", err)
			}
			return
		}

		ctx := r.Context()
		if sess != nil {
			ctx = context.WithValue(ctx, authSessionKey, sess)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// CurrentSession returns the request's session, or nil when anonymous.
func CurrentSession(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(authSessionKey).(*domain.Session)
	return sess
}
