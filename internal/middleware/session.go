package middleware

import (
	"log/slog"
	"net/http"

	"github.com/tellerapp/teller/internal/auth"
)

// RequireSession rejects requests without a valid session cookie with
// 401 {"auth": false} and stores the session principal in the context.
func RequireSession(sessions *auth.Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := sessions.Principal(r)
			if err != nil {
				logger.Debug("session missing",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
				)
				WriteUnauthenticated(w)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteUnauthenticated writes the 401 body clients use to detect a
// signed-out session.
func WriteUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]bool{"auth": false})
}
