package middleware

import (
	"context"
	"net/http"
	"strings"

	"lumigente/internal/domain/auth"
	"lumigente/internal/platform/logger"
)

type ctxKey string

const (
	ctxKeyUser   ctxKey = "user"
	ctxKeyTarget ctxKey = "target"
)

const DefaultSessionCookie = "lumigente.sid"

// SessionChecker reports whether a session id is still live.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID string) (bool, error)
}

type AuthOption func(*authConfig)

type authConfig struct {
	cookie string
}

func WithSessionCookie(name string) AuthOption {
	return func(c *authConfig) {
		if name = strings.TrimSpace(name); name != "" {
			c.cookie = name
		}
	}
}

// Auth reads the session token from the session cookie or a bearer header
// and puts its principal in the context. Requests without a valid token pass
// through anonymous; gates decide what to reject. A nil checker trusts the
// token signature alone.
func Auth(secret string, sessions SessionChecker, opts ...AuthOption) func(http.Handler) http.Handler {
	cfg := authConfig{cookie: DefaultSessionCookie}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := sessionToken(r, cfg.cookie)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if sessions != nil {
				active, err := sessions.SessionActive(r.Context(), claims.User.SessionID)
				if err != nil {
					logger.From(r.Context()).Warn().Err(err).Msg("session lookup failed")
				}
				if err != nil || !active {
					next.ServeHTTP(w, r)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.User)))
		})
	}
}

func sessionToken(r *http.Request, cookie string) string {
	if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func WithUser(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyUser, p)
}

func GetUser(ctx context.Context) (auth.Principal, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.Principal)
	return user, ok
}
