package httppresentation

import (
	"context"
	"net/http"

	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/Zhima-Mochi/foodtruck/internal/observability/logctx"
)

const sessionCookie = "foodtruck_session"

type sessionKey struct{}

func contextWithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return s
}

// withSession resolves the visitor's page-view session from the signed cookie, starting a new
// one (and issuing a fresh cookie) when the cookie is missing, invalid or points at an expired session.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logctx.FromOr(ctx, h.log)

		sid := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			id, err := h.tokens.Parse(c.Value)
			if err != nil {
				logger.Debug("session_token_rejected", observability.F("error", err))
			}
			sid = id
		}

		session, created, err := h.combo.OpenSession(ctx, sid)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if created {
			token, err := h.tokens.Issue(session.ID)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(h.tokens.TTL().Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx = logctx.Enrich(ctx, h.log, observability.F("session_id", session.ID))
		ctx = contextWithSession(ctx, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
