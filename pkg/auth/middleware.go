package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kalendo/kalendo/internal/rest"
	log "github.com/sirupsen/logrus"
)

// Authenticate resolves the session cookie into a capability and stores it in
// the request context. The admin lookup happens here, per request, so every
// downstream check works against the membership store and not against
// anything cached client-side. Requests without a valid session simply carry
// the zero capability.
func Authenticate(sessions SessionRepository, membership MembershipRepository) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			sessionId := ReadSessionId(req)
			if sessionId == "" {
				next.ServeHTTP(w, req)
				return
			}

			session, err := sessions.FindSession(ctx, sessionId)
			if err != nil || session == nil || session.Expired(time.Now()) {
				next.ServeHTTP(w, req)
				return
			}

			isAdmin, err := membership.IsAdmin(ctx, session.Email)
			if err != nil {
				// Fail closed: the request stays authenticated but loses
				// admin capability.
				log.Errorf("admin check failed for %s: %v", session.Email, err)
				isAdmin = false
			}

			ctx = WithCapability(ctx, Capability{
				IsAuthenticated: true,
				IsAdmin:         isAdmin,
				Identity:        session.Email,
			})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// AdminOnly wraps mutating routes and refuses them before any handler runs
// unless the request capability is admin.
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		capability := CurrentCapability(r.Context())
		if !capability.IsAuthenticated {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error: "Authentication required",
			})
			return
		}
		if err := RequireAdmin(r.Context()); err != nil {
			log.Debugf("mutation refused for %s: not admin", capability.Identity)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error: "Administrator capability required",
			})
			return
		}
		next(w, r)
	}
}
