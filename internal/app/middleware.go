package app

import (
	"github.com/gorilla/mux"
	"github.com/kalendo/kalendo/internal/config"
	"github.com/kalendo/kalendo/pkg/auth"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {
	// Resolve the session cookie into a capability on every request.
	r.Use(auth.Authenticate(deps.SessionRepo, deps.MembershipRepo))
}
