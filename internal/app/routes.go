package app

import (
	"github.com/gorilla/mux"
	"github.com/kalendo/kalendo/internal/config"
	"github.com/kalendo/kalendo/pkg/auth"
)

// RegisterRoutes registers all API endpoints. Reads are open to everyone;
// mutations are wrapped in AdminOnly on top of the service-level checks.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Auth
	r.HandleFunc("/api/auth/login", deps.AuthHandler.Login).Methods("GET")
	r.HandleFunc("/api/auth/callback", deps.AuthHandler.Callback).Methods("GET")
	r.HandleFunc("/api/auth/logout", deps.AuthHandler.Logout).Methods("DELETE")
	r.HandleFunc("/api/auth/session", deps.AuthHandler.SessionInfo).Methods("GET")

	// Contact work
	r.HandleFunc("/api/contactwork", deps.ContactWorkHandler.ListEntries).Methods("GET")
	r.HandleFunc("/api/contactwork/schedule", deps.ContactWorkHandler.Schedule).Methods("GET")
	r.HandleFunc("/api/contactwork", auth.AdminOnly(deps.ContactWorkHandler.CreateEntry)).Methods("POST")
	r.HandleFunc("/api/contactwork/{entryId}", auth.AdminOnly(deps.ContactWorkHandler.UpdateEntry)).Methods("PUT")
	r.HandleFunc("/api/contactwork/{entryId}", auth.AdminOnly(deps.ContactWorkHandler.DeleteEntry)).Methods("DELETE")
	r.HandleFunc("/api/contactwork/{entryId}/occurrence", auth.AdminOnly(deps.ContactWorkHandler.DeleteOccurrence)).
		Queries("date", "{date}").Methods("DELETE")

	// Organizational events
	r.HandleFunc("/api/event", deps.EventHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/event", auth.AdminOnly(deps.EventHandler.CreateEvent)).Methods("POST")
	r.HandleFunc("/api/event/{eventId}", auth.AdminOnly(deps.EventHandler.UpdateEvent)).Methods("PUT")
	r.HandleFunc("/api/event/{eventId}", auth.AdminOnly(deps.EventHandler.DeleteEvent)).Methods("DELETE")

	// Live change notifications
	r.HandleFunc("/api/live", deps.LiveHandler.Serve).Methods("GET")
}
