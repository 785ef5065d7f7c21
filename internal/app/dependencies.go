package app

import (
	"context"
	"database/sql"

	"github.com/kalendo/kalendo/internal/config"
	"github.com/kalendo/kalendo/internal/event_bus"
	"github.com/kalendo/kalendo/internal/utils"
	"github.com/kalendo/kalendo/pkg/auth"
	"github.com/kalendo/kalendo/pkg/contactwork"
	"github.com/kalendo/kalendo/pkg/event"
	"github.com/kalendo/kalendo/pkg/live"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus *event_bus.EventBus

	MembershipRepo auth.MembershipRepository
	SessionRepo    auth.SessionRepository
	GateRegistry   *auth.GateRegistry
	AuthHandler    *auth.Handler

	ContactWorkRepo    contactwork.Repository
	ContactWorkService contactwork.Service
	ContactWorkHandler *contactwork.Handler

	EventRepo    event.EventRepository
	EventService event.EventService
	EventHandler *event.EventHandler

	LiveHub     *live.Hub
	LiveHandler *live.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()

	deps.MembershipRepo = auth.NewMembershipRepo(db)
	deps.SessionRepo = auth.NewSessionRepo(db)
	deps.GateRegistry = auth.NewGateRegistry(deps.MembershipRepo)
	deps.AuthHandler = auth.NewHandler(db, deps.SessionRepo, deps.GateRegistry, cfg)

	deps.ContactWorkRepo = contactwork.NewRepository(db)
	deps.ContactWorkService = contactwork.NewService(deps.ContactWorkRepo, deps.Bus)
	deps.ContactWorkHandler = contactwork.NewHandler(deps.ContactWorkService)

	deps.EventRepo = event.NewEventRepo(db)
	deps.EventService = event.NewEventService(deps.EventRepo, deps.Bus)
	deps.EventHandler = event.NewEventHandler(deps.EventService)

	deps.LiveHub = live.NewHub()
	deps.LiveHandler = live.NewHandler(deps.LiveHub)
	live.SubscribeCalendar(deps.Bus, deps.LiveHub)

	deps.Clock = &utils.SystemClock{}

	return deps
}

// setupScheduler registers background jobs. Expired sessions are pruned once
// a day; their gates are dropped lazily on the next request.
func setupScheduler(deps *Dependencies) *cron.Cron {
	scheduler := cron.New()
	_, err := scheduler.AddFunc("@daily", func() {
		deleted, err := deps.SessionRepo.DeleteExpiredSessions(context.Background(), deps.Clock.Now())
		if err != nil {
			log.Errorf("failed to prune expired sessions: %v", err)
			return
		}
		if deleted > 0 {
			log.Infof("Pruned %d expired sessions", deleted)
		}
	})
	if err != nil {
		log.Errorf("failed to schedule session pruning: %v", err)
	}
	return scheduler
}
