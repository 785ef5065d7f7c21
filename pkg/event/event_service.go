package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/kalendo/kalendo/internal/event_bus"
	"github.com/kalendo/kalendo/pkg/auth"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidEvent = errors.New("invalid event")

type EventService interface {
	ListEvents(ctx context.Context) ([]Event, error)
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type EventServiceImpl struct {
	repo EventRepository
	bus  *event_bus.EventBus
}

func NewEventService(repo EventRepository, bus *event_bus.EventBus) *EventServiceImpl {
	return &EventServiceImpl{repo: repo, bus: bus}
}

func (s *EventServiceImpl) ListEvents(ctx context.Context) ([]Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *EventServiceImpl) CreateEvent(ctx context.Context, event Event) (Event, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	if err := validateEvent(event); err != nil {
		return Event{}, err
	}

	stored, err := s.repo.StoreEvent(ctx, event)
	if err != nil {
		return Event{}, err
	}

	s.publish(ctx, event_bus.EventCreated, event_bus.CalendarChange{Id: stored.Id})
	return stored, nil
}

func (s *EventServiceImpl) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return Event{}, fmt.Errorf("update event: %w", err)
	}
	if err := validateEvent(event); err != nil {
		return Event{}, err
	}

	updated, err := s.repo.UpdateEvent(ctx, event)
	if err != nil {
		return Event{}, err
	}

	s.publish(ctx, event_bus.EventUpdated, event_bus.CalendarChange{Id: updated.Id})
	return updated, nil
}

func (s *EventServiceImpl) DeleteEvent(ctx context.Context, id string) error {
	if err := auth.RequireAdmin(ctx); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, event_bus.EventDeleted, event_bus.CalendarChange{Id: id})
	return nil
}

func (s *EventServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, change event_bus.CalendarChange) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, change)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}

func validateEvent(event Event) error {
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if !event.Group.IsValid() {
		return fmt.Errorf("%w: unknown group %q", ErrInvalidEvent, event.Group)
	}
	if !event.End.After(event.Start) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidEvent)
	}

	if event.Group != GroupJoint {
		if len(event.Groups) > 0 {
			return fmt.Errorf("%w: only joint events carry participating groups", ErrInvalidEvent)
		}
		return nil
	}
	if len(event.Groups) < 2 {
		return fmt.Errorf("%w: joint event requires at least two participating groups", ErrInvalidEvent)
	}
	for _, g := range event.Groups {
		if !g.IsValid() || g == GroupJoint {
			return fmt.Errorf("%w: unknown participating group %q", ErrInvalidEvent, g)
		}
	}
	return nil
}
