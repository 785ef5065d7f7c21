package event

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// StubEventRepository is an in-memory EventRepository for tests.
type StubEventRepository struct {
	Events []Event
}

func (r *StubEventRepository) ListEvents(_ context.Context) ([]Event, error) {
	events := make([]Event, len(r.Events))
	copy(events, r.Events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

func (r *StubEventRepository) StoreEvent(_ context.Context, event Event) (Event, error) {
	event.Id = uuid.New().String()
	r.Events = append(r.Events, event)
	return event, nil
}

func (r *StubEventRepository) UpdateEvent(_ context.Context, event Event) (Event, error) {
	for i := range r.Events {
		if r.Events[i].Id == event.Id {
			r.Events[i] = event
			return event, nil
		}
	}
	return Event{}, ErrEventNotFound
}

func (r *StubEventRepository) DeleteEvent(_ context.Context, id string) error {
	for i := range r.Events {
		if r.Events[i].Id == id {
			r.Events = append(r.Events[:i], r.Events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}
