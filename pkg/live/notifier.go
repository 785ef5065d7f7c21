package live

import (
	"encoding/json"
	"time"

	"github.com/kalendo/kalendo/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// ChangeNotice is the message pushed to connected clients whenever the
// calendar changes. Clients refetch whatever views they display.
type ChangeNotice struct {
	Type       string `json:"type"`
	Id         string `json:"id"`
	Occurrence string `json:"occurrence,omitempty"`
}

var calendarEvents = []event_bus.EventType{
	event_bus.EventCreated,
	event_bus.EventUpdated,
	event_bus.EventDeleted,
	event_bus.ContactWorkCreated,
	event_bus.ContactWorkUpdated,
	event_bus.ContactWorkDeleted,
	event_bus.ContactWorkOccurrenceDeleted,
}

// SubscribeCalendar wires the hub to every calendar change published on the
// bus. Returns a function that removes all subscriptions.
func SubscribeCalendar(bus *event_bus.EventBus, hub *Hub) func() {
	unsubscribes := make([]func(), 0, len(calendarEvents))
	for _, eventType := range calendarEvents {
		unsubscribe := bus.Subscribe(eventType, func(e event_bus.Event) error {
			notice := ChangeNotice{Type: string(e.Type)}
			if change, ok := e.Data.(event_bus.CalendarChange); ok {
				notice.Id = change.Id
				if !change.Occurrence.IsZero() {
					notice.Occurrence = change.Occurrence.Format(time.RFC3339)
				}
			}

			payload, err := json.Marshal(notice)
			if err != nil {
				log.Errorf("could not encode calendar notice: %v", err)
				return err
			}
			hub.Broadcast(payload)
			return nil
		})
		unsubscribes = append(unsubscribes, unsubscribe)
	}

	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}
