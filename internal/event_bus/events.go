package event_bus

import "time"

const (
	EventCreated EventType = "event.created"
	EventUpdated EventType = "event.updated"
	EventDeleted EventType = "event.deleted"

	ContactWorkCreated           EventType = "contactwork.created"
	ContactWorkUpdated           EventType = "contactwork.updated"
	ContactWorkDeleted           EventType = "contactwork.deleted"
	ContactWorkOccurrenceDeleted EventType = "contactwork.occurrence_deleted"
)

// CalendarChange is the payload for all calendar mutation events. Occurrence
// is only set for single-occurrence deletions of a recurring entry.
type CalendarChange struct {
	Id         string
	Occurrence time.Time
}
