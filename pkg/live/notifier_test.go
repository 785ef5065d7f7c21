package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/kalendo/kalendo/internal/event_bus"
	"github.com/stretchr/testify/assert"
)

func connectedClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	go hub.Run()
	client := NewClient(hub)
	hub.Register(client)
	return client
}

func receiveNotice(t *testing.T, client *Client) ChangeNotice {
	t.Helper()
	select {
	case payload := <-client.Send():
		var notice ChangeNotice
		assert.NoError(t, json.Unmarshal(payload, &notice))
		return notice
	case <-time.After(time.Second):
		t.Fatal("no notice received")
		return ChangeNotice{}
	}
}

func TestNotifierBroadcastsCalendarChanges(t *testing.T) {
	bus := event_bus.NewEventBus()
	hub := NewHub()
	client := connectedClient(t, hub)

	SubscribeCalendar(bus, hub)

	err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.EventCreated,
		event_bus.CalendarChange{Id: "event-1"}))
	assert.NoError(t, err)

	notice := receiveNotice(t, client)
	assert.Equal(t, string(event_bus.EventCreated), notice.Type)
	assert.Equal(t, "event-1", notice.Id)
	assert.Empty(t, notice.Occurrence)
}

func TestNotifierIncludesOccurrenceDate(t *testing.T) {
	bus := event_bus.NewEventBus()
	hub := NewHub()
	client := connectedClient(t, hub)

	SubscribeCalendar(bus, hub)

	occurrence := time.Date(2024, time.January, 8, 17, 0, 0, 0, time.UTC)
	err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.ContactWorkOccurrenceDeleted,
		event_bus.CalendarChange{Id: "entry-1", Occurrence: occurrence}))
	assert.NoError(t, err)

	notice := receiveNotice(t, client)
	assert.Equal(t, string(event_bus.ContactWorkOccurrenceDeleted), notice.Type)
	assert.Equal(t, "entry-1", notice.Id)
	assert.Equal(t, occurrence.Format(time.RFC3339), notice.Occurrence)
}

func TestNotifierUnsubscribeStopsBroadcasts(t *testing.T) {
	bus := event_bus.NewEventBus()
	hub := NewHub()
	client := connectedClient(t, hub)

	unsubscribe := SubscribeCalendar(bus, hub)
	unsubscribe()

	err := bus.Publish(event_bus.NewEvent(context.Background(), event_bus.EventDeleted,
		event_bus.CalendarChange{Id: "event-1"}))
	assert.NoError(t, err)

	select {
	case <-client.Send():
		t.Fatal("notice received after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}
