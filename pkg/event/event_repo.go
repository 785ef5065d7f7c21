package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	ListEvents(ctx context.Context) ([]Event, error)
	StoreEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type EventRepositoryImpl struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepositoryImpl {
	return &EventRepositoryImpl{db: db}
}

func (r *EventRepositoryImpl) ListEvents(ctx context.Context) ([]Event, error) {
	query := `SELECT id, title, start_time, end_time, event_group, groups, description, location, url
	          FROM event ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		var event Event
		var startTime, endTime int64
		var group, groups string
		err := rows.Scan(&event.Id, &event.Title, &startTime, &endTime, &group, &groups,
			&event.Description, &event.Location, &event.Url)
		if err != nil {
			return nil, fmt.Errorf("could not read event: %w", err)
		}
		event.Start = time.UnixMilli(startTime)
		event.End = time.UnixMilli(endTime)
		event.Group = Group(group)
		event.Groups = splitGroups(groups)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read events: %w", err)
	}

	return events, nil
}

func (r *EventRepositoryImpl) StoreEvent(ctx context.Context, event Event) (Event, error) {
	query := `INSERT INTO event (id, title, start_time, end_time, event_group, groups, description, location, url)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	event.Id = uuid.New().String()
	_, err := r.db.ExecContext(ctx, query,
		event.Id, event.Title, event.Start.UnixMilli(), event.End.UnixMilli(),
		string(event.Group), joinGroups(event.Groups), event.Description, event.Location, event.Url)
	if err != nil {
		err := fmt.Errorf("could not store event: %w", err)
		log.Error(err)
		return Event{}, err
	}

	return event, nil
}

func (r *EventRepositoryImpl) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	query := `UPDATE event
	          SET title = $1, start_time = $2, end_time = $3, event_group = $4, groups = $5,
	              description = $6, location = $7, url = $8
	          WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		event.Title, event.Start.UnixMilli(), event.End.UnixMilli(),
		string(event.Group), joinGroups(event.Groups), event.Description, event.Location, event.Url,
		event.Id)
	if err != nil {
		err := fmt.Errorf("could not update event: %w", err)
		log.Error(err)
		return Event{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Event{}, fmt.Errorf("could not read update result: %w", err)
	}
	if affected == 0 {
		return Event{}, ErrEventNotFound
	}

	return event, nil
}

func (r *EventRepositoryImpl) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM event WHERE id = $1", id)
	if err != nil {
		err := fmt.Errorf("could not delete event: %w", err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read delete result: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func joinGroups(groups []Group) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, string(g))
	}
	return strings.Join(parts, ",")
}

func splitGroups(value string) []Group {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	groups := make([]Group, 0, len(parts))
	for _, p := range parts {
		groups = append(groups, Group(p))
	}
	return groups
}
