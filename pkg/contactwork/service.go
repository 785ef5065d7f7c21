package contactwork

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kalendo/kalendo/internal/event_bus"
	"github.com/kalendo/kalendo/pkg/auth"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidEntry = errors.New("invalid contact work entry")

type Service interface {
	ListEntries(ctx context.Context) ([]Entry, error)
	Schedule(ctx context.Context) ([]Occurrence, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteOccurrence(ctx context.Context, id string, date time.Time) error
}

type ServiceImpl struct {
	repo Repository
	bus  *event_bus.EventBus
}

func NewService(repo Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus}
}

func (s *ServiceImpl) ListEntries(ctx context.Context) ([]Entry, error) {
	return s.repo.ListEntries(ctx)
}

// Schedule expands every stored entry into concrete occurrences and merges
// them into one list ordered by start time. This is what the display layer
// renders; filtering by organization stays on the display side.
func (s *ServiceImpl) Schedule(ctx context.Context) ([]Occurrence, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	occurrences := make([]Occurrence, 0, len(entries))
	for _, entry := range entries {
		occurrences = append(occurrences, Expand(entry)...)
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})

	return occurrences, nil
}

func (s *ServiceImpl) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return Entry{}, fmt.Errorf("create contact work entry: %w", err)
	}
	if err := validateEntry(entry); err != nil {
		return Entry{}, err
	}

	stored, err := s.repo.StoreEntry(ctx, entry)
	if err != nil {
		return Entry{}, err
	}

	s.publish(ctx, event_bus.ContactWorkCreated, event_bus.CalendarChange{Id: stored.Id})
	return stored, nil
}

func (s *ServiceImpl) UpdateEntry(ctx context.Context, entry Entry) (Entry, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return Entry{}, fmt.Errorf("update contact work entry: %w", err)
	}
	if err := validateEntry(entry); err != nil {
		return Entry{}, err
	}

	updated, err := s.repo.UpdateEntry(ctx, entry)
	if err != nil {
		return Entry{}, err
	}

	s.publish(ctx, event_bus.ContactWorkUpdated, event_bus.CalendarChange{Id: updated.Id})
	return updated, nil
}

func (s *ServiceImpl) DeleteEntry(ctx context.Context, id string) error {
	if err := auth.RequireAdmin(ctx); err != nil {
		return fmt.Errorf("delete contact work entry: %w", err)
	}

	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, event_bus.ContactWorkDeleted, event_bus.CalendarChange{Id: id})
	return nil
}

// DeleteOccurrence removes a single occurrence of a recurring entry by
// recording its date as deleted; the series itself stays intact.
func (s *ServiceImpl) DeleteOccurrence(ctx context.Context, id string, date time.Time) error {
	if err := auth.RequireAdmin(ctx); err != nil {
		return fmt.Errorf("delete contact work occurrence: %w", err)
	}

	if err := s.repo.MarkOccurrenceDeleted(ctx, id, date); err != nil {
		return err
	}

	s.publish(ctx, event_bus.ContactWorkOccurrenceDeleted, event_bus.CalendarChange{Id: id, Occurrence: date})
	return nil
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, change event_bus.CalendarChange) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, change)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}

// validateEntry rejects malformed entries before they reach storage. The
// expander has defensive fallbacks for unrecognized pattern values, but a
// persisted entry should never need them.
func validateEntry(entry Entry) error {
	if entry.Person == "" {
		return fmt.Errorf("%w: person is required", ErrInvalidEntry)
	}
	if !entry.Organization.IsValid() {
		return fmt.Errorf("%w: unknown organization %q", ErrInvalidEntry, entry.Organization)
	}
	if !entry.EndTime.After(entry.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidEntry)
	}

	if !entry.IsRecurring {
		if entry.RecurringPattern != nil {
			return fmt.Errorf("%w: non-recurring entry must not carry a pattern", ErrInvalidEntry)
		}
		return nil
	}

	pattern := entry.RecurringPattern
	if pattern == nil {
		return fmt.Errorf("%w: recurring entry requires a pattern", ErrInvalidEntry)
	}
	if !pattern.Frequency.IsValid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidEntry, pattern.Frequency)
	}
	if !pattern.Duration.IsValid() {
		return fmt.Errorf("%w: unknown duration %q", ErrInvalidEntry, pattern.Duration)
	}
	if pattern.Duration == DurationCustom {
		if pattern.CustomDuration <= 0 {
			return fmt.Errorf("%w: custom duration must be positive", ErrInvalidEntry)
		}
		if pattern.CustomDurationUnit != DurationUnitWeeks && pattern.CustomDurationUnit != DurationUnitMonths {
			return fmt.Errorf("%w: unknown custom duration unit %q", ErrInvalidEntry, pattern.CustomDurationUnit)
		}
	}
	return nil
}
