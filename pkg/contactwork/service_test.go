package contactwork

import (
	"context"
	"testing"
	"time"

	"github.com/kalendo/kalendo/internal/event_bus"
	"github.com/kalendo/kalendo/pkg/auth"
	"github.com/stretchr/testify/assert"
)

func adminContext() context.Context {
	return auth.WithCapability(context.Background(), auth.Capability{
		IsAuthenticated: true,
		IsAdmin:         true,
		Identity:        "leader@yl.pl",
	})
}

func validEntry() Entry {
	return Entry{
		Person:       "Kasia",
		StartTime:    time.Date(2024, time.January, 1, 17, 0, 0, 0, time.Local),
		EndTime:      time.Date(2024, time.January, 1, 19, 0, 0, 0, time.Local),
		Organization: OrganizationYL,
		IsRecurring:  true,
		RecurringPattern: &RecurringPattern{
			Frequency: FrequencyWeekly,
			Duration:  DurationThreeMonths,
		},
	}
}

func TestServiceRefusesMutationsWithoutCapability(t *testing.T) {
	repo := &StubRepository{}
	service := NewService(repo, event_bus.NewEventBus())

	t.Run("create", func(t *testing.T) {
		_, err := service.CreateEntry(context.Background(), validEntry())
		assert.ErrorIs(t, err, auth.ErrNotAuthorized)
		assert.Empty(t, repo.Entries)
	})

	t.Run("update", func(t *testing.T) {
		_, err := service.UpdateEntry(context.Background(), validEntry())
		assert.ErrorIs(t, err, auth.ErrNotAuthorized)
	})

	t.Run("delete", func(t *testing.T) {
		err := service.DeleteEntry(context.Background(), "entry-1")
		assert.ErrorIs(t, err, auth.ErrNotAuthorized)
	})

	t.Run("delete occurrence", func(t *testing.T) {
		err := service.DeleteOccurrence(context.Background(), "entry-1", time.Now())
		assert.ErrorIs(t, err, auth.ErrNotAuthorized)
	})

	t.Run("authenticated non-admin is refused too", func(t *testing.T) {
		ctx := auth.WithCapability(context.Background(), auth.Capability{
			IsAuthenticated: true,
			Identity:        "volunteer@yl.pl",
		})
		_, err := service.CreateEntry(ctx, validEntry())
		assert.ErrorIs(t, err, auth.ErrNotAuthorized)
	})
}

func TestServiceValidatesEntries(t *testing.T) {
	service := NewService(&StubRepository{}, event_bus.NewEventBus())
	ctx := adminContext()

	t.Run("unknown organization", func(t *testing.T) {
		entry := validEntry()
		entry.Organization = Organization("scouts")
		_, err := service.CreateEntry(ctx, entry)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	})

	t.Run("end before start", func(t *testing.T) {
		entry := validEntry()
		entry.EndTime = entry.StartTime.Add(-time.Hour)
		_, err := service.CreateEntry(ctx, entry)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	})

	t.Run("recurring entry without pattern", func(t *testing.T) {
		entry := validEntry()
		entry.RecurringPattern = nil
		_, err := service.CreateEntry(ctx, entry)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	})

	t.Run("unknown frequency cannot be persisted", func(t *testing.T) {
		entry := validEntry()
		entry.RecurringPattern.Frequency = Frequency("daily")
		_, err := service.CreateEntry(ctx, entry)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	})

	t.Run("unknown duration cannot be persisted", func(t *testing.T) {
		entry := validEntry()
		entry.RecurringPattern.Duration = Duration("forever")
		_, err := service.CreateEntry(ctx, entry)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	})

	t.Run("custom duration requires a positive value and unit", func(t *testing.T) {
		entry := validEntry()
		entry.RecurringPattern.Duration = DurationCustom
		entry.RecurringPattern.CustomDuration = 0
		_, err := service.CreateEntry(ctx, entry)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	})
}

func TestServiceSchedule(t *testing.T) {
	repo := &StubRepository{}
	service := NewService(repo, event_bus.NewEventBus())
	ctx := adminContext()

	single := Entry{
		Person:       "Tomek",
		StartTime:    time.Date(2024, time.January, 3, 12, 0, 0, 0, time.Local),
		EndTime:      time.Date(2024, time.January, 3, 13, 0, 0, 0, time.Local),
		Organization: OrganizationUni,
	}
	_, err := service.CreateEntry(ctx, single)
	assert.NoError(t, err)

	recurring, err := service.CreateEntry(ctx, validEntry())
	assert.NoError(t, err)

	occurrences, err := service.Schedule(ctx)
	assert.NoError(t, err)

	// 14 weekly occurrences plus the single entry, ordered by start.
	assert.Len(t, occurrences, 15)
	for i := 1; i < len(occurrences); i++ {
		assert.False(t, occurrences[i].Start.Before(occurrences[i-1].Start))
	}
	assert.Equal(t, recurring.Id, occurrences[0].Entry.Id)
	assert.Equal(t, "Tomek", occurrences[1].Entry.Person)
}

func TestServiceDeleteOccurrence(t *testing.T) {
	repo := &StubRepository{}
	bus := event_bus.NewEventBus()
	service := NewService(repo, bus)
	ctx := adminContext()

	var published []event_bus.EventType
	bus.Subscribe(event_bus.ContactWorkOccurrenceDeleted, func(e event_bus.Event) error {
		published = append(published, e.Type)
		return nil
	})

	entry, err := service.CreateEntry(ctx, validEntry())
	assert.NoError(t, err)

	err = service.DeleteOccurrence(ctx, entry.Id, time.Date(2024, time.January, 8, 14, 30, 0, 0, time.Local))
	assert.NoError(t, err)

	occurrences, err := service.Schedule(ctx)
	assert.NoError(t, err)
	assert.Len(t, occurrences, 13)
	for _, o := range occurrences {
		assert.NotEqual(t, "2024-01-08", o.Start.Format("2006-01-02"))
	}
	assert.Equal(t, []event_bus.EventType{event_bus.ContactWorkOccurrenceDeleted}, published)

	t.Run("unknown entry", func(t *testing.T) {
		err := service.DeleteOccurrence(ctx, "missing", time.Now())
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}
