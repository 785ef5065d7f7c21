package event

import (
	"context"
	"testing"
	"time"

	"github.com/kalendo/kalendo/internal/test_utils"
	"github.com/stretchr/testify/assert"
)

func setupEventRepository(t *testing.T) (context.Context, *EventRepositoryImpl) {
	t.Helper()
	db := test_utils.SetupTestDB(t)
	return context.Background(), NewEventRepo(db)
}

func TestEventRepositoryStoreAndList(t *testing.T) {
	ctx, repo := setupEventRepository(t)

	stored, err := repo.StoreEvent(ctx, Event{
		Title:       "Obóz zimowy",
		Start:       time.Date(2024, time.February, 10, 9, 0, 0, 0, time.Local),
		End:         time.Date(2024, time.February, 12, 16, 0, 0, 0, time.Local),
		Group:       GroupJoint,
		Groups:      []Group{GroupYoungLife, GroupWyldLife},
		Description: "Wyjazd do Zakopanego",
		Location:    "Zakopane",
		Url:         "https://example.com/oboz",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, stored.Id)

	events, err := repo.ListEvents(ctx)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "Obóz zimowy", events[0].Title)
	assert.Equal(t, GroupJoint, events[0].Group)
	assert.Equal(t, []Group{GroupYoungLife, GroupWyldLife}, events[0].Groups)
	assert.Equal(t, stored.Start.UnixMilli(), events[0].Start.UnixMilli())
	assert.Equal(t, "Zakopane", events[0].Location)
}

func TestEventRepositoryListOrdersByStartTime(t *testing.T) {
	ctx, repo := setupEventRepository(t)

	later := validEvent()
	later.Title = "Later"
	later.Start = later.Start.AddDate(0, 1, 0)
	later.End = later.End.AddDate(0, 1, 0)

	_, err := repo.StoreEvent(ctx, later)
	assert.NoError(t, err)
	_, err = repo.StoreEvent(ctx, validEvent())
	assert.NoError(t, err)

	events, err := repo.ListEvents(ctx)
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, "Klub", events[0].Title)
	assert.Equal(t, "Later", events[1].Title)
}

func TestEventRepositoryUpdate(t *testing.T) {
	ctx, repo := setupEventRepository(t)

	stored, err := repo.StoreEvent(ctx, validEvent())
	assert.NoError(t, err)

	stored.Title = "Klub YoungLife"
	stored.Location = "Szkoła nr 5"
	_, err = repo.UpdateEvent(ctx, stored)
	assert.NoError(t, err)

	events, err := repo.ListEvents(ctx)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, "Klub YoungLife", events[0].Title)
	assert.Equal(t, "Szkoła nr 5", events[0].Location)

	t.Run("unknown event", func(t *testing.T) {
		missing := validEvent()
		missing.Id = "missing"
		_, err := repo.UpdateEvent(ctx, missing)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestEventRepositoryDelete(t *testing.T) {
	ctx, repo := setupEventRepository(t)

	stored, err := repo.StoreEvent(ctx, validEvent())
	assert.NoError(t, err)

	assert.NoError(t, repo.DeleteEvent(ctx, stored.Id))

	events, err := repo.ListEvents(ctx)
	assert.NoError(t, err)
	assert.Empty(t, events)

	assert.ErrorIs(t, repo.DeleteEvent(ctx, stored.Id), ErrEventNotFound)
}

func TestEventRepositoryEventWithoutGroups(t *testing.T) {
	ctx, repo := setupEventRepository(t)

	_, err := repo.StoreEvent(ctx, validEvent())
	assert.NoError(t, err)

	events, err := repo.ListEvents(ctx)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Nil(t, events[0].Groups)
}
