package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kalendo/kalendo/internal/test_utils"
	"github.com/stretchr/testify/assert"
)

func storedSession(t *testing.T, repo *SessionRepositoryImpl, expiresAt time.Time) Session {
	t.Helper()
	session := Session{
		Id:        uuid.New().String(),
		Email:     "leader@yl.pl",
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	assert.NoError(t, repo.StoreSession(context.Background(), session))
	return session
}

func TestSessionRepositoryStoreAndFind(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	session := storedSession(t, repo, time.Now().Add(time.Hour))

	found, err := repo.FindSession(ctx, session.Id)
	assert.NoError(t, err)
	if assert.NotNil(t, found) {
		assert.Equal(t, session.Id, found.Id)
		assert.Equal(t, "leader@yl.pl", found.Email)
		assert.Equal(t, session.ExpiresAt.UnixMilli(), found.ExpiresAt.UnixMilli())
	}

	t.Run("unknown session", func(t *testing.T) {
		found, err := repo.FindSession(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestSessionRepositoryDelete(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	session := storedSession(t, repo, time.Now().Add(time.Hour))

	assert.NoError(t, repo.DeleteSession(ctx, session.Id))

	found, err := repo.FindSession(ctx, session.Id)
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestSessionRepositoryDeleteExpired(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	now := time.Now()
	expired := storedSession(t, repo, now.Add(-time.Hour))
	valid := storedSession(t, repo, now.Add(time.Hour))

	deleted, err := repo.DeleteExpiredSessions(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	found, err := repo.FindSession(ctx, expired.Id)
	assert.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindSession(ctx, valid.Id)
	assert.NoError(t, err)
	assert.NotNil(t, found)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, Session{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
	assert.False(t, Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}

func TestMembershipRepositoryIsAdmin(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewMembershipRepo(db)
	ctx := context.Background()

	assert.NoError(t, repo.AddAdmin(ctx, "leader@yl.pl", "Leader"))
	// Provisioning the same identity twice is a no-op.
	assert.NoError(t, repo.AddAdmin(ctx, "leader@yl.pl", "Leader"))

	isAdmin, err := repo.IsAdmin(ctx, "leader@yl.pl")
	assert.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = repo.IsAdmin(ctx, "volunteer@yl.pl")
	assert.NoError(t, err)
	assert.False(t, isAdmin)
}
