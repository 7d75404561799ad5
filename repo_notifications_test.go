package social_test

import (
	"context"
	"testing"

	social "github.com/goliatone/go-social"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationsMarkRead(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := social.NewNotificationsRepository(db)

	alice := insertTestUser(t, db, "alice")
	bob := insertTestUser(t, db, "bob")

	n, err := repo.Create(ctx, &social.Notification{
		RecipientID: alice.ID,
		SenderID:    bob.ID,
		Type:        social.NotificationFollow,
		Message:     "Someone started following you",
	})
	require.NoError(t, err)

	t.Run("recipient can mark read", func(t *testing.T) {
		require.NoError(t, repo.MarkRead(ctx, alice.ID, n.ID))

		count, err := repo.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("other users cannot", func(t *testing.T) {
		err := repo.MarkRead(ctx, bob.ID, n.ID)
		assert.ErrorIs(t, err, social.ErrForbidden)
	})

	t.Run("unknown notification", func(t *testing.T) {
		err := repo.MarkRead(ctx, alice.ID, uuid.New())
		assert.ErrorIs(t, err, social.ErrNotFound)
	})
}

func TestNotificationsMarkAllRead(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := social.NewNotificationsRepository(db)

	alice := insertTestUser(t, db, "alice")
	bob := insertTestUser(t, db, "bob")

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &social.Notification{
			RecipientID: alice.ID,
			SenderID:    bob.ID,
			Type:        social.NotificationFollow,
			Message:     "Someone started following you",
		})
		require.NoError(t, err)
	}

	count, err := repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	updated, err := repo.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	count, err = repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// already read rows are not touched again
	updated, err = repo.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestNotificationsListByRecipient(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := social.NewNotificationsRepository(db)

	alice := insertTestUser(t, db, "alice")
	bob := insertTestUser(t, db, "bob")

	_, err := repo.Create(ctx, &social.Notification{
		RecipientID: alice.ID,
		SenderID:    bob.ID,
		Type:        social.NotificationFollowRequest,
		Message:     "Someone requested to follow you",
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &social.Notification{
		RecipientID: bob.ID,
		SenderID:    alice.ID,
		Type:        social.NotificationFollow,
		Message:     "Someone started following you",
	})
	require.NoError(t, err)

	rows, err := repo.ListByRecipient(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, social.NotificationFollowRequest, rows[0].Type)
	require.NotNil(t, rows[0].Sender)
	assert.Equal(t, "bob", rows[0].Sender.Username)
}

func TestNotificationsRelatedThreadRoundtrip(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := social.NewNotificationsRepository(db)

	alice := insertTestUser(t, db, "alice")
	bob := insertTestUser(t, db, "bob")

	threadID := uuid.New()
	_, err := repo.Create(ctx, &social.Notification{
		RecipientID:     bob.ID,
		SenderID:        alice.ID,
		Type:            social.NotificationThreadLike,
		Message:         "Someone liked your thread",
		RelatedThreadID: &threadID,
	})
	require.NoError(t, err)

	rows, err := repo.ListByRecipient(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].RelatedThreadID)
	assert.Equal(t, threadID, *rows[0].RelatedThreadID)
}
