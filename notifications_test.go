package social_test

import (
	"context"
	"testing"

	social "github.com/goliatone/go-social"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationEmitterEmit(t *testing.T) {
	ctx := context.Background()
	recipientID := uuid.New()
	senderID := uuid.New()

	tests := []struct {
		name            string
		notification    social.NotificationType
		expectedMessage string
	}{
		{"follow", social.NotificationFollow, "Someone started following you"},
		{"follow request", social.NotificationFollowRequest, "Someone requested to follow you"},
		{"thread like", social.NotificationThreadLike, "Someone liked your thread"},
		{"thread reply", social.NotificationThreadReply, "Someone replied to your thread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			emitter := social.NewNotificationEmitter(repo, nil)

			record, err := emitter.Emit(ctx, recipientID, senderID, tt.notification, "", nil)
			require.NoError(t, err)

			assert.Equal(t, tt.notification, record.Type)
			assert.Equal(t, tt.expectedMessage, record.Message)
			assert.Equal(t, recipientID, record.RecipientID)
			assert.Equal(t, senderID, record.SenderID)
			assert.False(t, record.Read)
			assert.Nil(t, record.RelatedThreadID)
		})
	}

	t.Run("explicit message overrides the default copy", func(t *testing.T) {
		repo := newStubRepo()
		emitter := social.NewNotificationEmitter(repo, nil)

		record, err := emitter.Emit(ctx, recipientID, senderID, social.NotificationFollow, "Your follow request was accepted", nil)
		require.NoError(t, err)

		assert.Equal(t, social.NotificationFollow, record.Type)
		assert.Equal(t, "Your follow request was accepted", record.Message)
	})

	t.Run("related reference is carried on the record", func(t *testing.T) {
		repo := newStubRepo()
		emitter := social.NewNotificationEmitter(repo, nil)

		threadID := uuid.New()
		record, err := emitter.Emit(ctx, recipientID, senderID, social.NotificationThreadLike, "", &threadID)
		require.NoError(t, err)

		require.NotNil(t, record.RelatedThreadID)
		assert.Equal(t, threadID, *record.RelatedThreadID)
	})

	t.Run("unknown type", func(t *testing.T) {
		repo := newStubRepo()
		emitter := social.NewNotificationEmitter(repo, nil)

		_, err := emitter.Emit(ctx, recipientID, senderID, "thread_repost", "", nil)
		assert.Error(t, err)
		assert.Empty(t, repo.notifications.created)
	})
}

func TestFollowIsPending(t *testing.T) {
	assert.True(t, (&social.Follow{Status: social.FollowPending}).IsPending())
	assert.False(t, (&social.Follow{Status: social.FollowAccepted}).IsPending())

	var nilEdge *social.Follow
	assert.False(t, nilEdge.IsPending())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", social.NormalizeEmail("  User@Example.COM "))
	assert.Equal(t, "", social.NormalizeEmail("   "))
}
