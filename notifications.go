package social

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Default copy keyed by type, used when the caller passes no message.
// Senders stay anonymous in the message body; clients resolve the
// sender from the payload.
var notificationMessages = map[NotificationType]string{
	NotificationFollow:        "Someone started following you",
	NotificationFollowRequest: "Someone requested to follow you",
	NotificationThreadLike:    "Someone liked your thread",
	NotificationThreadReply:   "Someone replied to your thread",
}

// NotificationEmitter records events targeted at a user and lets the
// recipient page through and acknowledge them. Emitted rows are
// append-only; nothing but the read-marking operations mutates them.
type NotificationEmitter interface {
	Emit(ctx context.Context, recipientID, senderID uuid.UUID, nt NotificationType, message string, relatedID *uuid.UUID) (*Notification, error)
	EmitTx(ctx context.Context, tx bun.IDB, recipientID, senderID uuid.UUID, nt NotificationType, message string, relatedID *uuid.UUID) (*Notification, error)
	List(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type notificationEmitter struct {
	repo   RepositoryManager
	logger Logger
}

var _ NotificationEmitter = (*notificationEmitter)(nil)

func NewNotificationEmitter(repo RepositoryManager, logger Logger) NotificationEmitter {
	if logger == nil {
		logger = defLogger{}
	}
	return &notificationEmitter{
		repo:   repo,
		logger: logger,
	}
}

func (e *notificationEmitter) Emit(ctx context.Context, recipientID, senderID uuid.UUID, nt NotificationType, message string, relatedID *uuid.UUID) (*Notification, error) {
	return e.EmitTx(ctx, nil, recipientID, senderID, nt, message, relatedID)
}

func (e *notificationEmitter) EmitTx(ctx context.Context, tx bun.IDB, recipientID, senderID uuid.UUID, nt NotificationType, message string, relatedID *uuid.UUID) (*Notification, error) {
	fallback, ok := notificationMessages[nt]
	if !ok {
		return nil, errors.New("unknown notification type", errors.CategoryBadInput).
			WithMetadata(map[string]any{
				"type": string(nt),
			})
	}

	if message == "" {
		message = fallback
	}

	record := &Notification{
		RecipientID:     recipientID,
		SenderID:        senderID,
		Type:            nt,
		Message:         message,
		RelatedThreadID: relatedID,
	}

	var err error
	if tx != nil {
		record, err = e.repo.Notifications().CreateTx(ctx, tx, record)
	} else {
		record, err = e.repo.Notifications().Create(ctx, record)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to emit notification").
			WithMetadata(map[string]any{
				"type":         string(nt),
				"recipient_id": recipientID.String(),
			})
	}

	e.logger.Debug("notification emitted",
		"type", string(nt),
		"recipient_id", recipientID.String(),
		"sender_id", senderID.String(),
	)

	return record, nil
}

func (e *notificationEmitter) List(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return e.repo.Notifications().ListByRecipient(ctx, recipientID, limit, offset)
}

func (e *notificationEmitter) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	return e.repo.Notifications().MarkRead(ctx, recipientID, id)
}

func (e *notificationEmitter) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return e.repo.Notifications().MarkAllRead(ctx, recipientID)
}

func (e *notificationEmitter) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return e.repo.Notifications().CountUnread(ctx, recipientID)
}
