package social

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Notifications persists per-user notification rows.
type Notifications interface {
	Create(ctx context.Context, n *Notification) (*Notification, error)
	CreateTx(ctx context.Context, tx bun.IDB, n *Notification) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type notifications struct {
	db *bun.DB
}

var _ Notifications = (*notifications)(nil)

func NewNotificationsRepository(db *bun.DB) Notifications {
	return &notifications{db: db}
}

func (r *notifications) Create(ctx context.Context, n *Notification) (*Notification, error) {
	return r.CreateTx(ctx, r.db, n)
}

func (r *notifications) CreateTx(ctx context.Context, tx bun.IDB, n *Notification) (*Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt == nil {
		now := time.Now()
		n.CreatedAt = &now
	}

	_, err := tx.NewInsert().
		Model(n).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notifications) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*Notification, error) {
	var rows []*Notification
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Sender").
		Where("recipient_id = ?", recipientID).
		Order("ntf.created_at DESC").
		Limit(normalizeLimit(limit)).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead distinguishes a missing notification from someone else's:
// absent rows fail ErrNotFound, rows owned by another recipient fail
// ErrForbidden. Setting read on an already-read row is a no-op.
func (r *notifications) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	n := &Notification{}
	err := r.db.NewSelect().
		Model(n).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	if n.RecipientID != recipientID {
		return ErrForbidden
	}

	_, err = r.db.NewUpdate().
		Model((*Notification)(nil)).
		Set("is_read = TRUE").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *notifications) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*Notification)(nil)).
		Set("is_read = TRUE").
		Where("recipient_id = ? AND is_read = FALSE", recipientID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

func (r *notifications) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*Notification)(nil)).
		Where("recipient_id = ? AND is_read = FALSE", recipientID).
		Count(ctx)
}
