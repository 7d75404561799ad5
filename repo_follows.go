package social

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Follows persists follow edges. The unique index on
// (follower_id, following_id) is the source of truth for duplicates:
// concurrent creates race at the INSERT and the loser sees zero rows.
type Follows interface {
	Create(ctx context.Context, edge *Follow) (*Follow, error)
	CreateTx(ctx context.Context, tx bun.IDB, edge *Follow) (*Follow, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Follow, error)
	GetByPair(ctx context.Context, followerID, followingID uuid.UUID) (*Follow, error)
	Accept(ctx context.Context, id uuid.UUID) (*Follow, error)
	AcceptTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Follow, error)
	DeleteByPair(ctx context.Context, followerID, followingID uuid.UUID) (*Follow, error)
	DeleteByPairTx(ctx context.Context, tx bun.IDB, followerID, followingID uuid.UUID) (*Follow, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error)
	ListPendingFor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int, error)
}

type follows struct {
	db *bun.DB
}

var _ Follows = (*follows)(nil)

func NewFollowsRepository(db *bun.DB) Follows {
	return &follows{db: db}
}

func (r *follows) Create(ctx context.Context, edge *Follow) (*Follow, error) {
	return r.CreateTx(ctx, r.db, edge)
}

func (r *follows) CreateTx(ctx context.Context, tx bun.IDB, edge *Follow) (*Follow, error) {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	now := time.Now()
	edge.CreatedAt = &now
	edge.UpdatedAt = &now

	res, err := tx.NewInsert().
		Model(edge).
		On("CONFLICT (follower_id, following_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		return nil, ErrAlreadyFollowing
	}

	return edge, nil
}

func (r *follows) GetByID(ctx context.Context, id uuid.UUID) (*Follow, error) {
	edge := &Follow{}
	err := r.db.NewSelect().
		Model(edge).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return edge, nil
}

func (r *follows) GetByPair(ctx context.Context, followerID, followingID uuid.UUID) (*Follow, error) {
	edge := &Follow{}
	err := r.db.NewSelect().
		Model(edge).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFollowing
		}
		return nil, err
	}
	return edge, nil
}

func (r *follows) Accept(ctx context.Context, id uuid.UUID) (*Follow, error) {
	return r.AcceptTx(ctx, r.db, id)
}

// AcceptTx flips a pending edge to accepted. The status guard in the
// WHERE clause makes concurrent accepts idempotent: only one update
// observes the pending row, the rest match zero rows and re-read.
func (r *follows) AcceptTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Follow, error) {
	res, err := tx.NewUpdate().
		Model((*Follow)(nil)).
		Set("status = ?", FollowAccepted).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND status = ?", id, FollowPending).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	edge := &Follow{}
	err = tx.NewSelect().
		Model(edge).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	if rows == 0 && edge.Status != FollowAccepted {
		return nil, ErrNotFollowing
	}

	return edge, nil
}

func (r *follows) DeleteByPair(ctx context.Context, followerID, followingID uuid.UUID) (*Follow, error) {
	return r.DeleteByPairTx(ctx, r.db, followerID, followingID)
}

func (r *follows) DeleteByPairTx(ctx context.Context, tx bun.IDB, followerID, followingID uuid.UUID) (*Follow, error) {
	edge := &Follow{}
	err := tx.NewSelect().
		Model(edge).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFollowing
		}
		return nil, err
	}

	res, err := tx.NewDelete().
		Model((*Follow)(nil)).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		return nil, ErrNotFollowing
	}

	return edge, nil
}

func (r *follows) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error) {
	var edges []*Follow
	err := r.db.NewSelect().
		Model(&edges).
		Relation("Follower").
		Where("following_id = ? AND status = ?", userID, FollowAccepted).
		Order("flw.created_at DESC").
		Limit(normalizeLimit(limit)).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *follows) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error) {
	var edges []*Follow
	err := r.db.NewSelect().
		Model(&edges).
		Relation("Following").
		Where("follower_id = ? AND status = ?", userID, FollowAccepted).
		Order("flw.created_at DESC").
		Limit(normalizeLimit(limit)).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *follows) ListPendingFor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error) {
	var edges []*Follow
	err := r.db.NewSelect().
		Model(&edges).
		Relation("Follower").
		Where("following_id = ? AND status = ?", userID, FollowPending).
		Order("flw.created_at DESC").
		Limit(normalizeLimit(limit)).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *follows) CountFollowers(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*Follow)(nil)).
		Where("following_id = ? AND status = ?", userID, FollowAccepted).
		Count(ctx)
}

func (r *follows) CountFollowing(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*Follow)(nil)).
		Where("follower_id = ? AND status = ?", userID, FollowAccepted).
		Count(ctx)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
