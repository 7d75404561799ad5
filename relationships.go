package social

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// followAcceptedMessage overrides the default follow copy when a
// pending request is accepted.
const followAcceptedMessage = "Your follow request was accepted"

// RelationshipEngine drives the follow graph. Edges targeting a
// private account start pending and go live when the target accepts;
// public targets accept immediately.
type RelationshipEngine interface {
	Follow(ctx context.Context, followerID, targetID uuid.UUID) (*Follow, error)
	Unfollow(ctx context.Context, followerID, targetID uuid.UUID) error
	AcceptRequest(ctx context.Context, actorID, followID uuid.UUID) (*Follow, error)
	Followers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error)
	Following(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error)
	PendingRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error)
}

type relationshipEngine struct {
	repo         RepositoryManager
	notifier     NotificationEmitter
	activitySink ActivitySink
	logger       Logger
}

var _ RelationshipEngine = (*relationshipEngine)(nil)

type RelationshipEngineOption func(*relationshipEngine)

func WithRelationshipActivitySink(sink ActivitySink) RelationshipEngineOption {
	return func(e *relationshipEngine) {
		e.activitySink = normalizeActivitySink(sink)
	}
}

func WithRelationshipLogger(logger Logger) RelationshipEngineOption {
	return func(e *relationshipEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewRelationshipEngine(repo RepositoryManager, notifier NotificationEmitter, opts ...RelationshipEngineOption) RelationshipEngine {
	engine := &relationshipEngine{
		repo:         repo,
		notifier:     notifier,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine
}

// Follow creates an edge from follower to target. The edge and its
// notification commit together; a lost insert race surfaces as
// ErrAlreadyFollowing without a duplicate notification.
func (e *relationshipEngine) Follow(ctx context.Context, followerID, targetID uuid.UUID) (*Follow, error) {
	if followerID == targetID {
		return nil, ErrSelfFollow
	}

	target, err := e.repo.Users().GetByIdentifier(ctx, targetID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}

	status := FollowAccepted
	notificationType := NotificationFollow
	if target.Private {
		status = FollowPending
		notificationType = NotificationFollowRequest
	}

	edge := &Follow{
		FollowerID:  followerID,
		FollowingID: targetID,
		Status:      status,
	}

	err = e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, txErr := e.repo.Follows().CreateTx(ctx, tx, edge)
		if txErr != nil {
			return txErr
		}
		edge = created

		_, txErr = e.notifier.EmitTx(ctx, tx, targetID, followerID, notificationType, "", nil)
		return txErr
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyFollowing) {
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}

	e.emitEvent(ctx, ActivityEventFollowCreated, followerID, targetID, map[string]any{
		"status": edge.Status,
	})

	return edge, nil
}

// Unfollow removes the edge in either lifecycle state. Any request
// notification the edge produced stays in the target's inbox; emitted
// notifications are never retracted.
func (e *relationshipEngine) Unfollow(ctx context.Context, followerID, targetID uuid.UUID) error {
	removed, err := e.repo.Follows().DeleteByPair(ctx, followerID, targetID)
	if err != nil {
		return err
	}

	e.emitEvent(ctx, ActivityEventFollowRemoved, followerID, targetID, map[string]any{
		"status": removed.Status,
	})

	return nil
}

// AcceptRequest promotes a pending edge to accepted. Only the target
// of the request can accept it; re-accepting an accepted edge is a
// no-op rather than an error.
func (e *relationshipEngine) AcceptRequest(ctx context.Context, actorID, followID uuid.UUID) (*Follow, error) {
	edge, err := e.repo.Follows().GetByID(ctx, followID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if edge.FollowingID != actorID {
		return nil, ErrForbidden
	}

	if !edge.IsPending() {
		return edge, nil
	}

	var accepted *Follow
	err = e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, txErr := e.repo.Follows().AcceptTx(ctx, tx, edge.ID)
		if txErr != nil {
			return txErr
		}
		accepted = record

		_, txErr = e.notifier.EmitTx(ctx, tx, edge.FollowerID, actorID, NotificationFollow, followAcceptedMessage, nil)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	e.emitEvent(ctx, ActivityEventFollowAccepted, edge.FollowerID, actorID, nil)

	return accepted, nil
}

func (e *relationshipEngine) Followers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error) {
	return e.repo.Follows().ListFollowers(ctx, userID, limit, offset)
}

func (e *relationshipEngine) Following(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error) {
	return e.repo.Follows().ListFollowing(ctx, userID, limit, offset)
}

func (e *relationshipEngine) PendingRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Follow, error) {
	return e.repo.Follows().ListPendingFor(ctx, userID, limit, offset)
}

func (e *relationshipEngine) emitEvent(ctx context.Context, eventType ActivityEventType, actorID, subjectID uuid.UUID, metadata map[string]any) {
	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   actorID.String(),
			Type: "user",
		},
		UserID:     subjectID.String(),
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := e.activitySink.Record(ctx, event); err != nil {
		e.logger.Warn("activity sink rejected follow event", "error", err, "type", string(eventType))
	}
}
