package follow

import (
	"context"
	"errors"
	"log"

	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
)

// Engine errors. Handlers map these onto the HTTP error taxonomy; nothing
// here is retried automatically.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("request not addressed to caller")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrDuplicateRequest = errors.New("follow request already sent")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

// Pusher delivers a best-effort push notification to a user's devices
type Pusher interface {
	Push(ctx context.Context, uid, title, body string)
}

// Engine mediates the follow intent of an ordered user pair (A, B) through
// NONE -> PENDING -> {FOLLOWING | NONE}, keeping the followers/following
// sets of both user documents consistent with each resolution. The paired
// array writes of Accept and Unfollow run inside a single transaction so an
// interruption can never leave the graph asymmetric.
type Engine struct {
	users         repositories.UserRepository
	requests      repositories.FollowRequestRepository
	notifications repositories.NotificationRepository
	tx            repositories.TxRunner
	broker        *events.Broker
	pusher        Pusher // optional
}

// NewEngine creates a new follow Engine. pusher may be nil.
func NewEngine(
	users repositories.UserRepository,
	requests repositories.FollowRequestRepository,
	notifications repositories.NotificationRepository,
	tx repositories.TxRunner,
	broker *events.Broker,
	pusher Pusher,
) *Engine {
	return &Engine{
		users:         users,
		requests:      requests,
		notifications: notifications,
		tx:            tx,
		broker:        broker,
		pusher:        pusher,
	}
}

// SendRequest creates a pending follow request from the caller to toUID.
// Fails with ErrSelfFollow, ErrAlreadyFollowing or ErrDuplicateRequest
// without changing any state.
func (e *Engine) SendRequest(ctx context.Context, fromUID, toUID string) (*models.FollowRequest, error) {
	if fromUID == "" {
		return nil, ErrUnauthenticated
	}
	if fromUID == toUID {
		return nil, ErrSelfFollow
	}

	from, err := e.users.GetByUID(ctx, fromUID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if from.IsFollowing(toUID) {
		return nil, ErrAlreadyFollowing
	}
	to, err := e.users.GetByUID(ctx, toUID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	if _, err := e.requests.GetPending(ctx, fromUID, toUID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	// Snapshots are point-in-time by design; later profile edits do not
	// propagate into pending requests.
	req := &models.FollowRequest{
		FromUID:  fromUID,
		ToUID:    toUID,
		FromUser: from.ToCompact(),
		ToUser:   to.ToCompact(),
	}
	if err := e.requests.Create(ctx, req); err != nil {
		// The unique index catches the race the pre-check cannot.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	e.broker.Publish(toUID, events.TypeFollowRequestReceived, req)
	e.push(ctx, toUID, "New follow request", from.Name+" wants to follow you")
	return req, nil
}

// CancelRequest withdraws the caller's pending request to toUID. Cancelling
// a request that does not exist returns ErrNotFound and changes nothing.
func (e *Engine) CancelRequest(ctx context.Context, fromUID, toUID string) error {
	if fromUID == "" {
		return ErrUnauthenticated
	}
	if err := e.requests.DeletePending(ctx, fromUID, toUID); err != nil {
		return mapRepoErr(err)
	}
	e.broker.Publish(toUID, events.TypeFollowRequestCancelled, map[string]string{"from_uid": fromUID})
	return nil
}

// AcceptRequest resolves a pending request addressed to the caller: the
// requester joins the caller's followers, the caller joins the requester's
// following, and the request document is deleted. All three writes commit
// atomically.
func (e *Engine) AcceptRequest(ctx context.Context, callerUID, requestID string) error {
	req, err := e.authorizedRequest(ctx, callerUID, requestID)
	if err != nil {
		return err
	}

	err = e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.users.AddFollower(txCtx, req.ToUID, req.FromUID); err != nil {
			return err
		}
		if err := e.users.AddFollowing(txCtx, req.FromUID, req.ToUID); err != nil {
			return err
		}
		return e.requests.Delete(txCtx, requestID)
	})
	if err != nil {
		return mapRepoErr(err)
	}

	notif := &models.Notification{
		Type:         models.NotificationTypeFollow,
		ActorUID:     req.ToUID,
		RecipientUID: req.FromUID,
		Message:      req.ToUser.Name + " accepted your follow request",
	}
	if err := e.notifications.CreateNotification(ctx, notif); err != nil {
		log.Printf("follow: failed to create accept notification: %v", err)
	} else {
		e.broker.Publish(req.FromUID, events.TypeNotification, notif)
	}

	e.broker.Publish(req.FromUID, events.TypeFollowRequestAccepted, req)
	e.broker.Publish(req.ToUID, events.TypeFollowRequestAccepted, req)
	e.push(ctx, req.FromUID, "Request accepted", req.ToUser.Name+" accepted your follow request")
	return nil
}

// RejectRequest declines a pending request addressed to the caller by
// deleting it. No record of the decision is kept.
func (e *Engine) RejectRequest(ctx context.Context, callerUID, requestID string) error {
	req, err := e.authorizedRequest(ctx, callerUID, requestID)
	if err != nil {
		return err
	}
	if err := e.requests.Delete(ctx, requestID); err != nil {
		return mapRepoErr(err)
	}
	e.broker.Publish(req.FromUID, events.TypeFollowRequestRejected, req)
	return nil
}

// Unfollow removes the caller from targetUID's followers and targetUID from
// the caller's following, atomically.
func (e *Engine) Unfollow(ctx context.Context, callerUID, targetUID string) error {
	if callerUID == "" {
		return ErrUnauthenticated
	}

	caller, err := e.users.GetByUID(ctx, callerUID)
	if err != nil {
		return mapRepoErr(err)
	}
	if !caller.IsFollowing(targetUID) {
		return ErrNotFollowing
	}

	err = e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.users.RemoveFollower(txCtx, targetUID, callerUID); err != nil {
			return err
		}
		return e.users.RemoveFollowing(txCtx, callerUID, targetUID)
	})
	if err != nil {
		return mapRepoErr(err)
	}

	e.broker.Publish(targetUID, events.TypeFollowerLost, map[string]string{"follower_uid": callerUID})
	return nil
}

// authorizedRequest loads a request and checks the caller is its addressee
func (e *Engine) authorizedRequest(ctx context.Context, callerUID, requestID string) (*models.FollowRequest, error) {
	if callerUID == "" {
		return nil, ErrUnauthenticated
	}
	req, err := e.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if req.ToUID != callerUID {
		return nil, ErrUnauthorized
	}
	return req, nil
}

func (e *Engine) push(ctx context.Context, uid, title, body string) {
	if e.pusher != nil {
		e.pusher.Push(ctx, uid, title, body)
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
