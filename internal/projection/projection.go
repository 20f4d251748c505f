package projection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anonto42/research-hub/backend/internal/cache"
	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
)

const mutualCountTTL = 30 * time.Second

// IncomingRequests is the projected view of a user's pending incoming
// follow requests
type IncomingRequests struct {
	Count int                    `json:"count"`
	Items []models.FollowRequest `json:"items"`
}

// Projector derives read-side views of relationship and notification state.
// Each watch projection is independently subscribed; there is no ordering
// guarantee between separate streams.
type Projector struct {
	users         repositories.UserRepository
	requests      repositories.FollowRequestRepository
	notifications repositories.NotificationRepository
	broker        *events.Broker
	cache         *cache.Cache
}

// NewProjector creates a new Projector
func NewProjector(
	users repositories.UserRepository,
	requests repositories.FollowRequestRepository,
	notifications repositories.NotificationRepository,
	broker *events.Broker,
	c *cache.Cache,
) *Projector {
	return &Projector{
		users:         users,
		requests:      requests,
		notifications: notifications,
		broker:        broker,
		cache:         c,
	}
}

// WatchIncomingRequests streams the incoming-request view for selfUID. It
// emits the current snapshot immediately, then re-queries and re-emits
// whenever a follow-request event for the user arrives. The returned stop
// function releases the subscription; calling it more than once is safe,
// and the output channel is closed once the watch has fully stopped.
func (p *Projector) WatchIncomingRequests(ctx context.Context, selfUID string) (<-chan IncomingRequests, func()) {
	sub := p.broker.Subscribe(selfUID)
	out := make(chan IncomingRequests, 1)

	go func() {
		defer close(out)

		if view, err := p.snapshotIncoming(ctx, selfUID); err == nil {
			out <- view
		} else {
			log.Printf("projection: initial incoming-requests query failed for %s: %v", selfUID, err)
		}

		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case event, ok := <-sub.C:
				if !ok {
					return
				}
				if !isFollowRequestEvent(event.Type) {
					continue
				}
				view, err := p.snapshotIncoming(ctx, selfUID)
				if err != nil {
					log.Printf("projection: incoming-requests re-query failed for %s: %v", selfUID, err)
					continue
				}
				select {
				case out <- view:
				case <-ctx.Done():
					sub.Close()
					return
				}
			}
		}
	}()

	return out, sub.Close
}

func (p *Projector) snapshotIncoming(ctx context.Context, selfUID string) (IncomingRequests, error) {
	items, err := p.requests.ListIncoming(ctx, selfUID)
	if err != nil {
		return IncomingRequests{}, err
	}
	return IncomingRequests{Count: len(items), Items: items}, nil
}

func isFollowRequestEvent(eventType string) bool {
	switch eventType {
	case events.TypeFollowRequestReceived,
		events.TypeFollowRequestCancelled,
		events.TypeFollowRequestAccepted,
		events.TypeFollowRequestRejected:
		return true
	}
	return false
}

// ButtonState resolves the follow/requested/following button for a viewed
// profile: FOLLOWING if the target is in self's following set, PENDING if a
// live request exists, NONE otherwise. One-shot; re-checked on mount or
// explicit refresh, not live.
func (p *Projector) ButtonState(ctx context.Context, selfUID, targetUID string) (models.RelationState, error) {
	self, err := p.users.GetByUID(ctx, selfUID)
	if err != nil {
		return "", err
	}
	if self.IsFollowing(targetUID) {
		return models.RelationFollowing, nil
	}

	if _, err := p.requests.GetPending(ctx, selfUID, targetUID); err == nil {
		return models.RelationPending, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", err
	}
	return models.RelationNone, nil
}

// MutualFollowersCount computes |self.following ∩ target.followers| by
// fetching both documents and intersecting. Recomputed from scratch per
// call, behind a short-lived cache entry.
func (p *Projector) MutualFollowersCount(ctx context.Context, selfUID, targetUID string) (int, error) {
	key := fmt.Sprintf("mutual:%s:%s", selfUID, targetUID)
	var cached int
	if ok, _ := p.cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}

	self, err := p.users.GetByUID(ctx, selfUID)
	if err != nil {
		return 0, err
	}
	target, err := p.users.GetByUID(ctx, targetUID)
	if err != nil {
		return 0, err
	}

	count := intersectionSize(self.Following, target.Followers)
	if err := p.cache.SetJSON(ctx, key, count, mutualCountTTL); err != nil {
		log.Printf("projection: failed to cache mutual count: %v", err)
	}
	return count, nil
}

// UnreadNotificationCount returns the unread badge value for a user
func (p *Projector) UnreadNotificationCount(ctx context.Context, uid string) (int64, error) {
	return p.notifications.GetUnreadCount(ctx, uid)
}

func intersectionSize(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	count := 0
	for _, v := range b {
		if set[v] {
			count++
			set[v] = false // sets may contain duplicates from legacy writes; count each UID once
		}
	}
	return count
}
