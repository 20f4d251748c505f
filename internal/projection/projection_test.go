package projection

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/research-hub/backend/internal/cache"
	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type stubUserRepo struct {
	users map[string]*models.User
}

func (r *stubUserRepo) EnsureUser(ctx context.Context, user *models.User) error { return nil }

func (r *stubUserRepo) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	user, ok := r.users[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByUIDs(ctx context.Context, uids []string) ([]models.User, error) {
	return nil, nil
}

func (r *stubUserRepo) UpdateProfile(ctx context.Context, uid string, fields bson.M) error {
	return nil
}

func (r *stubUserRepo) AddFollower(ctx context.Context, uid, followerUID string) error    { return nil }
func (r *stubUserRepo) RemoveFollower(ctx context.Context, uid, followerUID string) error { return nil }
func (r *stubUserRepo) AddFollowing(ctx context.Context, uid, followingUID string) error  { return nil }
func (r *stubUserRepo) RemoveFollowing(ctx context.Context, uid, followingUID string) error {
	return nil
}

func (r *stubUserRepo) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	return nil, nil
}

type stubRequestRepo struct {
	incoming map[string][]models.FollowRequest
	pending  map[string]bool // "from->to"
}

func (r *stubRequestRepo) Create(ctx context.Context, req *models.FollowRequest) error { return nil }

func (r *stubRequestRepo) GetByID(ctx context.Context, id string) (*models.FollowRequest, error) {
	return nil, repositories.ErrNotFound
}

func (r *stubRequestRepo) GetPending(ctx context.Context, fromUID, toUID string) (*models.FollowRequest, error) {
	if r.pending[fromUID+"->"+toUID] {
		return &models.FollowRequest{FromUID: fromUID, ToUID: toUID}, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *stubRequestRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *stubRequestRepo) DeletePending(ctx context.Context, fromUID, toUID string) error {
	return nil
}

func (r *stubRequestRepo) ListIncoming(ctx context.Context, toUID string) ([]models.FollowRequest, error) {
	return r.incoming[toUID], nil
}

func (r *stubRequestRepo) ListOutgoing(ctx context.Context, fromUID string) ([]models.FollowRequest, error) {
	return nil, nil
}

func (r *stubRequestRepo) CountIncoming(ctx context.Context, toUID string) (int64, error) {
	return int64(len(r.incoming[toUID])), nil
}

type stubNotificationRepo struct {
	unread int64
}

func (r *stubNotificationRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	return nil
}

func (r *stubNotificationRepo) GetByRecipient(ctx context.Context, recipientUID string, page, limit int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (r *stubNotificationRepo) GetUnreadCount(ctx context.Context, recipientUID string) (int64, error) {
	return r.unread, nil
}

func (r *stubNotificationRepo) MarkAsRead(ctx context.Context, id, recipientUID string) error {
	return nil
}

func (r *stubNotificationRepo) MarkAllAsRead(ctx context.Context, recipientUID string) error {
	return nil
}

func (r *stubNotificationRepo) DeleteNotification(ctx context.Context, id, recipientUID string) error {
	return nil
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestButtonState(t *testing.T) {
	ctx := context.Background()
	users := &stubUserRepo{users: map[string]*models.User{
		"alice": {UID: "alice", Following: []string{"carol"}},
		"bob":   {UID: "bob"},
		"carol": {UID: "carol", Followers: []string{"alice"}},
	}}
	requests := &stubRequestRepo{pending: map[string]bool{"alice->bob": true}}
	p := NewProjector(users, requests, &stubNotificationRepo{}, events.NewBroker(), testCache(t))

	t.Run("following wins", func(t *testing.T) {
		state, err := p.ButtonState(ctx, "alice", "carol")
		require.NoError(t, err)
		assert.Equal(t, models.RelationFollowing, state)
	})

	t.Run("pending request", func(t *testing.T) {
		state, err := p.ButtonState(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, models.RelationPending, state)
	})

	t.Run("no relation", func(t *testing.T) {
		state, err := p.ButtonState(ctx, "bob", "carol")
		require.NoError(t, err)
		assert.Equal(t, models.RelationNone, state)
	})

	t.Run("unknown self", func(t *testing.T) {
		_, err := p.ButtonState(ctx, "ghost", "bob")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestMutualFollowersCount(t *testing.T) {
	ctx := context.Background()
	users := &stubUserRepo{users: map[string]*models.User{
		"alice": {UID: "alice", Following: []string{"x", "y", "z"}},
		"bob":   {UID: "bob", Followers: []string{"y", "z", "w"}},
	}}
	p := NewProjector(users, &stubRequestRepo{}, &stubNotificationRepo{}, events.NewBroker(), testCache(t))

	count, err := p.MutualFollowersCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The cached value is served even after the underlying sets change
	users.users["bob"].Followers = []string{}
	count, err = p.MutualFollowersCount(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWatchIncomingRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := events.NewBroker()
	requests := &stubRequestRepo{incoming: map[string][]models.FollowRequest{}}
	users := &stubUserRepo{users: map[string]*models.User{"bob": {UID: "bob"}}}
	p := NewProjector(users, requests, &stubNotificationRepo{}, broker, testCache(t))

	views, stop := p.WatchIncomingRequests(ctx, "bob")
	defer stop()

	// Initial snapshot is empty
	view := <-views
	assert.Equal(t, 0, view.Count)

	// A new request arrives; the watcher re-queries and re-emits
	requests.incoming["bob"] = []models.FollowRequest{{FromUID: "alice", ToUID: "bob"}}
	broker.Publish("bob", events.TypeFollowRequestReceived, nil)

	select {
	case view = <-views:
		assert.Equal(t, 1, view.Count)
		assert.Equal(t, "alice", view.Items[0].FromUID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for re-emitted view")
	}

	// Non-follow events do not trigger a re-emit
	broker.Publish("bob", events.TypeMessage, nil)
	select {
	case view, ok := <-views:
		if ok {
			t.Fatalf("unexpected view after unrelated event: %+v", view)
		}
	case <-time.After(100 * time.Millisecond):
	}

	// Stop releases the subscription and closes the stream
	stop()
	select {
	case _, ok := <-views:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after stop")
	}
	assert.Equal(t, 0, broker.SubscriberCount("bob"))
	assert.NotPanics(t, stop)
}

func TestUnreadNotificationCount(t *testing.T) {
	p := NewProjector(&stubUserRepo{}, &stubRequestRepo{}, &stubNotificationRepo{unread: 7}, events.NewBroker(), testCache(t))

	count, err := p.UnreadNotificationCount(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestIntersectionSize(t *testing.T) {
	assert.Equal(t, 0, intersectionSize(nil, []string{"a"}))
	assert.Equal(t, 0, intersectionSize([]string{"a"}, nil))
	assert.Equal(t, 1, intersectionSize([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, 1, intersectionSize([]string{"a"}, []string{"a", "a"}))
}
