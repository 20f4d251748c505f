package follow

import (
	"context"
	"testing"

	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/models"
	"github.com/anonto42/research-hub/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- in-memory fakes ---

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(uids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, uid := range uids {
		r.users[uid] = &models.User{UID: uid, Name: "User " + uid, Followers: []string{}, Following: []string{}}
	}
	return r
}

func (r *fakeUserRepo) EnsureUser(ctx context.Context, user *models.User) error {
	r.users[user.UID] = user
	return nil
}

func (r *fakeUserRepo) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	user, ok := r.users[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUIDs(ctx context.Context, uids []string) ([]models.User, error) {
	out := []models.User{}
	for _, uid := range uids {
		if u, ok := r.users[uid]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, uid string, fields bson.M) error {
	if _, ok := r.users[uid]; !ok {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *fakeUserRepo) AddFollower(ctx context.Context, uid, followerUID string) error {
	return r.addToSet(uid, followerUID, true)
}

func (r *fakeUserRepo) RemoveFollower(ctx context.Context, uid, followerUID string) error {
	return r.pull(uid, followerUID, true)
}

func (r *fakeUserRepo) AddFollowing(ctx context.Context, uid, followingUID string) error {
	return r.addToSet(uid, followingUID, false)
}

func (r *fakeUserRepo) RemoveFollowing(ctx context.Context, uid, followingUID string) error {
	return r.pull(uid, followingUID, false)
}

func (r *fakeUserRepo) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) addToSet(uid, value string, followers bool) error {
	user, ok := r.users[uid]
	if !ok {
		return repositories.ErrNotFound
	}
	set := &user.Following
	if followers {
		set = &user.Followers
	}
	for _, v := range *set {
		if v == value {
			return nil
		}
	}
	*set = append(*set, value)
	return nil
}

func (r *fakeUserRepo) pull(uid, value string, followers bool) error {
	user, ok := r.users[uid]
	if !ok {
		return repositories.ErrNotFound
	}
	set := &user.Following
	if followers {
		set = &user.Followers
	}
	out := (*set)[:0]
	for _, v := range *set {
		if v != value {
			out = append(out, v)
		}
	}
	*set = out
	return nil
}

type fakeRequestRepo struct {
	requests map[string]*models.FollowRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.FollowRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *models.FollowRequest) error {
	for _, existing := range r.requests {
		if existing.FromUID == req.FromUID && existing.ToUID == req.ToUID {
			return repositories.ErrDuplicate
		}
	}
	req.ID = primitive.NewObjectID()
	req.Status = models.FollowRequestStatusPending
	r.requests[req.ID.Hex()] = req
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (*models.FollowRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) GetPending(ctx context.Context, fromUID, toUID string) (*models.FollowRequest, error) {
	for _, req := range r.requests {
		if req.FromUID == fromUID && req.ToUID == toUID {
			return req, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeRequestRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.requests[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.requests, id)
	return nil
}

func (r *fakeRequestRepo) DeletePending(ctx context.Context, fromUID, toUID string) error {
	for id, req := range r.requests {
		if req.FromUID == fromUID && req.ToUID == toUID {
			delete(r.requests, id)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeRequestRepo) ListIncoming(ctx context.Context, toUID string) ([]models.FollowRequest, error) {
	out := []models.FollowRequest{}
	for _, req := range r.requests {
		if req.ToUID == toUID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) ListOutgoing(ctx context.Context, fromUID string) ([]models.FollowRequest, error) {
	out := []models.FollowRequest{}
	for _, req := range r.requests {
		if req.FromUID == fromUID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) CountIncoming(ctx context.Context, toUID string) (int64, error) {
	items, _ := r.ListIncoming(ctx, toUID)
	return int64(len(items)), nil
}

type fakeNotificationRepo struct {
	created []*models.Notification
}

func (r *fakeNotificationRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipient(ctx context.Context, recipientUID string, page, limit int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(ctx context.Context, recipientUID string) (int64, error) {
	count := int64(0)
	for _, n := range r.created {
		if n.RecipientUID == recipientUID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id, recipientUID string) error {
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, recipientUID string) error {
	return nil
}

func (r *fakeNotificationRepo) DeleteNotification(ctx context.Context, id, recipientUID string) error {
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestEngine(users *fakeUserRepo, requests *fakeRequestRepo) (*Engine, *fakeNotificationRepo, *events.Broker) {
	notifs := &fakeNotificationRepo{}
	broker := events.NewBroker()
	engine := NewEngine(users, requests, notifs, fakeTxRunner{}, broker, nil)
	return engine, notifs, broker
}

// --- tests ---

func TestSendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending request with snapshots", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		engine, _, _ := newTestEngine(users, newFakeRequestRepo())

		req, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, "alice", req.FromUID)
		assert.Equal(t, "bob", req.ToUID)
		assert.Equal(t, models.FollowRequestStatusPending, req.Status)
		assert.Equal(t, "User alice", req.FromUser.Name)
		assert.Equal(t, "User bob", req.ToUser.Name)
	})

	t.Run("rejects unauthenticated caller", func(t *testing.T) {
		engine, _, _ := newTestEngine(newFakeUserRepo("bob"), newFakeRequestRepo())

		_, err := engine.SendRequest(ctx, "", "bob")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("rejects self follow", func(t *testing.T) {
		engine, _, _ := newTestEngine(newFakeUserRepo("alice"), newFakeRequestRepo())

		_, err := engine.SendRequest(ctx, "alice", "alice")
		assert.ErrorIs(t, err, ErrSelfFollow)
	})

	t.Run("rejects unknown target", func(t *testing.T) {
		engine, _, _ := newTestEngine(newFakeUserRepo("alice"), newFakeRequestRepo())

		_, err := engine.SendRequest(ctx, "alice", "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects duplicate pending request", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		requests := newFakeRequestRepo()
		engine, _, _ := newTestEngine(users, requests)

		_, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)

		_, err = engine.SendRequest(ctx, "alice", "bob")
		assert.ErrorIs(t, err, ErrDuplicateRequest)

		incoming, _ := requests.ListIncoming(ctx, "bob")
		assert.Len(t, incoming, 1)
	})

	t.Run("rejects request to an already followed user", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		users.users["alice"].Following = []string{"bob"}
		engine, _, _ := newTestEngine(users, newFakeRequestRepo())

		_, err := engine.SendRequest(ctx, "alice", "bob")
		assert.ErrorIs(t, err, ErrAlreadyFollowing)
	})
}

func TestCancelRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the pending request", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		requests := newFakeRequestRepo()
		engine, _, _ := newTestEngine(users, requests)

		_, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)

		require.NoError(t, engine.CancelRequest(ctx, "alice", "bob"))

		incoming, _ := requests.ListIncoming(ctx, "bob")
		assert.Empty(t, incoming)
	})

	t.Run("cancelling nothing reports not found", func(t *testing.T) {
		engine, _, _ := newTestEngine(newFakeUserRepo("alice", "bob"), newFakeRequestRepo())

		err := engine.CancelRequest(ctx, "alice", "bob")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("establishes a symmetric follow edge and deletes the request", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		requests := newFakeRequestRepo()
		engine, notifs, _ := newTestEngine(users, requests)

		req, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)

		require.NoError(t, engine.AcceptRequest(ctx, "bob", req.ID.Hex()))

		assert.Contains(t, users.users["bob"].Followers, "alice")
		assert.Contains(t, users.users["alice"].Following, "bob")
		// Symmetry holds in the other direction too
		assert.NotContains(t, users.users["alice"].Followers, "bob")
		assert.NotContains(t, users.users["bob"].Following, "alice")

		_, err = requests.GetByID(ctx, req.ID.Hex())
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		require.Len(t, notifs.created, 1)
		assert.Equal(t, models.NotificationTypeFollow, notifs.created[0].Type)
		assert.Equal(t, "alice", notifs.created[0].RecipientUID)
	})

	t.Run("only the addressee may accept", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob", "mallory")
		engine, _, _ := newTestEngine(users, newFakeRequestRepo())

		req, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)

		err = engine.AcceptRequest(ctx, "mallory", req.ID.Hex())
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, users.users["bob"].Followers)
	})

	t.Run("accepting a resolved request reports not found", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		engine, _, _ := newTestEngine(users, newFakeRequestRepo())

		req, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)
		require.NoError(t, engine.AcceptRequest(ctx, "bob", req.ID.Hex()))

		err = engine.AcceptRequest(ctx, "bob", req.ID.Hex())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRejectRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the request without creating an edge", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		requests := newFakeRequestRepo()
		engine, _, _ := newTestEngine(users, requests)

		req, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)

		require.NoError(t, engine.RejectRequest(ctx, "bob", req.ID.Hex()))

		assert.Empty(t, users.users["bob"].Followers)
		assert.Empty(t, users.users["alice"].Following)
		_, err = requests.GetByID(ctx, req.ID.Hex())
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("requester can retry after rejection", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		engine, _, _ := newTestEngine(users, newFakeRequestRepo())

		req, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)
		require.NoError(t, engine.RejectRequest(ctx, "bob", req.ID.Hex()))

		_, err = engine.SendRequest(ctx, "alice", "bob")
		assert.NoError(t, err)
	})
}

func TestUnfollow(t *testing.T) {
	ctx := context.Background()

	t.Run("removes both sides of the edge", func(t *testing.T) {
		users := newFakeUserRepo("alice", "bob")
		engine, _, _ := newTestEngine(users, newFakeRequestRepo())

		req, err := engine.SendRequest(ctx, "alice", "bob")
		require.NoError(t, err)
		require.NoError(t, engine.AcceptRequest(ctx, "bob", req.ID.Hex()))

		require.NoError(t, engine.Unfollow(ctx, "alice", "bob"))

		assert.Empty(t, users.users["bob"].Followers)
		assert.Empty(t, users.users["alice"].Following)
	})

	t.Run("unfollowing a non-followed user is a conflict", func(t *testing.T) {
		engine, _, _ := newTestEngine(newFakeUserRepo("alice", "bob"), newFakeRequestRepo())

		err := engine.Unfollow(ctx, "alice", "bob")
		assert.ErrorIs(t, err, ErrNotFollowing)
	})
}

func TestFullLifecycle(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo("alice", "bob")
	requests := newFakeRequestRepo()
	engine, _, _ := newTestEngine(users, requests)

	// send -> accept -> unfollow leaves the graph exactly where it started
	req, err := engine.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, engine.AcceptRequest(ctx, "bob", req.ID.Hex()))
	require.NoError(t, engine.Unfollow(ctx, "alice", "bob"))

	assert.Empty(t, users.users["alice"].Following)
	assert.Empty(t, users.users["alice"].Followers)
	assert.Empty(t, users.users["bob"].Following)
	assert.Empty(t, users.users["bob"].Followers)
	assert.Empty(t, requests.requests)

	// and the pair can start over
	_, err = engine.SendRequest(ctx, "alice", "bob")
	assert.NoError(t, err)
}

func TestSendRequestPublishesEvent(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo("alice", "bob")
	engine, _, broker := newTestEngine(users, newFakeRequestRepo())

	sub := broker.Subscribe("bob")
	defer sub.Close()

	_, err := engine.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	event := <-sub.C
	assert.Equal(t, events.TypeFollowRequestReceived, event.Type)
}
