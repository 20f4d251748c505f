package repositories

import (
	"context"
	"time"

	"github.com/anonto42/research-hub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for researcher profile operations
type UserRepository interface {
	EnsureUser(ctx context.Context, user *models.User) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByUIDs(ctx context.Context, uids []string) ([]models.User, error)
	UpdateProfile(ctx context.Context, uid string, fields bson.M) error
	AddFollower(ctx context.Context, uid, followerUID string) error
	RemoveFollower(ctx context.Context, uid, followerUID string) error
	AddFollowing(ctx context.Context, uid, followingUID string) error
	RemoveFollowing(ctx context.Context, uid, followingUID string) error
	SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// EnsureUser creates the profile document on first authentication, or
// refreshes name/email on subsequent logins. Followers/Following are only
// initialized on insert so the social graph is never clobbered.
func (r *MongoUserRepository) EnsureUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":       user.Name,
			"email":      user.Email,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"followers":  []string{},
			"following":  []string{},
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateByID(ctx, user.UID, update, opts)
	return err
}

// GetByUID retrieves a user by Firebase UID
func (r *MongoUserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUIDs retrieves several users at once, order unspecified
func (r *MongoUserRepository) GetByUIDs(ctx context.Context, uids []string) ([]models.User, error) {
	if len(uids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": uids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile applies the given display fields to a user document
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, uid string, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateByID(ctx, uid, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFollower adds followerUID to the user's followers set
func (r *MongoUserRepository) AddFollower(ctx context.Context, uid, followerUID string) error {
	return r.updateSet(ctx, uid, "$addToSet", "followers", followerUID)
}

// RemoveFollower removes followerUID from the user's followers set
func (r *MongoUserRepository) RemoveFollower(ctx context.Context, uid, followerUID string) error {
	return r.updateSet(ctx, uid, "$pull", "followers", followerUID)
}

// AddFollowing adds followingUID to the user's following set
func (r *MongoUserRepository) AddFollowing(ctx context.Context, uid, followingUID string) error {
	return r.updateSet(ctx, uid, "$addToSet", "following", followingUID)
}

// RemoveFollowing removes followingUID from the user's following set
func (r *MongoUserRepository) RemoveFollowing(ctx context.Context, uid, followingUID string) error {
	return r.updateSet(ctx, uid, "$pull", "following", followingUID)
}

func (r *MongoUserRepository) updateSet(ctx context.Context, uid, op, field, value string) error {
	res, err := r.collection.UpdateByID(ctx, uid, bson.M{
		op:     bson.M{field: value},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers searches researchers by name, headline or topic
// (case-insensitive substring match)
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"headline": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"topics": bson.M{"$regex": query, "$options": "i"}},
	}}
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
