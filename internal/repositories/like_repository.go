package repositories

import (
	"context"
	"time"

	"github.com/anonto42/research-hub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, postID, userUID string) error
	HasUserLikedPost(ctx context.Context, postID, userUID string) (bool, error)
	GetLikesCountByPostID(ctx context.Context, postID string) (int64, error)
}

// MongoLikeRepository implements LikeRepository for MongoDB
type MongoLikeRepository struct {
	collection *mongo.Collection
}

// NewMongoLikeRepository creates a new MongoLikeRepository
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{collection: db.Collection("likes")}
}

// EnsureIndexes creates the unique (post, user) index
func (r *MongoLikeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "user_uid", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// CreateLike creates a new like; a second like by the same user on the
// same post is reported as ErrDuplicate
func (r *MongoLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	like.ID = primitive.NewObjectID()
	like.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, like)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteLike removes a like
func (r *MongoLikeRepository) DeleteLike(ctx context.Context, postID, userUID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"post_id": postID, "user_uid": userUID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// HasUserLikedPost checks whether the user has liked the post
func (r *MongoLikeRepository) HasUserLikedPost(ctx context.Context, postID, userUID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"post_id": postID, "user_uid": userUID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikesCountByPostID returns the total number of likes for a post
func (r *MongoLikeRepository) GetLikesCountByPostID(ctx context.Context, postID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"post_id": postID})
}
