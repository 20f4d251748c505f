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

// BookmarkRepository defines the interface for saved-post operations
type BookmarkRepository interface {
	CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error
	DeleteBookmark(ctx context.Context, userUID, postID string) error
	HasBookmarked(ctx context.Context, userUID, postID string) (bool, error)
	ListBookmarks(ctx context.Context, userUID string, skip, limit int64) ([]models.Bookmark, error)
}

// MongoBookmarkRepository implements BookmarkRepository for MongoDB
type MongoBookmarkRepository struct {
	collection *mongo.Collection
}

// NewMongoBookmarkRepository creates a new MongoBookmarkRepository
func NewMongoBookmarkRepository(db *mongo.Database) *MongoBookmarkRepository {
	return &MongoBookmarkRepository{collection: db.Collection("bookmarks")}
}

// EnsureIndexes creates the unique (user, post) index
func (r *MongoBookmarkRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_uid", Value: 1}, {Key: "post_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// CreateBookmark saves a post for a user
func (r *MongoBookmarkRepository) CreateBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	bookmark.ID = primitive.NewObjectID()
	bookmark.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, bookmark)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteBookmark removes a saved post
func (r *MongoBookmarkRepository) DeleteBookmark(ctx context.Context, userUID, postID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_uid": userUID, "post_id": postID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// HasBookmarked checks whether the user saved the post
func (r *MongoBookmarkRepository) HasBookmarked(ctx context.Context, userUID, postID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_uid": userUID, "post_id": postID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListBookmarks retrieves a user's saved posts, newest first
func (r *MongoBookmarkRepository) ListBookmarks(ctx context.Context, userUID string, skip, limit int64) ([]models.Bookmark, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_uid": userUID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookmarks := []models.Bookmark{}
	if err = cursor.All(ctx, &bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}
