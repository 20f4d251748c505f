package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/research-hub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FollowRequestRepository defines the interface for follow request
// operations. Requests are ephemeral: they are deleted on accept, reject
// and cancel, never updated to a terminal status.
type FollowRequestRepository interface {
	Create(ctx context.Context, req *models.FollowRequest) error
	GetByID(ctx context.Context, id string) (*models.FollowRequest, error)
	GetPending(ctx context.Context, fromUID, toUID string) (*models.FollowRequest, error)
	Delete(ctx context.Context, id string) error
	DeletePending(ctx context.Context, fromUID, toUID string) error
	ListIncoming(ctx context.Context, toUID string) ([]models.FollowRequest, error)
	ListOutgoing(ctx context.Context, fromUID string) ([]models.FollowRequest, error)
	CountIncoming(ctx context.Context, toUID string) (int64, error)
}

// MongoFollowRequestRepository implements FollowRequestRepository for MongoDB
type MongoFollowRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoFollowRequestRepository creates a new MongoFollowRequestRepository
func NewMongoFollowRequestRepository(db *mongo.Database) *MongoFollowRequestRepository {
	return &MongoFollowRequestRepository{collection: db.Collection("follow_requests")}
}

// EnsureIndexes creates the unique (from_uid, to_uid) index that backs the
// at-most-one-pending invariant even under concurrent sends.
func (r *MongoFollowRequestRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "from_uid", Value: 1}, {Key: "to_uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "to_uid", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

// Create inserts a new pending request. A duplicate (from, to) pair is
// reported as ErrDuplicate via the unique index.
func (r *MongoFollowRequestRepository) Create(ctx context.Context, req *models.FollowRequest) error {
	req.ID = primitive.NewObjectID()
	req.Status = models.FollowRequestStatusPending
	req.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID retrieves a follow request by ID
func (r *MongoFollowRequestRepository) GetByID(ctx context.Context, id string) (*models.FollowRequest, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request ID format: %w", err)
	}

	var req models.FollowRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetPending retrieves the pending request for an ordered (from, to) pair
func (r *MongoFollowRequestRepository) GetPending(ctx context.Context, fromUID, toUID string) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := r.collection.FindOne(ctx, bson.M{"from_uid": fromUID, "to_uid": toUID}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Delete removes a request by ID
func (r *MongoFollowRequestRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid request ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePending removes the pending request for an ordered (from, to) pair
func (r *MongoFollowRequestRepository) DeletePending(ctx context.Context, fromUID, toUID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"from_uid": fromUID, "to_uid": toUID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIncoming retrieves all pending requests addressed to a user,
// newest first
func (r *MongoFollowRequestRepository) ListIncoming(ctx context.Context, toUID string) ([]models.FollowRequest, error) {
	return r.list(ctx, bson.M{"to_uid": toUID})
}

// ListOutgoing retrieves all pending requests sent by a user, newest first
func (r *MongoFollowRequestRepository) ListOutgoing(ctx context.Context, fromUID string) ([]models.FollowRequest, error) {
	return r.list(ctx, bson.M{"from_uid": fromUID})
}

func (r *MongoFollowRequestRepository) list(ctx context.Context, filter bson.M) ([]models.FollowRequest, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.FollowRequest{}
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CountIncoming returns the number of pending requests addressed to a user
func (r *MongoFollowRequestRepository) CountIncoming(ctx context.Context, toUID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"to_uid": toUID})
}
