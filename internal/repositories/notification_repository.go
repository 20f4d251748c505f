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

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByRecipient(ctx context.Context, recipientUID string, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientUID string) (int64, error)
	MarkAsRead(ctx context.Context, id, recipientUID string) error
	MarkAllAsRead(ctx context.Context, recipientUID string) error
	DeleteNotification(ctx context.Context, id, recipientUID string) error
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// EnsureIndexes creates the recipient listing index
func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient_uid", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// CreateNotification creates a new notification
func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// GetByRecipient returns paginated notifications for a recipient,
// newest first, plus the total count
func (r *MongoNotificationRepository) GetByRecipient(ctx context.Context, recipientUID string, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"recipient_uid": recipientUID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((page - 1) * limit)
	findOptions := options.Find().SetSkip(skip).SetLimit(int64(limit)).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// GetUnreadCount returns the unread notification count for a recipient
func (r *MongoNotificationRepository) GetUnreadCount(ctx context.Context, recipientUID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient_uid": recipientUID, "is_read": false})
}

// MarkAsRead flips the read flag of one notification. The recipient filter
// keeps users from touching each other's notifications.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id, recipientUID string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid notification ID format: %w", err)
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "recipient_uid": recipientUID},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllAsRead flips the read flag of every unread notification
func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientUID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient_uid": recipientUID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	return err
}

// DeleteNotification removes a notification on explicit user action
func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, id, recipientUID string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid notification ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "recipient_uid": recipientUID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
