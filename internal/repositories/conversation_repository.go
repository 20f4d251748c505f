package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/anonto42/research-hub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository defines the interface for direct-message operations
type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, a, b models.UserCompact) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, uid string) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID string, skip, limit int64) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerUID string) error
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

// NewMongoConversationRepository creates a new MongoConversationRepository
func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// EnsureIndexes creates the participant-pair and message listing indexes
func (r *MongoConversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.conversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "participant_uids", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// GetOrCreateConversation returns the thread between two researchers,
// creating it on first contact. The participant pair is stored sorted so
// (a,b) and (b,a) resolve to the same document.
func (r *MongoConversationRepository) GetOrCreateConversation(ctx context.Context, a, b models.UserCompact) (*models.Conversation, error) {
	pair := []string{a.UID, b.UID}
	sort.Strings(pair)

	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"participant_uids": pair}).Decode(&conv)
	if err == nil {
		return &conv, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := time.Now()
	conv = models.Conversation{
		ID:              primitive.NewObjectID(),
		ParticipantUIDs: pair,
		Participants:    []models.UserCompact{a, b},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := r.conversations.InsertOne(ctx, conv); err != nil {
		// Lost a race with a concurrent first message; read back the winner.
		if mongo.IsDuplicateKeyError(err) {
			if ferr := r.conversations.FindOne(ctx, bson.M{"participant_uids": pair}).Decode(&conv); ferr == nil {
				return &conv, nil
			}
		}
		return nil, err
	}
	return &conv, nil
}

// GetConversationByID retrieves a conversation by ID
func (r *MongoConversationRepository) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID format: %w", err)
	}

	var conv models.Conversation
	err = r.conversations.FindOne(ctx, bson.M{"_id": objID}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversations retrieves a user's threads, most recently active first
func (r *MongoConversationRepository) ListConversations(ctx context.Context, uid string) ([]models.Conversation, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.conversations.Find(ctx, bson.M{"participant_uids": uid}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	conversations := []models.Conversation{}
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateMessage stores a message and refreshes the thread's last-message
// snapshot
func (r *MongoConversationRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	if message.ReadBy == nil {
		message.ReadBy = []string{message.SenderUID}
	}
	if _, err := r.messages.InsertOne(ctx, message); err != nil {
		return err
	}

	convID, err := primitive.ObjectIDFromHex(message.ConversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}
	_, err = r.conversations.UpdateOne(ctx, bson.M{"_id": convID}, bson.M{
		"$set": bson.M{
			"last_message":    message.Text,
			"last_sender_uid": message.SenderUID,
			"updated_at":      message.CreatedAt,
		},
	})
	return err
}

// ListMessages retrieves messages of a conversation, newest first
func (r *MongoConversationRepository) ListMessages(ctx context.Context, conversationID string, skip, limit int64) ([]models.Message, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.messages.Find(ctx, bson.M{"conversation_id": conversationID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkMessagesRead adds the reader to every unread message of the thread
func (r *MongoConversationRepository) MarkMessagesRead(ctx context.Context, conversationID, readerUID string) error {
	_, err := r.messages.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "read_by": bson.M{"$ne": readerUID}},
		bson.M{"$addToSet": bson.M{"read_by": readerUID}})
	return err
}
