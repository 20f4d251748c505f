package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a direct-message thread between exactly two researchers,
// stored in MongoDB. Participant snapshots are denormalized for list views.
type Conversation struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ParticipantUIDs []string           `json:"participant_uids" bson:"participant_uids"` // always two, sorted
	Participants    []UserCompact      `json:"participants" bson:"participants"`
	LastMessage     string             `json:"last_message,omitempty" bson:"last_message,omitempty"`
	LastSenderUID   string             `json:"last_sender_uid,omitempty" bson:"last_sender_uid,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// Message is a single direct message inside a conversation
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID string             `json:"conversation_id" bson:"conversation_id"`
	SenderUID      string             `json:"sender_uid" bson:"sender_uid"`
	Text           string             `json:"text" bson:"text"`
	AttachmentURL  string             `json:"attachment_url,omitempty" bson:"attachment_url,omitempty"`
	ReadBy         []string           `json:"read_by" bson:"read_by"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// CreateConversationRequest defines the request body for opening a thread
type CreateConversationRequest struct {
	WithUID string `json:"with_uid" validate:"required"`
}

// SendMessageRequest defines the request body for sending a message
type SendMessageRequest struct {
	Text          string `json:"text" validate:"required_without=AttachmentURL,max=5000"`
	AttachmentURL string `json:"attachment_url,omitempty" validate:"omitempty,url"`
}
