package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeLike          = "like"
	NotificationTypeComment       = "comment"
	NotificationTypeReply         = "reply"
	NotificationTypeFollow        = "follow"
	NotificationTypeFollowRequest = "follow_request"
)

// Notification is a fire-and-forget event record stored per recipient in
// MongoDB. Mutated only by the read flag; deleted on explicit user action.
type Notification struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Type         string             `json:"type" bson:"type"`
	ActorUID     string             `json:"actor_uid" bson:"actor_uid"`
	RecipientUID string             `json:"recipient_uid" bson:"recipient_uid"`
	PostID       string             `json:"post_id,omitempty" bson:"post_id,omitempty"`
	Message      string             `json:"message" bson:"message"`
	IsRead       bool               `json:"is_read" bson:"is_read"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
