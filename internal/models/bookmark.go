package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bookmark represents a post saved by a user for later reading, stored in
// MongoDB with a unique (user, post) index.
type Bookmark struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserUID   string             `json:"user_uid" bson:"user_uid"`
	PostID    string             `json:"post_id" bson:"post_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
