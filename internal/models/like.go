package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Like represents a like on a post, stored in MongoDB. One document per
// (post, user) pair, enforced by a unique compound index.
type Like struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PostID    string             `json:"post_id" bson:"post_id"`
	UserUID   string             `json:"user_uid" bson:"user_uid"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
