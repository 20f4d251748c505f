package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationState describes the follow relation for an ordered pair
// (self, target) as the profile UI needs it.
type RelationState string

const (
	RelationNone      RelationState = "none"
	RelationPending   RelationState = "pending"
	RelationFollowing RelationState = "following"
)

// FollowRequestStatus is the persisted status of a follow request. Only
// "pending" is ever stored: accept, reject and cancel delete the document
// instead of flipping the status, so no decision history is retained.
const FollowRequestStatusPending = "pending"

// FollowRequest is the ephemeral edge representing an unconfirmed follow
// intent, stored in MongoDB. FromUser and ToUser are point-in-time display
// snapshots taken when the request is created.
type FollowRequest struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FromUID   string             `json:"from_uid" bson:"from_uid"`
	ToUID     string             `json:"to_uid" bson:"to_uid"`
	Status    string             `json:"status" bson:"status"`
	FromUser  UserCompact        `json:"from_user" bson:"from_user"`
	ToUser    UserCompact        `json:"to_user" bson:"to_user"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// SendFollowRequest defines the request body for sending a follow request
type SendFollowRequest struct {
	ToUID string `json:"to_uid" validate:"required"`
}
