package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post kinds. A post is either a paper announcement, an open discussion or
// a project showcase.
const (
	PostKindPaper      = "paper"
	PostKindDiscussion = "discussion"
	PostKindProject    = "project"
)

// Post represents a publication on the hub, stored in MongoDB
type Post struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorUID      string             `json:"author_uid" bson:"author_uid"`
	Kind           string             `json:"kind" bson:"kind"`
	Title          string             `json:"title" bson:"title"`
	Content        string             `json:"content" bson:"content"`
	Topics         []string           `json:"topics,omitempty" bson:"topics,omitempty"`
	ImageURLs      []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	AttachmentURLs []string           `json:"attachment_urls,omitempty" bson:"attachment_urls,omitempty"` // e.g. preprint PDFs
	LikesCount     int                `json:"likes_count" bson:"likes_count"`
	CommentsCount  int                `json:"comments_count" bson:"comments_count"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Kind           string   `json:"kind" validate:"required,oneof=paper discussion project"`
	Title          string   `json:"title" validate:"required,min=1,max=200"`
	Content        string   `json:"content" validate:"required,min=1,max=10000"`
	Topics         []string `json:"topics,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	ImageURLs      []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	AttachmentURLs []string `json:"attachment_urls,omitempty" validate:"omitempty,dive,url"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title          string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content        string   `json:"content,omitempty" validate:"omitempty,min=1,max=10000"`
	Topics         []string `json:"topics,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	ImageURLs      []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	AttachmentURLs []string `json:"attachment_urls,omitempty" validate:"omitempty,dive,url"`
}
