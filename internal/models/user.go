package models

import "time"

// User represents a researcher profile stored in MongoDB.
// The UID is the Firebase Auth UID and is the primary key of the document.
// Followers and Following are sets of UIDs; the follow engine keeps them
// symmetric (A in B.Followers iff B in A.Following) across both documents.
type User struct {
	UID       string    `json:"uid" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Headline  string    `json:"headline,omitempty" bson:"headline,omitempty"`
	Bio       string    `json:"bio,omitempty" bson:"bio,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Topics    []string  `json:"topics,omitempty" bson:"topics,omitempty"` // research interests
	Followers []string  `json:"followers" bson:"followers"`
	Following []string  `json:"following" bson:"following"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// UserCompact is the denormalized display snapshot embedded in follow
// requests and conversations. It is written once at creation time and not
// kept in sync with later profile edits.
type UserCompact struct {
	UID      string `json:"uid" bson:"uid"`
	Name     string `json:"name" bson:"name"`
	Headline string `json:"headline,omitempty" bson:"headline,omitempty"`
	PhotoURL string `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
}

// ToCompact returns the display snapshot of a user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		UID:      u.UID,
		Name:     u.Name,
		Headline: u.Headline,
		PhotoURL: u.PhotoURL,
	}
}

// IsFollowing reports whether the user follows the given UID
func (u *User) IsFollowing(uid string) bool {
	for _, f := range u.Following {
		if f == uid {
			return true
		}
	}
	return false
}

// UpdateProfileRequest defines the request body for updating the own profile
type UpdateProfileRequest struct {
	Name     string   `json:"name,omitempty" validate:"omitempty,min=2,max=80"`
	Headline string   `json:"headline,omitempty" validate:"omitempty,max=120"`
	Bio      string   `json:"bio,omitempty" validate:"omitempty,max=2000"`
	PhotoURL string   `json:"photo_url,omitempty" validate:"omitempty,url"`
	Topics   []string `json:"topics,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}
