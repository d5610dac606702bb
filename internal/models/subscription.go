package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription represents a user's interest in future posts, stored in MongoDB.
// Scope is encoded by which optional fields are set: a post_id makes it
// post-specific, a title (without post_id) makes it title-scoped, and neither
// makes it organizer-wide. Unsubscribing clears is_active instead of deleting
// the document, so re-subscribing reactivates the same record.
type Subscription struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      string             `json:"user_id" bson:"user_id"`
	OrganizerID string             `json:"organizer_id" bson:"organizer_id"`
	PostID      string             `json:"post_id,omitempty" bson:"post_id,omitempty"`
	Title       string             `json:"title,omitempty" bson:"title,omitempty"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// SubscribeRequest dispatches to a post, title, or organizer-wide subscribe
// depending on which optional fields are present (postId wins over title).
type SubscribeRequest struct {
	OrganizerID string `json:"organizerId" validate:"required"`
	PostID      string `json:"postId,omitempty"`
	Title       string `json:"title,omitempty" validate:"omitempty,max=200"`
	Category    string `json:"category,omitempty" validate:"omitempty,max=50"`
}

type UnsubscribeTitleRequest struct {
	OrganizerID string `json:"organizerId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
}

type UnsubscribeRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}
