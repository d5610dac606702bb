package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification type tags. Type stays a free-form string in storage; these are
// the values the pipeline itself emits.
const (
	NotificationTypeInfo    = "info"
	NotificationTypePost    = "post"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeMessage = "message"
)

// Notification represents a per-recipient notification stored in MongoDB.
// Title and UserID are always present; everything under the enrichment block
// is best-effort display data filled at creation time (or lazily at read time
// for documents that predate enrichment).
type Notification struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      string             `json:"user_id" bson:"user_id"`
	Title       string             `json:"title" bson:"title"`
	Message     string             `json:"message,omitempty" bson:"message,omitempty"`
	Type        string             `json:"type" bson:"type"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`
	ReferenceID string             `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	FromUserID  string             `json:"from_user_id,omitempty" bson:"from_user_id,omitempty"`
	OrganizerID string             `json:"organizer_id,omitempty" bson:"organizer_id,omitempty"`
	IsRead      bool               `json:"is_read" bson:"is_read"`

	// Enrichment fields, populated best-effort and never required to be
	// recomputed once set.
	OrganizerName      string `json:"organizer_name,omitempty" bson:"organizer_name,omitempty"`
	OrganizerAvatarURL string `json:"organizer_avatar_url,omitempty" bson:"organizer_avatar_url,omitempty"`
	AuthorName         string `json:"author_name,omitempty" bson:"author_name,omitempty"`
	AuthorAvatarURL    string `json:"author_avatar_url,omitempty" bson:"author_avatar_url,omitempty"`
	PostImageURL       string `json:"post_image_url,omitempty" bson:"post_image_url,omitempty"`
	ActionURL          string `json:"action_url,omitempty" bson:"action_url,omitempty"`
	Content            string `json:"content,omitempty" bson:"content,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SendNotificationRequest is the body of the explicit send endpoint.
type SendNotificationRequest struct {
	UserID      string `json:"userId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Message     string `json:"message,omitempty" validate:"omitempty,max=1000"`
	Type        string `json:"type,omitempty" validate:"omitempty,max=30"`
	ReferenceID string `json:"referenceId,omitempty"`
	FromUserID  string `json:"fromUserId,omitempty"`
	OrganizerID string `json:"organizerId,omitempty"`
	Category    string `json:"category,omitempty" validate:"omitempty,max=50"`
}
