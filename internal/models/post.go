package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents an event post stored in MongoDB. Only the metadata the
// notification pipeline needs is modelled here; the image URL feeds
// notification enrichment.
type Post struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OrganizerID string             `json:"organizer_id" bson:"organizer_id"`
	Title       string             `json:"title" bson:"title"`
	Content     string             `json:"content" bson:"content"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`
	ImageURLs   []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// FirstImageURL returns the post's lead image, or "" when the post has none.
func (p *Post) FirstImageURL() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title     string   `json:"title" validate:"required,min=1,max=200"`
	Content   string   `json:"content" validate:"omitempty,max=5000"`
	Category  string   `json:"category,omitempty" validate:"omitempty,max=50"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
}
