package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User represents an account stored in PostgreSQL. Organizers are regular
// users flagged with the organizer role; they own posts and are the target
// of organizer-wide subscriptions.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Username    string    `json:"username" gorm:"size:50;uniqueIndex"`
	FirstName   string    `json:"first_name" gorm:"size:50"`
	LastName    string    `json:"last_name" gorm:"size:50"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	AvatarURL   string    `json:"avatar_url"`
	IsOrganizer bool      `json:"is_organizer" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=2,max=50"`
	FirstName string `json:"first_name" validate:"omitempty,max=50"`
	LastName  string `json:"last_name" validate:"omitempty,max=50"`
	Email     string `json:"email" validate:"required,email"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
