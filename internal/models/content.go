package models

import "time"

// DefaultContentType is used when content is created without a type tag
const DefaultContentType = "post"

// Content is an item authored by a user. Only its like counter ever changes.
type Content struct {
	ID        uint      `json:"id" gorm:"primaryKey" bson:"_id"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index" bson:"author_id"`
	Type      string    `json:"type" gorm:"size:30;not null;default:post" bson:"type"`
	LikeCount int       `json:"like_count" gorm:"not null;default:0" bson:"like_count"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TableName keeps the original singular table name
func (Content) TableName() string { return "content" }

// CreateContentRequest defines the request body for creating content
type CreateContentRequest struct {
	AuthorID uint   `json:"author_id" validate:"required"`
	Type     string `json:"type" validate:"omitempty,max=30"`
}
