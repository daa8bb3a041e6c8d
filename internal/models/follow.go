package models

import "time"

// Follow means FollowerID is notified when FolloweeID publishes content
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_follower_followee"`
	FolloweeID uint      `json:"followee_id" gorm:"not null;index;uniqueIndex:idx_follower_followee"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateFollowRequest defines the request body for creating a follow edge
type CreateFollowRequest struct {
	FollowerID uint `json:"follower_id" validate:"required"`
	FolloweeID uint `json:"followee_id" validate:"required"`
}

// SeedFollows are the demo follow edges created by the seed operation
var SeedFollows = []Follow{
	{FollowerID: 2, FolloweeID: 1},
	{FollowerID: 3, FolloweeID: 1},
	{FollowerID: 4, FolloweeID: 1},
	{FollowerID: 1, FolloweeID: 2},
}
