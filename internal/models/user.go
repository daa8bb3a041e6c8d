package models

import "time"

// User is a person that can act and receive notifications
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile is a user with their follower count
type UserProfile struct {
	User      User  `json:"user"`
	Followers int64 `json:"followers"`
}

// SeedResult reports what a seed run added and how many users exist after it
type SeedResult struct {
	InsertedUsers   int64 `json:"inserted_users"`
	InsertedFollows int64 `json:"inserted_follows"`
	TotalUsers      int64 `json:"total_users"`
}

// SeedUserNames are the demo accounts created by the seed operation, in id order
var SeedUserNames = []string{"Aditi", "Bharat", "Charan", "Diya"}
