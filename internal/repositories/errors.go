package repositories

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a point lookup matches no record
	ErrNotFound = errors.New("record not found")
	// ErrSelfFollow is returned when a follow edge points at its own follower
	ErrSelfFollow = errors.New("a user cannot follow themselves")
)

// translate maps driver-specific "no rows" errors to ErrNotFound
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
