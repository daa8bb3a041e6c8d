package repositories

import (
	"context"

	"github.com/insyd/notify/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	GetFollowerIDs(ctx context.Context, followeeID uint) ([]uint, error)
	GetFollowersCount(ctx context.Context, followeeID uint) (int64, error)
}

// PostgresFollowRepository implements FollowRepository on any gorm dialect
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts the edge unless it already exists.
// It reports whether a new edge was written. Self-follow is rejected.
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) (bool, error) {
	if follow.FollowerID == follow.FolloweeID {
		return false, ErrSelfFollow
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followee_id"}},
			DoNothing: true,
		}).
		Create(follow)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFollowerIDs returns the ids of everyone following followeeID
func (r *PostgresFollowRepository) GetFollowerIDs(ctx context.Context, followeeID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", followeeID).
		Order("follower_id ASC").
		Pluck("follower_id", &ids).Error
	return ids, err
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, followeeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("followee_id = ?", followeeID).Count(&count).Error
	return count, err
}
