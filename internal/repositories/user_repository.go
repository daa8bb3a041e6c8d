package repositories

import (
	"context"

	"github.com/insyd/notify/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	EnsureUsers(ctx context.Context, users []models.User) (int64, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// PostgresUserRepository implements UserRepository on any gorm dialect
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// EnsureUsers inserts users with fixed ids, skipping ids that already
// exist. It returns how many users were inserted.
func (r *PostgresUserRepository) EnsureUsers(ctx context.Context, users []models.User) (int64, error) {
	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range users {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).Create(&users[i])
			if res.Error != nil {
				return res.Error
			}
			inserted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetUserByID retrieves a user by ID
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUsers retrieves all users ordered by id
func (r *PostgresUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers returns the number of users
func (r *PostgresUserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
