package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/insyd/notify/backend/internal/models"
	"gorm.io/gorm"
)

// ContentRepository defines the interface for content data operations
type ContentRepository interface {
	CreateContent(ctx context.Context, content *models.Content) error
	GetContentByID(ctx context.Context, id uint) (*models.Content, error)
	GetLatestByAuthorID(ctx context.Context, authorID uint) (*models.Content, error)
	GetContentByAuthorID(ctx context.Context, authorID uint, limit int) ([]models.Content, error)
	IncrementLikeCount(ctx context.Context, id uint) (*models.Content, error)
}

// PostgresContentRepository implements ContentRepository on any gorm dialect
type PostgresContentRepository struct {
	db *gorm.DB
}

// NewPostgresContentRepository creates a new PostgresContentRepository
func NewPostgresContentRepository(db *gorm.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

// CreateContent persists new content and fills in its id and timestamp
func (r *PostgresContentRepository) CreateContent(ctx context.Context, content *models.Content) error {
	if content.Type == "" {
		content.Type = models.DefaultContentType
	}
	content.LikeCount = 0
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(content).Error
}

// GetContentByID retrieves content by ID
func (r *PostgresContentRepository) GetContentByID(ctx context.Context, id uint) (*models.Content, error) {
	var content models.Content
	if err := r.db.WithContext(ctx).First(&content, id).Error; err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

// GetLatestByAuthorID retrieves the most recent content of an author
func (r *PostgresContentRepository) GetLatestByAuthorID(ctx context.Context, authorID uint) (*models.Content, error) {
	var content models.Content
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("id DESC").First(&content).Error
	if err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

// GetContentByAuthorID retrieves an author's content, most recent first
func (r *PostgresContentRepository) GetContentByAuthorID(ctx context.Context, authorID uint, limit int) ([]models.Content, error) {
	contents := []models.Content{}
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("id DESC").
		Limit(limit).
		Find(&contents).Error
	return contents, err
}

// IncrementLikeCount adds one like and returns the updated content
func (r *PostgresContentRepository) IncrementLikeCount(ctx context.Context, id uint) (*models.Content, error) {
	var content models.Content
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Content{}).
			Where("id = ?", id).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&content, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, translate(err)
	}
	return &content, nil
}
