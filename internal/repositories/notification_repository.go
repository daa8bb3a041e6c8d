package repositories

import (
	"context"
	"time"

	"github.com/insyd/notify/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	GetByRecipientID(ctx context.Context, recipientID uint, limit int) ([]models.Notification, error)
	GetByEventID(ctx context.Context, eventID string) ([]models.Notification, error)
	GetUnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkAsRead(ctx context.Context, id uint) (*models.Notification, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// CreateIfAbsent inserts the row unless (event_id, recipient_id) already
// exists. The check and the insert are one statement, so concurrent
// replays of the same event cannot both create a row.
func (r *postgresNotificationRepository) CreateIfAbsent(ctx context.Context, notification *models.Notification) (bool, error) {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "recipient_id"}},
			DoNothing: true,
		}).
		Create(notification)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		return nil, translate(err)
	}
	return &notification, nil
}

// GetByRecipientID lists a recipient's notifications, most recent first.
// Ids are assigned in insertion order, which is creation order.
func (r *postgresNotificationRepository) GetByRecipientID(ctx context.Context, recipientID uint, limit int) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetByEventID(ctx context.Context, eventID string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("recipient_id ASC").
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead sets the read flag. Marking an already read row is a no-op.
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, id uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&notification, id).Error; err != nil {
			return err
		}
		if notification.Read {
			return nil
		}
		if err := tx.Model(&notification).Update("read", true).Error; err != nil {
			return err
		}
		notification.Read = true
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &notification, nil
}
