package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/insyd/notify/backend/internal/handlers"
	"github.com/insyd/notify/backend/internal/models"
	"github.com/insyd/notify/backend/internal/realtime"
	"github.com/insyd/notify/backend/internal/repositories"
	"github.com/insyd/notify/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Migrate creates or updates the relational schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Content{},
		&models.Notification{},
	)
}

// NewService initializes repositories and the fan-out service. Content is
// kept in MongoDB when mongoDB is not nil.
func NewService(ctx context.Context, sqlDB *gorm.DB, mongoDB *mongo.Database, hub *realtime.Hub, cfg *config.Config, logger *slog.Logger) (*fanout.Service, error) {
	var contentRepo repositories.ContentRepository = repositories.NewPostgresContentRepository(sqlDB)
	if mongoDB != nil {
		mongoRepo := repositories.NewMongoContentRepository(mongoDB)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("content indexes: %w", err)
		}
		contentRepo = mongoRepo
		logger.Info("Content stored in MongoDB.")
	}

	return fanout.NewService(fanout.Dependencies{
		Users:         repositories.NewPostgresUserRepository(sqlDB),
		Follows:       repositories.NewPostgresFollowRepository(sqlDB),
		Content:       contentRepo,
		Notifications: repositories.NewPostgresNotificationRepository(sqlDB),
		Router:        hub,
		Logger:        logger,
	}, fanout.WithListLimits(cfg.ListDefaultLimit, cfg.ListMaxLimit)), nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, service *fanout.Service, hub *realtime.Hub, logger *slog.Logger) {
	e.GET("/health", handlers.HealthCheck)

	api := e.Group("")

	handlers.NewEventHandler(service).RegisterEventRoutes(api)
	handlers.NewNotificationHandler(service).RegisterNotificationRoutes(api)
	handlers.NewContentHandler(service).RegisterContentRoutes(api)
	handlers.NewFollowHandler(service).RegisterFollowRoutes(api)
	handlers.NewUserHandler(service).RegisterUserRoutes(api)
	handlers.NewSocketHandler(hub, logger).RegisterSocketRoutes(api)

	logger.Info("All routes configured.")
}
