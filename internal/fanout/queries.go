package fanout

import (
	"context"
	"fmt"

	"github.com/insyd/notify/backend/internal/models"
)

// clampLimit maps a requested page size into [1, maxLimit]
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// ListNotifications returns a recipient's notifications, most recent first
func (s *Service) ListNotifications(ctx context.Context, recipientID uint, limit int) ([]models.Notification, error) {
	return s.notifications.GetByRecipientID(ctx, recipientID, s.clampLimit(limit))
}

// UnreadCount returns how many of a recipient's notifications are unread
func (s *Service) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.notifications.GetUnreadCount(ctx, recipientID)
}

// MarkRead flags a notification as read. Repeating it succeeds.
func (s *Service) MarkRead(ctx context.Context, id uint) (*models.Notification, error) {
	return s.notifications.MarkAsRead(ctx, id)
}

// EventNotifications returns the rows written for one event, one per recipient
func (s *Service) EventNotifications(ctx context.Context, eventID string) ([]models.Notification, error) {
	return s.notifications.GetByEventID(ctx, eventID)
}

// ListContent returns an author's content, most recent first
func (s *Service) ListContent(ctx context.Context, authorID uint, limit int) ([]models.Content, error) {
	return s.content.GetContentByAuthorID(ctx, authorID, s.clampLimit(limit))
}

// CreateContent stores new content. It must run before a post_created or
// like event refers to the content.
func (s *Service) CreateContent(ctx context.Context, authorID uint, contentType string) (*models.Content, error) {
	content := &models.Content{AuthorID: authorID, Type: contentType}
	if err := s.content.CreateContent(ctx, content); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	s.logger.Info("content created", "content_id", content.ID, "author_id", authorID, "type", content.Type)
	return content, nil
}

// Follow records that followerID follows followeeID. It reports whether
// the edge is new.
func (s *Service) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.follows.CreateFollow(ctx, &models.Follow{FollowerID: followerID, FolloweeID: followeeID})
}

// IsFollowing reports whether followerID follows followeeID
func (s *Service) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.follows.IsFollowing(ctx, followerID, followeeID)
}

// GetUser returns a user and their follower count
func (s *Service) GetUser(ctx context.Context, id uint) (*models.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.GetFollowersCount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("followers of %d: %w", id, err)
	}
	return &models.UserProfile{User: *user, Followers: followers}, nil
}

// ListUsers returns every user in id order
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.GetUsers(ctx)
}

// Seed creates the demo users and follow graph. Running it again adds nothing.
func (s *Service) Seed(ctx context.Context) (*models.SeedResult, error) {
	users := make([]models.User, len(models.SeedUserNames))
	for i, name := range models.SeedUserNames {
		users[i] = models.User{ID: uint(i + 1), Name: name}
	}
	result := &models.SeedResult{}

	inserted, err := s.users.EnsureUsers(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	result.InsertedUsers = inserted

	for _, f := range models.SeedFollows {
		edge := f
		isNew, err := s.follows.CreateFollow(ctx, &edge)
		if err != nil {
			return nil, fmt.Errorf("seed follow %d->%d: %w", f.FollowerID, f.FolloweeID, err)
		}
		if isNew {
			result.InsertedFollows++
		}
	}

	if result.TotalUsers, err = s.users.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	s.logger.Info("demo data seeded", "users", result.InsertedUsers, "follows", result.InsertedFollows, "total_users", result.TotalUsers)
	return result, nil
}
