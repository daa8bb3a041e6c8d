package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/insyd/notify/backend/internal/metrics"
	"github.com/insyd/notify/backend/internal/models"
	"github.com/insyd/notify/backend/internal/realtime"
	"github.com/insyd/notify/backend/internal/repositories"
	"github.com/insyd/notify/backend/validators"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ValidationError means the event was rejected before anything was written
type ValidationError struct {
	Fields []validators.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

// Router pushes messages to live connections
type Router interface {
	SendToUser(userID uint, msg realtime.Message) int
	SendToUsers(userIDs []uint, msg realtime.Message) int
	Broadcast(msg realtime.Message) int
}

// Dependencies are the collaborators of a Service
type Dependencies struct {
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Content       repositories.ContentRepository
	Notifications repositories.NotificationRepository
	Router        Router
	Logger        *slog.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithScorer replaces the default recency scorer
func WithScorer(scorer Scorer) Option {
	return func(s *Service) { s.scorer = scorer }
}

// WithListLimits sets the default and maximum page size of list queries
func WithListLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// Service is the event ingest and query surface of the notification core
type Service struct {
	users         repositories.UserRepository
	follows       repositories.FollowRepository
	content       repositories.ContentRepository
	notifications repositories.NotificationRepository
	router        Router

	resolver  *Resolver
	writer    *Writer
	scorer    Scorer
	validator *validators.CustomValidator
	logger    *slog.Logger

	defaultLimit int
	maxLimit     int
}

func NewService(deps Dependencies, opts ...Option) *Service {
	s := &Service{
		users:         deps.Users,
		follows:       deps.Follows,
		content:       deps.Content,
		notifications: deps.Notifications,
		router:        deps.Router,
		scorer:        RecencyScorer{},
		validator:     validators.NewValidator(),
		logger:        deps.Logger.With("component", "fanout.Service"),
		defaultLimit:  DefaultListLimit,
		maxLimit:      MaxListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	s.resolver = NewResolver(deps.Follows, deps.Content)
	s.writer = NewWriter(deps.Notifications, s.scorer)
	return s
}

// Ingest fans one event out to its recipients.
//
// Content pushes (like counters, new posts) happen whether or not any
// notification row is created. Replaying an event id creates nothing new
// for recipients that already have a row. The result reports every
// recipient attempted and how many rows were created by this call.
func (s *Service) Ingest(ctx context.Context, ev *models.Event) (*models.IngestResult, error) {
	if err := s.validate(ev); err != nil {
		metrics.EventsIngested.WithLabelValues(s.typeLabel(ev.Type), "invalid").Inc()
		return nil, err
	}
	logger := s.logger.With("event_id", ev.EventID, "type", ev.Type, "actor_id", ev.ActorID)

	if !s.resolver.Supports(ev.Type) {
		logger.Warn("unsupported event type, nothing to notify")
		metrics.EventsIngested.WithLabelValues(s.typeLabel(ev.Type), "ok").Inc()
		return &models.IngestResult{Recipients: []uint{}, Created: 0}, nil
	}

	if ev.Type == models.EventLike {
		if err := s.applyLike(ctx, logger, *ev.ContentID); err != nil {
			metrics.EventsIngested.WithLabelValues(s.typeLabel(ev.Type), "error").Inc()
			return nil, err
		}
	}

	recipients, err := s.resolver.Resolve(ctx, ev)
	if err != nil {
		metrics.EventsIngested.WithLabelValues(s.typeLabel(ev.Type), "error").Inc()
		return nil, fmt.Errorf("resolve recipients: %w", err)
	}
	ids := recipients.IDs()

	if ev.Type == models.EventPostCreated {
		if err := s.pushNewContent(ctx, logger, ev, ids); err != nil {
			metrics.EventsIngested.WithLabelValues(s.typeLabel(ev.Type), "error").Inc()
			return nil, err
		}
	}

	meta, err := buildMetadata(ev)
	if err != nil {
		return nil, err
	}

	created, writeErr := s.writer.Write(ctx, WriteRequest{
		EventID:   ev.EventID,
		Type:      ev.Type,
		ActorID:   ev.ActorID,
		ContentID: ev.ContentID,
		Metadata:  meta,
	}, ids)

	// rows written before a failure are real; deliver them too
	for i := range created {
		s.router.SendToUser(created[i].RecipientID, realtime.Message{
			Event: realtime.EventNotification,
			Data:  created[i],
		})
	}
	metrics.NotificationsCreated.WithLabelValues(string(ev.Type)).Add(float64(len(created)))

	if writeErr != nil {
		metrics.EventsIngested.WithLabelValues(s.typeLabel(ev.Type), "error").Inc()
		logger.Error("fan-out interrupted", "created", len(created), "recipients", len(ids), "error", writeErr)
		return nil, fmt.Errorf("write notifications: %w", writeErr)
	}

	if skipped := len(ids) - len(created); skipped > 0 {
		metrics.NotificationsDeduplicated.WithLabelValues(string(ev.Type)).Add(float64(skipped))
	}
	metrics.EventsIngested.WithLabelValues(s.typeLabel(ev.Type), "ok").Inc()
	logger.Info("event ingested", "recipients", len(ids), "created", len(created))

	return &models.IngestResult{Recipients: ids, Created: len(created)}, nil
}

// typeLabel keeps metric label values bounded
func (s *Service) typeLabel(t models.EventType) string {
	if s.resolver.Supports(t) {
		return string(t)
	}
	return "unsupported"
}

func (s *Service) validate(ev *models.Event) error {
	var fields []validators.FieldError
	if err := s.validator.Validate(ev); err != nil {
		fields = validators.Describe(err)
	}
	if ev.Type == models.EventLike && (ev.ContentID == nil || *ev.ContentID == 0) {
		fields = append(fields, validators.FieldError{Field: "content_id", Message: "required for like"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// applyLike bumps the counter and shows the new count to every viewer.
// Missing content is not an error; there is simply nothing to update.
func (s *Service) applyLike(ctx context.Context, logger *slog.Logger, contentID uint) error {
	content, err := s.content.IncrementLikeCount(ctx, contentID)
	if errors.Is(err, repositories.ErrNotFound) {
		logger.Debug("liked content not found", "content_id", contentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("increment likes of %d: %w", contentID, err)
	}
	s.router.Broadcast(realtime.Message{Event: realtime.EventPostsUpdate, Data: content})
	return nil
}

// pushNewContent shows the new post to the author's followers and to the
// author. The referenced content is used when given, else the author's latest.
func (s *Service) pushNewContent(ctx context.Context, logger *slog.Logger, ev *models.Event, followers []uint) error {
	var (
		content *models.Content
		err     error
	)
	if ev.ContentID != nil && *ev.ContentID != 0 {
		content, err = s.content.GetContentByID(ctx, *ev.ContentID)
	} else {
		content, err = s.content.GetLatestByAuthorID(ctx, ev.ActorID)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		logger.Debug("no content to push for new post")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load new content: %w", err)
	}
	if content.AuthorID != ev.ActorID {
		logger.Warn("post_created references content of another author", "content_id", content.ID, "author_id", content.AuthorID)
		return nil
	}

	audience := append([]uint{ev.ActorID}, followers...)
	s.router.SendToUsers(audience, realtime.Message{Event: realtime.EventPosts, Data: content})
	return nil
}

// buildMetadata merges caller metadata with the recipient-determining fields
func buildMetadata(ev *models.Event) (models.Metadata, error) {
	meta := make(map[string]any, len(ev.Metadata)+3)
	for k, v := range ev.Metadata {
		meta[k] = v
	}
	meta["content_id"] = ev.ContentID
	meta["target_user_id"] = ev.TargetUserID
	if len(ev.MentionedUserIDs) > 0 {
		meta["mentioned_user_ids"] = ev.MentionedUserIDs
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, &ValidationError{Fields: []validators.FieldError{{Field: "metadata", Message: "not serializable"}}}
	}
	return models.Metadata(raw), nil
}
