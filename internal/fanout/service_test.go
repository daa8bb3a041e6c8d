package fanout

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/insyd/notify/backend/internal/models"
	"github.com/insyd/notify/backend/internal/realtime"
	"github.com/insyd/notify/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, f *fixture, eventID string) int {
	t.Helper()
	rows, err := repositories.NewPostgresNotificationRepository(f.db).GetByEventID(t.Context(), eventID)
	require.NoError(t, err)
	return len(rows)
}

func TestIngestFollowNotifiesFollowedUser(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(t.Context(), &models.Event{
		EventID:      "follow-3-2",
		Type:         models.EventFollow,
		ActorID:      3,
		TargetUserID: uintPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, result.Recipients)
	assert.Equal(t, 1, result.Created)

	list, err := f.service.ListNotifications(t.Context(), 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "follow", list[0].Type)
	assert.Equal(t, uint(3), list[0].ActorID)
	assert.False(t, list[0].Read)

	pushed := f.router.received(2, realtime.EventNotification)
	require.Len(t, pushed, 1)
	n, ok := pushed[0].Data.(models.Notification)
	require.True(t, ok)
	assert.Equal(t, "follow-3-2", n.EventID)
	assert.Equal(t, n.CreatedAt.UnixMilli(), n.Score)
}

func TestIngestFollowWithoutTargetIsEmpty(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(t.Context(), &models.Event{EventID: "f-none", Type: models.EventFollow, ActorID: 3})
	require.NoError(t, err)
	assert.Empty(t, result.Recipients)
	assert.Zero(t, result.Created)
}

func TestIngestReplayCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ev := &models.Event{EventID: "m-1", Type: models.EventMention, ActorID: 1, MentionedUserIDs: []uint{2, 3}}

	first, err := f.service.Ingest(t.Context(), ev)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := f.service.Ingest(t.Context(), ev)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3}, second.Recipients)
	assert.Zero(t, second.Created)

	assert.Equal(t, 2, countRows(t, f, "m-1"))
	assert.Len(t, f.router.received(2, realtime.EventNotification), 1)
}

func TestIngestPostCreatedNotifiesFollowersOnly(t *testing.T) {
	f := newFixture(t)
	content, err := f.service.CreateContent(t.Context(), 1, models.DefaultContentType)
	require.NoError(t, err)

	result, err := f.service.Ingest(t.Context(), &models.Event{
		EventID:   "post-1",
		Type:      models.EventPostCreated,
		ActorID:   1,
		ContentID: &content.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3, 4}, result.Recipients)
	assert.Equal(t, 3, result.Created)

	own, err := f.service.ListNotifications(t.Context(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, own)

	// the author and every follower see the post itself
	for _, id := range []uint{1, 2, 3, 4} {
		posts := f.router.received(id, realtime.EventPosts)
		require.Len(t, posts, 1, "user %d", id)
		c, ok := posts[0].Data.(*models.Content)
		require.True(t, ok)
		assert.Equal(t, content.ID, c.ID)
	}
	assert.Empty(t, f.router.received(1, realtime.EventNotification))
}

func TestIngestPostCreatedUsesLatestContent(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CreateContent(t.Context(), 2, "post")
	require.NoError(t, err)
	latest, err := f.service.CreateContent(t.Context(), 2, "reel")
	require.NoError(t, err)

	result, err := f.service.Ingest(t.Context(), &models.Event{EventID: "post-2", Type: models.EventPostCreated, ActorID: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, result.Recipients)

	posts := f.router.received(2, realtime.EventPosts)
	require.Len(t, posts, 1)
	assert.Equal(t, latest.ID, posts[0].Data.(*models.Content).ID)
}

func TestIngestLikeNotifiesAuthor(t *testing.T) {
	f := newFixture(t)
	content, err := f.service.CreateContent(t.Context(), 1, "post")
	require.NoError(t, err)

	result, err := f.service.Ingest(t.Context(), &models.Event{
		EventID:   "like-2-1",
		Type:      models.EventLike,
		ActorID:   2,
		ContentID: &content.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, result.Recipients)
	assert.Equal(t, 1, result.Created)

	updates := f.router.broadcasts(realtime.EventPostsUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, 1, updates[0].Data.(*models.Content).LikeCount)

	list, err := f.service.ListNotifications(t.Context(), 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ContentID)
	assert.Equal(t, content.ID, *list[0].ContentID)
}

func TestIngestLikeOfMissingContent(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(t.Context(), &models.Event{
		EventID:   "like-missing",
		Type:      models.EventLike,
		ActorID:   2,
		ContentID: uintPtr(999),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Recipients)
	assert.Empty(t, f.router.broadcasts(realtime.EventPostsUpdate))
}

func TestIngestMentionDeduplicatesRecipients(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(t.Context(), &models.Event{
		EventID:          "mention-dup",
		Type:             models.EventMention,
		ActorID:          1,
		MentionedUserIDs: []uint{3, 2, 3, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3}, result.Recipients)
	assert.Equal(t, 2, result.Created)
}

func TestIngestUnsupportedType(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(t.Context(), &models.Event{EventID: "x-1", Type: "share", ActorID: 1})
	require.NoError(t, err)
	assert.Empty(t, result.Recipients)
	assert.Zero(t, result.Created)
}

func TestIngestRejectsInvalidEvents(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		event *models.Event
		field string
	}{
		{"missing event id", &models.Event{Type: models.EventFollow, ActorID: 1}, "event_id"},
		{"missing type", &models.Event{EventID: "e", ActorID: 1}, "type"},
		{"missing actor", &models.Event{EventID: "e", Type: models.EventFollow}, "actor_id"},
		{"like without content", &models.Event{EventID: "e", Type: models.EventLike, ActorID: 1}, "content_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Ingest(t.Context(), tt.event)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, len(verr.Fields))
			for i, fe := range verr.Fields {
				fields[i] = fe.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestIngestStoresMergedMetadata(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(t.Context(), &models.Event{
		EventID:      "follow-meta",
		Type:         models.EventFollow,
		ActorID:      4,
		TargetUserID: uintPtr(1),
		Metadata:     map[string]any{"source": "profile"},
	})
	require.NoError(t, err)

	list, err := f.service.ListNotifications(t.Context(), 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(list[0].Metadata, &meta))
	assert.Equal(t, "profile", meta["source"])
	assert.Equal(t, float64(1), meta["target_user_id"])
	assert.Nil(t, meta["content_id"])
}

func TestDeliveryStaysWithRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(t.Context(), &models.Event{
		EventID:      "follow-4-2",
		Type:         models.EventFollow,
		ActorID:      4,
		TargetUserID: uintPtr(2),
	})
	require.NoError(t, err)

	assert.Len(t, f.router.received(2, realtime.EventNotification), 1)
	for _, id := range []uint{1, 3, 4} {
		assert.Empty(t, f.router.received(id, realtime.EventNotification), "user %d", id)
	}
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Ingest(t.Context(), &models.Event{EventID: "m-read", Type: models.EventMention, ActorID: 1, MentionedUserIDs: []uint{2}})
	require.NoError(t, err)

	list, err := f.service.ListNotifications(t.Context(), 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	unread, err := f.service.UnreadCount(t.Context(), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	for range 2 {
		n, err := f.service.MarkRead(t.Context(), list[0].ID)
		require.NoError(t, err)
		assert.True(t, n.Read)
	}

	unread, err = f.service.UnreadCount(t.Context(), 2)
	require.NoError(t, err)
	assert.Zero(t, unread)

	_, err = f.service.MarkRead(t.Context(), 9999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestListNotificationsOrderAndLimits(t *testing.T) {
	f := newFixture(t, WithListLimits(3, 4))
	for i := range 6 {
		_, err := f.service.Ingest(t.Context(), &models.Event{
			EventID:          fmt.Sprintf("m-%d", i),
			Type:             models.EventMention,
			ActorID:          1,
			MentionedUserIDs: []uint{2},
		})
		require.NoError(t, err)
	}

	list, err := f.service.ListNotifications(t.Context(), 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "m-5", list[0].EventID)
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i-1].ID, list[i].ID)
	}

	list, err = f.service.ListNotifications(t.Context(), 2, 100)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	list, err = f.service.ListNotifications(t.Context(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.service.ListNotifications(t.Context(), 3, 0)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestConcurrentReplayCreatesOneRowPerRecipient(t *testing.T) {
	f := newFixture(t)
	ev := models.Event{EventID: "burst", Type: models.EventMention, ActorID: 1, MentionedUserIDs: []uint{2, 3, 4}}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := ev
			result, err := f.service.Ingest(t.Context(), &e)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			created += result.Created
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, 3, countRows(t, f, "burst"))
}

func TestFollowRejectsSelfAndIgnoresDuplicates(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Follow(t.Context(), 3, 3)
	assert.ErrorIs(t, err, repositories.ErrSelfFollow)

	inserted, err := f.service.Follow(t.Context(), 3, 2)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = f.service.Follow(t.Context(), 3, 2)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestSeedIsRepeatable(t *testing.T) {
	f := newFixture(t)
	result, err := f.service.Seed(t.Context())
	require.NoError(t, err)
	assert.Equal(t, &models.SeedResult{InsertedUsers: 0, InsertedFollows: 0, TotalUsers: 4}, result)

	users, err := f.service.ListUsers(t.Context())
	require.NoError(t, err)
	require.Len(t, users, len(models.SeedUserNames))
	assert.Equal(t, "Aditi", users[0].Name)
}

func TestWithScorer(t *testing.T) {
	f := newFixture(t, WithScorer(ScorerFunc(func(n *models.Notification) int64 {
		return int64(n.RecipientID) * 10
	})))

	_, err := f.service.Ingest(t.Context(), &models.Event{EventID: "scored", Type: models.EventMention, ActorID: 1, MentionedUserIDs: []uint{3}})
	require.NoError(t, err)

	pushed := f.router.received(3, realtime.EventNotification)
	require.Len(t, pushed, 1)
	assert.EqualValues(t, 30, pushed[0].Data.(models.Notification).Score)
}

func TestFirstSeedReportsInserts(t *testing.T) {
	db := newTestDB(t)
	service := NewService(Dependencies{
		Users:         repositories.NewPostgresUserRepository(db),
		Follows:       repositories.NewPostgresFollowRepository(db),
		Content:       repositories.NewPostgresContentRepository(db),
		Notifications: repositories.NewPostgresNotificationRepository(db),
		Router:        &recordingRouter{},
		Logger:        discardLogger(),
	})

	result, err := service.Seed(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 4, result.InsertedUsers)
	assert.EqualValues(t, len(models.SeedFollows), result.InsertedFollows)
	assert.EqualValues(t, 4, result.TotalUsers)
}

func TestGetUserCountsFollowers(t *testing.T) {
	f := newFixture(t)

	profile, err := f.service.GetUser(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Aditi", profile.User.Name)
	assert.EqualValues(t, 3, profile.Followers)

	_, err = f.service.GetUser(t.Context(), 99)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestIsFollowing(t *testing.T) {
	f := newFixture(t)

	following, err := f.service.IsFollowing(t.Context(), 2, 1)
	require.NoError(t, err)
	assert.True(t, following)

	following, err = f.service.IsFollowing(t.Context(), 1, 3)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestEventNotificationsListsEveryRecipient(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Ingest(t.Context(), &models.Event{EventID: "m-rows", Type: models.EventMention, ActorID: 1, MentionedUserIDs: []uint{4, 2}})
	require.NoError(t, err)

	rows, err := f.service.EventNotifications(t.Context(), "m-rows")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(2), rows[0].RecipientID)
	assert.Equal(t, uint(4), rows[1].RecipientID)

	rows, err = f.service.EventNotifications(t.Context(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
