package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/insyd/notify/backend/internal/models"
	"github.com/insyd/notify/backend/internal/realtime"
	"github.com/insyd/notify/backend/pkg/config"
	"github.com/insyd/notify/backend/pkg/notifyclient"
	"github.com/insyd/notify/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := config.OpenSQL("sqlite", filepath.Join(t.TempDir(), "router.db"), "")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	hub := realtime.NewHub(realtime.DefaultSendBuffer, logger)
	t.Cleanup(hub.Close)

	cfg := &config.Config{ListDefaultLimit: 50, ListMaxLimit: 200}
	service, err := NewService(t.Context(), db, nil, hub, cfg, logger)
	require.NoError(t, err)

	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupRoutes(e, service, hub, logger)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestRejectsMalformedRequests(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"event without id", http.MethodPost, "/events", `{"type":"follow","actor_id":1}`, http.StatusBadRequest},
		{"event with bad json", http.MethodPost, "/events", `{"type":`, http.StatusBadRequest},
		{"like without content", http.MethodPost, "/events", `{"event_id":"l","type":"like","actor_id":1}`, http.StatusBadRequest},
		{"list without user", http.MethodGet, "/notifications", "", http.StatusBadRequest},
		{"list with bad user", http.MethodGet, "/notifications?user_id=abc", "", http.StatusBadRequest},
		{"list with bad limit", http.MethodGet, "/notifications?user_id=1&limit=x", "", http.StatusBadRequest},
		{"read unknown notification", http.MethodPost, "/notifications/404/read", "", http.StatusNotFound},
		{"content without author", http.MethodPost, "/content", `{}`, http.StatusBadRequest},
		{"self follow", http.MethodPost, "/follows", `{"follower_id":2,"followee_id":2}`, http.StatusBadRequest},
		{"posts without author", http.MethodGet, "/posts", "", http.StatusBadRequest},
		{"socket without user", http.MethodGet, "/ws", "", http.StatusBadRequest},
		{"unknown user", http.MethodGet, "/users/77", "", http.StatusNotFound},
		{"user with bad id", http.MethodGet, "/users/abc", "", http.StatusBadRequest},
		{"follow check without followee", http.MethodGet, "/follows?follower_id=1", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestMissingFieldsAreListed(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/events", `{"type":"mention"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error  string                  `json:"error"`
		Fields []validators.FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing fields", body.Error)
	assert.Len(t, body.Fields, 2)
}

func TestNotificationFlowOverHTTP(t *testing.T) {
	e := newTestServer(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	client := notifyclient.NewClient(srv.URL)
	defer client.Close()
	ctx := t.Context()

	seeded, err := client.Seed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, seeded.InsertedUsers)
	users, err := client.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)

	content, err := client.CreateContent(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultContentType, content.Type)

	result, err := client.Emit(ctx, &models.Event{
		EventID:   "post-http",
		Type:      models.EventPostCreated,
		ActorID:   1,
		ContentID: &content.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3, 4}, result.Recipients)
	assert.Equal(t, 3, result.Created)

	replay, err := client.Emit(ctx, &models.Event{EventID: "post-http", Type: models.EventPostCreated, ActorID: 1, ContentID: &content.ID})
	require.NoError(t, err)
	assert.Zero(t, replay.Created)

	notifications, err := client.Notifications(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "post_created", notifications[0].Type)
	assert.False(t, notifications[0].Read)

	require.NoError(t, client.MarkRead(ctx, notifications[0].ID))
	rec := do(e, http.MethodGet, "/notifications/unread-count?user_id=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())

	rec = do(e, http.MethodPut, "/notifications/"+strconv.FormatUint(uint64(notifications[0].ID), 10)+"/read", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	posts, err := client.Posts(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	inserted, err := client.Follow(ctx, 3, 2)
	require.NoError(t, err)
	assert.True(t, inserted)

	rec = do(e, http.MethodGet, "/posts?follower_id=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	following, err := client.IsFollowing(ctx, 3, 2)
	require.NoError(t, err)
	assert.True(t, following)

	profile, err := client.User(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Bharat", profile.User.Name)
	assert.EqualValues(t, 2, profile.Followers)

	rows, err := client.EventNotifications(ctx, "post-http")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint(2), rows[0].RecipientID)
}
