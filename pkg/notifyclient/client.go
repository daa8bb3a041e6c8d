package notifyclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/insyd/notify/backend/internal/models"
	"resty.dev/v3"
)

const (
	seedPath          = "/seed"
	eventsPath        = "/events"
	contentPath       = "/content"
	postsPath         = "/posts"
	followsPath       = "/follows"
	usersPath         = "/users"
	notificationsPath = "/notifications"
	markReadPath      = "/notifications/{id}/read"
	userPath          = "/users/{id}"
	eventRowsPath     = "/events/{id}/notifications"
)

// Client talks to the notification service over HTTP
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{client: client}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx)
}

func checkResponse(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%s %s: %s: %s", res.Request.Method, res.Request.URL, res.Status(), res.String())
	}
	return nil
}

// Seed creates the demo users and follow graph
func (c *Client) Seed(ctx context.Context) (*models.SeedResult, error) {
	var out struct {
		Result *models.SeedResult `json:"result"`
	}
	if err := checkResponse(c.r(ctx).SetResult(&out).Post(seedPath)); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// Emit submits one event
func (c *Client) Emit(ctx context.Context, ev *models.Event) (*models.IngestResult, error) {
	result := &models.IngestResult{}
	if err := checkResponse(c.r(ctx).SetBody(ev).SetResult(result).Post(eventsPath)); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateContent creates content authored by authorID
func (c *Client) CreateContent(ctx context.Context, authorID uint, contentType string) (*models.Content, error) {
	content := &models.Content{}
	req := models.CreateContentRequest{AuthorID: authorID, Type: contentType}
	if err := checkResponse(c.r(ctx).SetBody(req).SetResult(content).Post(contentPath)); err != nil {
		return nil, err
	}
	return content, nil
}

// Posts lists an author's content, most recent first
func (c *Client) Posts(ctx context.Context, authorID uint, limit int) ([]models.Content, error) {
	var contents []models.Content
	err := checkResponse(c.r(ctx).
		SetQueryParam("author_id", strconv.FormatUint(uint64(authorID), 10)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&contents).
		Get(postsPath))
	return contents, err
}

// IsFollowing reports whether followerID follows followeeID
func (c *Client) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var out struct {
		Following bool `json:"following"`
	}
	err := checkResponse(c.r(ctx).
		SetQueryParam("follower_id", strconv.FormatUint(uint64(followerID), 10)).
		SetQueryParam("followee_id", strconv.FormatUint(uint64(followeeID), 10)).
		SetResult(&out).
		Get(followsPath))
	return out.Following, err
}

// Follow stores a follow edge and reports whether it was new
func (c *Client) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var out struct {
		Inserted int `json:"inserted"`
	}
	req := models.CreateFollowRequest{FollowerID: followerID, FolloweeID: followeeID}
	if err := checkResponse(c.r(ctx).SetBody(req).SetResult(&out).Post(followsPath)); err != nil {
		return false, err
	}
	return out.Inserted > 0, nil
}

// User returns one user with their follower count
func (c *Client) User(ctx context.Context, id uint) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	err := checkResponse(c.r(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		SetResult(profile).
		Get(userPath))
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// EventNotifications lists the rows one event produced
func (c *Client) EventNotifications(ctx context.Context, eventID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := checkResponse(c.r(ctx).
		SetPathParam("id", eventID).
		SetResult(&notifications).
		Get(eventRowsPath))
	return notifications, err
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := checkResponse(c.r(ctx).SetResult(&users).Get(usersPath))
	return users, err
}

// Notifications lists a user's notifications, most recent first
func (c *Client) Notifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := checkResponse(c.r(ctx).
		SetQueryParam("user_id", strconv.FormatUint(uint64(userID), 10)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&notifications).
		Get(notificationsPath))
	return notifications, err
}

// MarkRead marks one notification as read
func (c *Client) MarkRead(ctx context.Context, id uint) error {
	return checkResponse(c.r(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		Post(markReadPath))
}
