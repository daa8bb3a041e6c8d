package handlers

import (
	"net/http"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/insyd/notify/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// ContentHandler handles content creation and listing
type ContentHandler struct {
	service *fanout.Service
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(service *fanout.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// RegisterContentRoutes registers content routes
func (h *ContentHandler) RegisterContentRoutes(g *echo.Group) {
	g.POST("/content", h.CreateContent)
	g.GET("/posts", h.GetPosts)
}

// CreateContent stores new content; clients send post_created afterwards
func (h *ContentHandler) CreateContent(c echo.Context) error {
	var req models.CreateContentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	content, err := h.service.CreateContent(c.Request().Context(), req.AuthorID, req.Type)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, content)
}

// GetPosts lists an author's content, most recent first.
// follower_id is accepted for older clients and means the same as author_id.
func (h *ContentHandler) GetPosts(c echo.Context) error {
	raw := c.QueryParam("author_id")
	if raw == "" {
		raw = c.QueryParam("follower_id")
	}
	authorID, err := parseID(raw, "author_id")
	if err != nil {
		return err
	}
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	contents, err := h.service.ListContent(c.Request().Context(), authorID, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, contents)
}
