package handlers

import (
	"net/http"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/insyd/notify/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow HTTP requests
type FollowHandler struct {
	service *fanout.Service
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(service *fanout.Service) *FollowHandler {
	return &FollowHandler{service: service}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/follows", h.CreateFollow)
	g.GET("/follows", h.CheckFollow)
}

// CreateFollow stores a follow edge. It does not notify anyone: clients
// send a follow event for that.
func (h *FollowHandler) CreateFollow(c echo.Context) error {
	var req models.CreateFollowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	inserted, err := h.service.Follow(c.Request().Context(), req.FollowerID, req.FolloweeID)
	if err != nil {
		return httpError(err)
	}

	count := 0
	if inserted {
		count = 1
	}
	return c.JSON(http.StatusOK, echo.Map{"inserted": count})
}

// CheckFollow reports whether ?follower_id follows ?followee_id
func (h *FollowHandler) CheckFollow(c echo.Context) error {
	followerID, err := parseID(c.QueryParam("follower_id"), "follower_id")
	if err != nil {
		return err
	}
	followeeID, err := parseID(c.QueryParam("followee_id"), "followee_id")
	if err != nil {
		return err
	}

	following, err := h.service.IsFollowing(c.Request().Context(), followerID, followeeID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"following": following})
}
