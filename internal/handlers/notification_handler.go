package handlers

import (
	"net/http"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	service *fanout.Service
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *fanout.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.POST("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
}

// GetNotifications returns the most recent notifications of a user
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := parseID(c.QueryParam("user_id"), "user_id")
	if err != nil {
		return err
	}
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	notifications, err := h.service.ListNotifications(c.Request().Context(), userID, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, notifications)
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := parseID(c.QueryParam("user_id"), "user_id")
	if err != nil {
		return err
	}

	count, err := h.service.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks a notification as read; repeating it is fine
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	id, err := parseID(c.Param("id"), "notification id")
	if err != nil {
		return err
	}

	notification, err := h.service.MarkRead(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": 1, "notification": notification})
}
