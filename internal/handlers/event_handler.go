package handlers

import (
	"net/http"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/insyd/notify/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// EventHandler accepts activity events
type EventHandler struct {
	service *fanout.Service
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(service *fanout.Service) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterEventRoutes registers event ingest routes
func (h *EventHandler) RegisterEventRoutes(g *echo.Group) {
	g.POST("/events", h.Ingest)
	g.GET("/events/:id/notifications", h.GetEventNotifications)
}

// Ingest fans an event out and reports recipients and created rows
func (h *EventHandler) Ingest(c echo.Context) error {
	var ev models.Event
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	result, err := h.service.Ingest(c.Request().Context(), &ev)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetEventNotifications lists the rows an event produced, one per recipient
func (h *EventHandler) GetEventNotifications(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "event id required"})
	}

	notifications, err := h.service.EventNotifications(c.Request().Context(), eventID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, notifications)
}
