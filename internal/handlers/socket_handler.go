package handlers

import (
	"log/slog"

	"github.com/insyd/notify/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

// SocketHandler joins websocket connections to the realtime hub
type SocketHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

// NewSocketHandler creates a new SocketHandler
func NewSocketHandler(hub *realtime.Hub, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{hub: hub, logger: logger.With("component", "handlers.SocketHandler")}
}

// RegisterSocketRoutes registers the websocket route
func (h *SocketHandler) RegisterSocketRoutes(g *echo.Group) {
	g.GET("/ws", h.Connect)
}

// Connect upgrades the request and joins it under ?user_id
func (h *SocketHandler) Connect(c echo.Context) error {
	userID, err := parseID(c.QueryParam("user_id"), "user_id")
	if err != nil {
		return err
	}
	// the upgrader has already written an error response on failure
	if err := h.hub.ServeWS(c.Response(), c.Request(), userID); err != nil {
		h.logger.Debug("websocket upgrade failed", "user_id", userID, "error", err)
	}
	return nil
}
