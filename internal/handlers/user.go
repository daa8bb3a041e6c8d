package handlers

import (
	"net/http"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/labstack/echo/v4"
)

// UserHandler handles user listing and demo seeding
type UserHandler struct {
	service *fanout.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service *fanout.Service) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterUserRoutes registers user routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users", h.GetUsers)
	g.GET("/users/:id", h.GetUser)
	g.POST("/seed", h.Seed)
}

// GetUsers lists every user in id order
func (h *UserHandler) GetUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser returns one user with their follower count
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c.Param("id"), "user id")
	if err != nil {
		return err
	}

	profile, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Seed creates demo users and follows
func (h *UserHandler) Seed(c echo.Context) error {
	result, err := h.service.Seed(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "result": result})
}
