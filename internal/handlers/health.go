package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func HealthCheck(e echo.Context) error {
	return e.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"status":  "healthy",
		"service": "notify-api",
	})
}
