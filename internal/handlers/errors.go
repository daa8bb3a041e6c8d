package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/insyd/notify/backend/internal/fanout"
	"github.com/insyd/notify/backend/internal/repositories"
	"github.com/insyd/notify/backend/validators"
	"github.com/labstack/echo/v4"
)

// httpError translates service errors into echo errors
func httpError(err error) error {
	var verr *fanout.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "missing fields", "fields": verr.Fields})
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repositories.ErrSelfFollow):
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
}

// bindAndValidate decodes the request body into req and validates it
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "missing fields", "fields": validators.Describe(err)})
	}
	return nil
}

// parseID reads a positive integer id; an empty value is reported as missing
func parseID(raw, name string) (uint, error) {
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": name + " required"})
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "Invalid " + name})
	}
	return uint(id), nil
}

// parseLimit reads the optional limit query parameter; 0 means default
func parseLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
	}
	return limit, nil
}
