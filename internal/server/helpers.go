package server

import (
	"errors"

	"usof/internal/middleware"
	"usof/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten tells a handler its helper already sent the response.
// The handler returns nil so the fiber ErrorHandler leaves the body alone.
var errResponseWritten = errors.New("response already written")

// Pagination is a clamped limit/offset window.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination reads limit plus either offset or a 1-based page. An
// explicit offset wins over page.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	p := Pagination{Limit: c.QueryInt("limit", defaultLimit)}
	switch {
	case p.Limit <= 0:
		p.Limit = defaultLimit
	case p.Limit > maxPaginationLimit:
		p.Limit = maxPaginationLimit
	}

	if c.Query("offset") != "" {
		p.Offset = max(c.QueryInt("offset", 0), 0)
	} else if page := c.QueryInt("page", 1); page > 1 {
		p.Offset = (page - 1) * p.Limit
	}
	return p
}

// parseID reads a route parameter that must be a uuid. On failure it writes
// a 400 response and returns errResponseWritten; callers return nil.
func parseID(c *fiber.Ctx, param string) (string, error) {
	raw := c.Params(param)
	if _, err := uuid.Parse(raw); err != nil {
		_ = respondWithAppError(c, models.NewValidationError("Invalid "+param))
		return "", errResponseWritten
	}
	return raw, nil
}

// respondWithAppError maps err to its status through the error code. Errors
// that are not AppErrors become a 500 without leaking their text.
func respondWithAppError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed", "error", err)
		appErr = models.NewInternalError(err)
	}
	return models.RespondWithError(c, models.StatusFor(appErr.Code), appErr)
}

func badRequestBody(c *fiber.Ctx) error {
	return respondWithAppError(c, models.NewValidationError("Invalid request body"))
}

// currentUserID is the authenticated caller; empty on public routes.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func currentClaims(c *fiber.Ctx) *middleware.Claims {
	claims, _ := c.Locals("claims").(*middleware.Claims)
	return claims
}
