package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/gofiber/fiber/v2"
)

const problemContentType = "application/problem+json"

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	}, problemContentType)
}

// errorResponse maps a service error onto its status code. Storage and other
// internal failures are reported without details.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return problemResponse(c, fiber.StatusBadRequest, "validation_error", "Bad Request", err.Error())
	case errors.Is(err, common.ErrorUnknownCollection):
		return problemResponse(c, fiber.StatusNotFound, "unknown_collection", "Not Found", err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", "record not found")
	case errors.Is(err, common.ErrTokenExpired):
		return problemResponse(c, fiber.StatusUnauthorized, "token_expired", "Unauthorized", "token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return problemResponse(c, fiber.StatusUnauthorized, "invalid_token", "Unauthorized", "invalid token")
	default:
		return problemResponse(c, fiber.StatusInternalServerError, "internal_error", "Internal Server Error",
			"An internal error occurred")
	}
}
