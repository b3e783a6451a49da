package httpapi

import (
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/auth"
	"github.com/gofiber/fiber/v2"
)

// Authentication modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

type AuthConfig struct {
	Mode      string
	SecretKey []byte
}

// NewAuthMiddleware rejects requests without a valid bearer token. Health
// endpoints and the "none" mode pass through.
func NewAuthMiddleware(cfg AuthConfig, logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Mode == AuthModeNone {
			return c.Next()
		}

		path := c.Path()
		if path == "/healthz" || path == "/metrics" {
			return c.Next()
		}

		if c.Get(fiber.HeaderAuthorization) == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}

		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}

		subject, err := auth.SubjectFromToken(token, cfg.SecretKey)
		if err != nil {
			logger.Warn(c.UserContext(), "unauthorized request", "path", path, "method", c.Method(), "error", err)
			return errorResponse(c, err)
		}

		c.Locals("subject", subject)
		return c.Next()
	}
}
