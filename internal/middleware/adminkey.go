package middleware

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/studyhub/studyhub-api/internal/response"
	"github.com/gofiber/fiber/v2"
)

// AdminKeyProtected guards operator endpoints with a shared key supplied in
// the X-Admin-Key header. The configured key is injected here rather than
// read from a global so the check is testable in isolation.
//
// An unconfigured key means the endpoint is unavailable, never open. The
// comparison runs over sha256 digests with crypto/subtle so that neither key
// length nor the position of the first differing byte shows up in response
// timing.
func AdminKeyProtected(configuredKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if configuredKey == "" {
			return response.ServiceUnavailable(c, "Admin API key is not configured")
		}

		supplied := c.Get("X-Admin-Key")
		if supplied == "" {
			return response.ValidationError(c, map[string]string{
				"X-Admin-Key": "X-Admin-Key header is required",
			})
		}

		suppliedSum := sha256.Sum256([]byte(supplied))
		configuredSum := sha256.Sum256([]byte(configuredKey))
		if subtle.ConstantTimeCompare(suppliedSum[:], configuredSum[:]) != 1 {
			return response.Forbidden(c, "Invalid admin API key")
		}

		return c.Next()
	}
}
