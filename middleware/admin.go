// middleware/admin.go
package middleware

import (
	"crypto/subtle"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware validates the X-Admin-Token header against the
// configured service token. Campaign and audit endpoints only.
func AdminAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("ADMIN_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ ADMIN_SERVICE_TOKEN is not set — admin endpoints cannot authenticate")
	}

	return func(c *fiber.Ctx) error {
		token := c.Get("X-Admin-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			log.Printf("🚫 [ADMIN_AUTH] rejected admin request for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "authentication failed",
			})
		}
		return c.Next()
	}
}
