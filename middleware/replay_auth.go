// middleware/replay_auth.go
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"time"

	"gift-claim-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// usedTokenRetention is how long a seen fused key is remembered. A nonce
// older than this could never be legitimately replayed and accepted anyway.
const usedTokenRetention = 24 * time.Hour

// ReplayAuthMiddleware gates mutating endpoints behind a one-time proof of
// the shared secret: the caller sends a random nonce and
// sha256(secret || nonce). The seen-token record lives in the shared DB, so
// the replay guarantee holds across any number of server processes — the
// unique index insert is the single source of truth.
func ReplayAuthMiddleware(db *gorm.DB) fiber.Handler {
	secret := os.Getenv("CLAIM_AUTH_SECRET")
	if secret == "" {
		log.Fatal("❌ CLAIM_AUTH_SECRET is not set — service cannot authenticate requests")
	}

	return func(c *fiber.Ctx) error {
		nonce := c.Get("x-random-string")
		fusedKey := c.Get("x-fused-key")
		if nonce == "" || fusedKey == "" {
			return authFailed(c)
		}

		expected := sha256.Sum256([]byte(secret + nonce))
		expectedHex := hex.EncodeToString(expected[:])
		if subtle.ConstantTimeCompare([]byte(expectedHex), []byte(fusedKey)) != 1 {
			log.Printf("🚫 [REPLAY_AUTH] fused key mismatch for %s", c.Path())
			return authFailed(c)
		}

		tokenHash := sha256.Sum256([]byte(fusedKey))
		now := time.Now().UTC()
		record := models.UsedAuthToken{
			ID:          uuid.NewString(),
			TokenHash:   hex.EncodeToString(tokenHash[:]),
			FirstSeenAt: now,
			ExpiresAt:   now.Add(usedTokenRetention),
		}
		if err := db.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Printf("🚫 [REPLAY_AUTH] replayed token for %s", c.Path())
				return authFailed(c)
			}
			// fail closed — a store failure must never grant access
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "internal error",
			})
		}

		c.Locals("auth_nonce", nonce)
		return c.Next()
	}
}

// authFailed deliberately reports the same message for every failure mode so
// callers cannot learn which check tripped.
func authFailed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "authentication failed",
	})
}
