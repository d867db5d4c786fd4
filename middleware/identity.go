// middleware/identity.go
package middleware

import (
	"log"
	"strconv"
	"strings"

	"gift-claim-system/services"

	"github.com/gofiber/fiber/v2"
)

// IdentityMiddleware extracts the player identity from request headers and
// ensures the player record exists. X-Wallet-Address is required — it is the
// canonical ledger key. X-Farcaster-Id is optional metadata.
func IdentityMiddleware(players *services.PlayerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet := strings.TrimSpace(c.Get("X-Wallet-Address"))
		if wallet == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "missing X-Wallet-Address header",
			})
		}

		var fid int64
		if raw := c.Get("X-Farcaster-Id"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"error":   "malformed X-Farcaster-Id header",
				})
			}
			fid = parsed
		}

		player, err := players.EnsurePlayer(wallet, fid, c.Get("X-Username"))
		if err != nil {
			if err == services.ErrInvalidWallet {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"error":   "malformed wallet address",
				})
			}
			log.Printf("❌ [IDENTITY] failed to ensure player for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "internal error",
			})
		}

		c.Locals("wallet_address", player.WalletAddress)
		c.Locals("player_fid", player.Fid)
		c.Locals("best_score", player.BestScore)
		return c.Next()
	}
}
