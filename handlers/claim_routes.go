// handlers/claim_routes.go
package handlers

import (
	"errors"
	"log"

	"gift-claim-system/models"
	"gift-claim-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupClaimRoutes wires the gift-box claim and game-attempt endpoints.
// Mutating routes sit behind the replay gate; status reads bypass it.
func SetupClaimRoutes(
	app *fiber.App,
	identity fiber.Handler,
	replayGate fiber.Handler,
	players *services.PlayerService,
	quota *services.QuotaService,
	rewards *services.RewardGenerator,
	vouchers *services.VoucherService,
) {
	app.Get("/claim/status", identity, func(c *fiber.Ctx) error {
		return quotaStatusResponse(c, quota, models.ResourceGiftBox, "claimsToday", "remainingClaims")
	})

	app.Get("/game/status", identity, func(c *fiber.Ctx) error {
		return quotaStatusResponse(c, quota, models.ResourceGameStart, "attemptsToday", "remainingAttempts")
	})

	app.Post("/s/claim/gift-box", identity, replayGate, func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)
		bestScore := c.Locals("best_score").(int64)
		nonce := c.Locals("auth_nonce").(string)

		res, err := quota.TryConsume(wallet, models.ResourceGiftBox, 1)
		if err != nil {
			return storeFailure(c, "gift box consume", err)
		}
		if !res.Granted {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":         false,
				"error":           "no gift box claims remaining this period",
				"claimsToday":     res.Consumed,
				"remainingClaims": res.Remaining,
				"periodEndsAt":    res.PeriodEndsAt,
			})
		}

		outcome := rewards.Generate(bestScore)
		if outcome.TokenType == models.TokenNone {
			return c.JSON(fiber.Map{
				"success":         true,
				"tokenType":       models.TokenNone,
				"amount":          0,
				"claimsToday":     res.Consumed,
				"remainingClaims": res.Remaining,
			})
		}

		voucher, err := vouchers.Issue(wallet, outcome.TokenType, outcome.Amount, nonce)
		if err != nil {
			if errors.Is(err, services.ErrDuplicateGrant) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"success": false,
					"error":   "reward already issued for this claim",
				})
			}
			return storeFailure(c, "voucher issue", err)
		}

		tokenAddr, _ := vouchers.TokenAddress(voucher.TokenType)
		return c.JSON(fiber.Map{
			"success":         true,
			"tokenType":       voucher.TokenType,
			"tokenAddress":    tokenAddr.Hex(),
			"amount":          voucher.Amount,
			"amountInWei":     voucher.AmountWei,
			"signature":       voucher.Signature,
			"claimsToday":     res.Consumed,
			"remainingClaims": res.Remaining,
		})
	})

	app.Post("/s/game/start", identity, replayGate, func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)

		res, err := quota.TryConsume(wallet, models.ResourceGameStart, 1)
		if err != nil {
			return storeFailure(c, "game start consume", err)
		}
		if !res.Granted {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":           false,
				"error":             "no game attempts remaining this period",
				"attemptsToday":     res.Consumed,
				"remainingAttempts": res.Remaining,
				"periodEndsAt":      res.PeriodEndsAt,
			})
		}

		return c.JSON(fiber.Map{
			"success":           true,
			"attemptsToday":     res.Consumed,
			"remainingAttempts": res.Remaining,
			"periodEndsAt":      res.PeriodEndsAt,
		})
	})

	app.Post("/s/game/score", identity, replayGate, func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)

		var req struct {
			Score int64 `json:"score"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid request body",
			})
		}
		if req.Score < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "score must be non-negative",
			})
		}

		best, err := players.RecordScore(wallet, req.Score)
		if err != nil {
			return storeFailure(c, "record score", err)
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"bestScore": best,
		})
	})
}

func quotaStatusResponse(c *fiber.Ctx, quota *services.QuotaService, resource models.ResourceKind, consumedKey, remainingKey string) error {
	wallet := c.Locals("wallet_address").(string)
	st, err := quota.Status(wallet, resource)
	if err != nil {
		return storeFailure(c, "quota status", err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		consumedKey:    st.Consumed,
		remainingKey:   st.Remaining,
		"periodEndsAt": st.PeriodEndsAt, // null when no live period
	})
}

// storeFailure fails closed: a store error is never treated as available
// quota, the client retries with backoff.
func storeFailure(c *fiber.Ctx, op string, err error) error {
	log.Printf("❌ [CLAIM] %s failed: %v", op, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "temporary storage failure, please retry",
	})
}
