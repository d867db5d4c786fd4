// handlers/boost_routes.go
package handlers

import (
	"errors"
	"log"

	"gift-claim-system/models"
	"gift-claim-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupBoostRoutes wires the bonus-grant endpoints. Grants mutate quota and
// therefore sit behind the replay gate; status is a pure read.
func SetupBoostRoutes(
	app *fiber.App,
	identity fiber.Handler,
	replayGate fiber.Handler,
	boosts *services.BoostService,
) {
	app.Get("/boost/status", identity, func(c *fiber.Ctx) error {
		wallet := c.Locals("wallet_address").(string)
		statuses, err := boosts.Status(wallet)
		if err != nil {
			log.Printf("❌ [BOOST] status failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "temporary storage failure, please retry",
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"boosts":  statuses,
		})
	})

	app.Post("/s/boost/follow", identity, replayGate, func(c *fiber.Ctx) error {
		return grantBoost(c, boosts, models.BoostFollow, "")
	})

	app.Post("/s/boost/share", identity, replayGate, func(c *fiber.Ctx) error {
		return grantBoost(c, boosts, models.BoostShare, "")
	})

	app.Post("/s/boost/partner/:code", identity, replayGate, func(c *fiber.Ctx) error {
		return grantBoost(c, boosts, models.BoostPartnerCollab, c.Params("code"))
	})
}

func grantBoost(c *fiber.Ctx, boosts *services.BoostService, kind models.BoostKind, campaignCode string) error {
	wallet := c.Locals("wallet_address").(string)

	result, err := boosts.Grant(wallet, kind, campaignCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBoostNotAvailable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   "boost not available yet",
			})
		case errors.Is(err, services.ErrUnknownCampaign):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "unknown or inactive partner campaign",
			})
		case errors.Is(err, services.ErrUnknownBoost):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "unknown boost kind",
			})
		}
		log.Printf("❌ [BOOST] grant %s failed: %v", kind, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "temporary storage failure, please retry",
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"kind":            result.Kind,
		"bonusUnits":      result.BonusUnits,
		"grantedAt":       result.GrantedAt,
		"claimsToday":     result.Quota.Consumed,
		"remainingClaims": result.Quota.Remaining,
	})
}
