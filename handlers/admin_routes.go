// handlers/admin_routes.go
package handlers

import (
	"log"
	"time"

	"gift-claim-system/models"
	"gift-claim-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupAdminRoutes wires partner-campaign management and the voucher audit
// listing behind the admin token.
func SetupAdminRoutes(
	app *fiber.App,
	adminAuth fiber.Handler,
	boosts *services.BoostService,
	vouchers *services.VoucherService,
	db *gorm.DB,
) {
	adminGroup := app.Group("/admin", adminAuth)

	adminGroup.Post("/campaigns", func(c *fiber.Ctx) error {
		var req struct {
			Name            string `json:"name"`
			BonusUnits      int    `json:"bonus_units"`
			CooldownSeconds int64  `json:"cooldown_seconds"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid request body",
			})
		}

		campaign, err := boosts.CreateCampaign(req.Name, req.BonusUnits, time.Duration(req.CooldownSeconds)*time.Second)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(campaign)
	})

	adminGroup.Get("/campaigns", func(c *fiber.Ctx) error {
		campaigns, err := boosts.ListCampaigns()
		if err != nil {
			log.Printf("❌ [ADMIN] list campaigns failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "temporary storage failure, please retry",
			})
		}
		return c.JSON(campaigns)
	})

	adminGroup.Patch("/campaigns/:id", func(c *fiber.Ctx) error {
		var req struct {
			Active bool `json:"active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid request body",
			})
		}

		campaign, err := boosts.SetCampaignActive(c.Params("id"), req.Active)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "campaign not found",
			})
		}
		return c.JSON(campaign)
	})

	adminGroup.Get("/vouchers", func(c *fiber.Ctx) error {
		wallet := c.Query("wallet")
		query := db.Model(&models.VoucherRecord{}).Order("issued_at DESC").Limit(200)
		if wallet != "" {
			normalized, err := services.NormalizeWallet(wallet)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"error":   "malformed wallet address",
				})
			}
			query = query.Where("wallet_address = ?", normalized)
		}

		var records []models.VoucherRecord
		if err := query.Find(&records).Error; err != nil {
			log.Printf("❌ [ADMIN] list vouchers failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "temporary storage failure, please retry",
			})
		}
		return c.JSON(fiber.Map{
			"signer":   vouchers.SignerAddress().Hex(),
			"vouchers": records,
		})
	})
}
