package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gift-claim-system/handlers"
	"gift-claim-system/middleware"
	"gift-claim-system/models"
	"gift-claim-system/services"
	"gift-claim-system/utils"
	"gift-claim-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// CORS for the mini-app host origins
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Wallet-Address, X-Farcaster-Id, X-Username, X-Admin-Token, x-random-string, x-fused-key",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError turns driver unique-violations into gorm.ErrDuplicatedKey,
	// which the replay gate and voucher issuer rely on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.QuotaWindow{},
		&models.VoucherRecord{},
		&models.BoostGrant{},
		&models.PartnerCampaign{},
		&models.UsedAuthToken{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	playerService := services.NewPlayerService(db)
	quotaService := services.NewQuotaService(db)
	boostService := services.NewBoostService(db, quotaService)
	voucherService := services.NewVoucherService(db)

	rewardTable, err := services.RewardTableFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	rewardGenerator := services.NewRewardGenerator(rewardTable)

	identity := middleware.IdentityMiddleware(playerService)
	replayGate := middleware.ReplayAuthMiddleware(db)
	adminAuth := middleware.AdminAuthMiddleware()

	handlers.SetupClaimRoutes(app, identity, replayGate, playerService, quotaService, rewardGenerator, voucherService)
	handlers.SetupBoostRoutes(app, identity, replayGate, boostService)
	handlers.SetupAdminRoutes(app, adminAuth, boostService, voucherService, db)

	services.StartMaintenance(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if utils.R2Configured() {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		exportWorker := workers.NewAuditExportWorker(db, 24*time.Hour)
		go exportWorker.Run(ctx, 1*time.Hour)
		log.Println("✅ Voucher audit export worker running (hourly)")
	} else {
		log.Println("⚠️  R2 not configured — voucher audit export disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Reward signer: %s", voucherService.SignerAddress().Hex())
	log.Println("✅ Replay-guarded auth enforced on all mutating endpoints")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
