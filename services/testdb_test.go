package services

import (
	"testing"

	"gift-claim-system/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database with the same GORM settings as
// production (error translation on). A single pooled connection keeps sqlite
// happy under the concurrency tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Player{},
		&models.QuotaWindow{},
		&models.VoucherRecord{},
		&models.BoostGrant{},
		&models.PartnerCampaign{},
		&models.UsedAuthToken{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}
