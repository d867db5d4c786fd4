package services

import (
	"testing"
	"time"

	"gift-claim-system/models"

	"github.com/google/uuid"
)

func TestPruneExpiredAuthTokens(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	expired := models.UsedAuthToken{
		ID:          uuid.NewString(),
		TokenHash:   "stale-hash",
		FirstSeenAt: now.Add(-25 * time.Hour),
		ExpiresAt:   now.Add(-1 * time.Hour),
	}
	live := models.UsedAuthToken{
		ID:          uuid.NewString(),
		TokenHash:   "fresh-hash",
		FirstSeenAt: now.Add(-1 * time.Hour),
		ExpiresAt:   now.Add(23 * time.Hour),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&live).Error; err != nil {
		t.Fatal(err)
	}

	pruned, err := pruneExpiredAuthTokens(db, now)
	if err != nil {
		t.Fatal(err)
	}
	if pruned != 1 {
		t.Fatalf("pruned %d tokens, want 1", pruned)
	}

	var remaining []models.UsedAuthToken
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].TokenHash != "fresh-hash" {
		t.Fatalf("surviving tokens = %+v, want only fresh-hash", remaining)
	}
}

func TestSweepStaleQuotaWindows(t *testing.T) {
	svc := NewQuotaService(newTestDB(t))

	const (
		idleWallet   = "0x2222222222222222222222222222222222222222"
		activeWallet = "0x3333333333333333333333333333333333333333"
	)

	for _, wallet := range []string{idleWallet, activeWallet} {
		if _, err := svc.TryConsume(wallet, models.ResourceGiftBox, 1); err != nil {
			t.Fatal(err)
		}
	}

	// Backdate the idle wallet's row past the retention horizon.
	now := time.Now().UTC()
	if err := svc.DB.Model(&models.QuotaWindow{}).
		Where("wallet_address = ?", idleWallet).
		Update("updated_at", now.Add(-quotaRowRetention-24*time.Hour)).Error; err != nil {
		t.Fatal(err)
	}

	swept, err := sweepStaleQuotaWindows(svc.DB, now)
	if err != nil {
		t.Fatal(err)
	}
	if swept != 1 {
		t.Fatalf("swept %d windows, want 1", swept)
	}

	// The stale row must be gone from the table outright, not tombstoned —
	// a tombstone would still occupy the unique index.
	var count int64
	svc.DB.Model(&models.QuotaWindow{}).Where("wallet_address = ?", idleWallet).Count(&count)
	if count != 0 {
		t.Fatalf("swept wallet still has %d row(s)", count)
	}
	svc.DB.Model(&models.QuotaWindow{}).Where("wallet_address = ?", activeWallet).Count(&count)
	if count != 1 {
		t.Fatal("active wallet's window was swept")
	}

	// A swept wallet's next consumption recreates the window lazily with a
	// full fresh quota.
	res, err := svc.TryConsume(idleWallet, models.ResourceGiftBox, 1)
	if err != nil {
		t.Fatalf("consume after sweep: %v", err)
	}
	if !res.Granted || res.Consumed != 1 || res.Remaining != 2 {
		t.Fatalf("consume after sweep: granted=%v consumed=%d remaining=%d", res.Granted, res.Consumed, res.Remaining)
	}
}
