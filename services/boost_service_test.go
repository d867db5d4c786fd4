package services

import (
	"errors"
	"testing"
	"time"

	"gift-claim-system/models"
)

func newBoostServiceAt(t *testing.T, start time.Time) (*BoostService, *QuotaService, *time.Time) {
	t.Helper()
	now := start
	db := newTestDB(t)
	quota := NewQuotaService(db)
	quota.Now = func() time.Time { return now }
	boosts := NewBoostService(db, quota)
	boosts.Now = func() time.Time { return now }
	return boosts, quota, &now
}

func TestFollowBoostIsOneTime(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	boosts, quota, now := newBoostServiceAt(t, t0)

	// Burn one claim so the top-up is visible.
	if _, err := quota.TryConsume(testWallet, models.ResourceGiftBox, 1); err != nil {
		t.Fatal(err)
	}

	res, err := boosts.Grant(testWallet, models.BoostFollow, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Quota.Remaining != 3 {
		t.Fatalf("after follow boost: remaining=%d, want 3", res.Quota.Remaining)
	}

	if _, err := boosts.Grant(testWallet, models.BoostFollow, ""); !errors.Is(err, ErrBoostNotAvailable) {
		t.Fatalf("second follow grant: %v", err)
	}

	// One-time stays latched forever, even much later.
	*now = t0.Add(100 * 24 * time.Hour)
	if _, err := boosts.Grant(testWallet, models.BoostFollow, ""); !errors.Is(err, ErrBoostNotAvailable) {
		t.Fatalf("follow grant after 100d: %v", err)
	}
}

func TestShareBoostCooldown(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	boosts, quota, now := newBoostServiceAt(t, t0)

	if _, err := boosts.Grant(testWallet, models.BoostShare, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := boosts.Grant(testWallet, models.BoostShare, ""); !errors.Is(err, ErrBoostNotAvailable) {
		t.Fatalf("grant inside cooldown: %v", err)
	}

	*now = t0.Add(23 * time.Hour)
	if _, err := boosts.Grant(testWallet, models.BoostShare, ""); !errors.Is(err, ErrBoostNotAvailable) {
		t.Fatalf("grant at 23h: %v", err)
	}

	*now = t0.Add(24*time.Hour + time.Minute)
	if _, err := quota.TryConsume(testWallet, models.ResourceGiftBox, 1); err != nil {
		t.Fatal(err)
	}
	res, err := boosts.Grant(testWallet, models.BoostShare, "")
	if err != nil {
		t.Fatalf("grant after cooldown: %v", err)
	}
	if res.Quota.Remaining != 3 {
		t.Fatalf("after share boost: remaining=%d, want 3", res.Quota.Remaining)
	}
}

func TestBoostTopUpClampsAtCap(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	boosts, _, _ := newBoostServiceAt(t, t0)

	// Nothing consumed: the boost is recorded but quota stays at the cap.
	res, err := boosts.Grant(testWallet, models.BoostFollow, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Quota.Remaining != 3 || res.Quota.Consumed != 0 {
		t.Fatalf("boost with full quota: %+v", res.Quota)
	}
}

func TestPartnerCampaignBoost(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	boosts, quota, now := newBoostServiceAt(t, t0)

	campaign, err := boosts.CreateCampaign("Degen Winter Drop", 2, 48*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if campaign.Code != "degen-winter-drop" {
		t.Fatalf("campaign code = %q", campaign.Code)
	}

	for i := 0; i < 3; i++ {
		if _, err := quota.TryConsume(testWallet, models.ResourceGiftBox, 1); err != nil {
			t.Fatal(err)
		}
	}

	res, err := boosts.Grant(testWallet, models.BoostPartnerCollab, campaign.Code)
	if err != nil {
		t.Fatal(err)
	}
	if res.Quota.Remaining != 2 {
		t.Fatalf("after partner boost: remaining=%d, want 2", res.Quota.Remaining)
	}

	if _, err := boosts.Grant(testWallet, models.BoostPartnerCollab, campaign.Code); !errors.Is(err, ErrBoostNotAvailable) {
		t.Fatalf("partner grant inside cooldown: %v", err)
	}

	*now = t0.Add(48*time.Hour + time.Minute)
	if _, err := boosts.Grant(testWallet, models.BoostPartnerCollab, campaign.Code); err != nil {
		t.Fatalf("partner grant after cooldown: %v", err)
	}

	if _, err := boosts.Grant(testWallet, models.BoostPartnerCollab, "no-such-campaign"); !errors.Is(err, ErrUnknownCampaign) {
		t.Fatalf("unknown campaign: %v", err)
	}

	// Deactivated campaigns stop granting.
	if _, err := boosts.SetCampaignActive(campaign.ID, false); err != nil {
		t.Fatal(err)
	}
	*now = t0.Add(200 * time.Hour)
	if _, err := boosts.Grant(testWallet, models.BoostPartnerCollab, campaign.Code); !errors.Is(err, ErrUnknownCampaign) {
		t.Fatalf("inactive campaign: %v", err)
	}
}

func TestBoostStatusLazyAvailability(t *testing.T) {
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	boosts, _, now := newBoostServiceAt(t, t0)

	statuses, err := boosts.Status(testWallet)
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range statuses {
		if !st.Available {
			t.Fatalf("fresh wallet: %s unavailable", st.Kind)
		}
	}

	if _, err := boosts.Grant(testWallet, models.BoostShare, ""); err != nil {
		t.Fatal(err)
	}

	statuses, err = boosts.Status(testWallet)
	if err != nil {
		t.Fatal(err)
	}
	var share *BoostStatus
	for i := range statuses {
		if statuses[i].Kind == models.BoostShare {
			share = &statuses[i]
		}
	}
	if share == nil || share.Available || share.NextAvailableAt == nil {
		t.Fatalf("share status after grant: %+v", share)
	}
	if !share.NextAvailableAt.Equal(t0.Add(24 * time.Hour)) {
		t.Fatalf("next available = %v", share.NextAvailableAt)
	}

	// No sweep: availability flips back purely by reading later.
	*now = t0.Add(25 * time.Hour)
	statuses, err = boosts.Status(testWallet)
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range statuses {
		if st.Kind == models.BoostShare && !st.Available {
			t.Fatal("share should be available again after cooldown")
		}
	}
}
