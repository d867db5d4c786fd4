// services/maintenance.go
package services

import (
	"log"
	"time"

	"gift-claim-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// quotaRowRetention keeps long-dead windows around for a while for support
// queries before the sweep drops them. Expiry itself is lazy — this sweep is
// purely housekeeping, correctness never depends on it.
const quotaRowRetention = 7 * 24 * time.Hour

// pruneExpiredAuthTokens drops used-auth tokens whose retention has passed.
// A nonce that old fails the replay check by absence of its fused key anyway.
func pruneExpiredAuthTokens(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expires_at <= ?", now).Delete(&models.UsedAuthToken{})
	return res.RowsAffected, res.Error
}

// sweepStaleQuotaWindows drops windows untouched for longer than the
// retention. The delete is permanent — the row has to leave the unique index
// so a returning wallet's next consumption can recreate it.
func sweepStaleQuotaWindows(db *gorm.DB, now time.Time) (int64, error) {
	cutoff := now.Add(-quotaRowRetention)
	res := db.Where("updated_at < ?", cutoff).Delete(&models.QuotaWindow{})
	return res.RowsAffected, res.Error
}

// StartMaintenance schedules the retention sweeps: hourly prune of expired
// used-auth tokens, daily prune of quota windows whose period ended long ago.
func StartMaintenance(db *gorm.DB) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			pruned, err := pruneExpiredAuthTokens(db, time.Now().UTC())
			if err != nil {
				log.Printf("[Maintenance] token prune failed: %v", err)
				return
			}
			if pruned > 0 {
				log.Printf("🧹 Pruned %d expired auth token(s)", pruned)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			swept, err := sweepStaleQuotaWindows(db, time.Now().UTC())
			if err != nil {
				log.Printf("[Maintenance] quota sweep failed: %v", err)
				return
			}
			if swept > 0 {
				log.Printf("🧹 Swept %d stale quota window(s)", swept)
			}
		}),
	)
}
