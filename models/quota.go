package models

import "time"

// ResourceKind names a rate-limited resource
type ResourceKind string

const (
	ResourceGiftBox   ResourceKind = "gift_box"
	ResourceGameStart ResourceKind = "game_start"
)

// QuotaWindow is one rolling consumption window per (wallet, resource).
// Expiry is lazy: a row whose period has ended counts as fully replenished
// until the next consumption rewrites period_start.
// Invariant: 0 <= units_consumed <= cap.
//
// No soft delete here: the retention sweep must remove the row from the
// ux_wallet_resource unique index entirely, so the next consumption can
// recreate the window lazily. A tombstone would block that insert forever.
type QuotaWindow struct {
	ID            string       `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string       `gorm:"uniqueIndex:ux_wallet_resource,priority:1;not null" json:"wallet_address"`
	Resource      ResourceKind `gorm:"uniqueIndex:ux_wallet_resource,priority:2;not null" json:"resource"`

	PeriodStart   time.Time `gorm:"not null" json:"period_start"`
	UnitsConsumed int       `gorm:"not null;default:0" json:"units_consumed"`
	Cap           int       `gorm:"not null" json:"cap"`
	PeriodSeconds int64     `gorm:"not null" json:"period_seconds"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PeriodEnd returns the instant the stored period lapses.
func (q *QuotaWindow) PeriodEnd() time.Time {
	return q.PeriodStart.Add(time.Duration(q.PeriodSeconds) * time.Second)
}

// Expired reports whether the stored period has lapsed at the given instant.
func (q *QuotaWindow) Expired(now time.Time) bool {
	return !now.Before(q.PeriodEnd())
}
