package models

import "time"

// BoostKind names a bonus action that tops up claim quota
type BoostKind string

const (
	BoostFollow        BoostKind = "follow"         // one-time latch
	BoostShare         BoostKind = "share"          // cooldown-gated
	BoostPartnerCollab BoostKind = "partner_collab" // cooldown-gated, per campaign
)

// BoostGrant tracks the latch/cooldown state for one (wallet, kind, campaign).
// CampaignCode is empty for non-partner kinds. State is derived lazily from
// LastGrantedAt; there is no sweep.
type BoostGrant struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex:ux_wallet_boost,priority:1;not null" json:"wallet_address"`
	Kind          BoostKind `gorm:"uniqueIndex:ux_wallet_boost,priority:2;not null" json:"kind"`
	CampaignCode  string    `gorm:"uniqueIndex:ux_wallet_boost,priority:3" json:"campaign_code,omitempty"`

	LastGrantedAt *time.Time `json:"last_granted_at,omitempty"`
	GrantCount    int64      `gorm:"default:0" json:"grant_count"`

	Timestamps
}

// PartnerCampaign is an admin-managed partner-collab boost definition.
// Code is the slugified name used in the grant URL.
type PartnerCampaign struct {
	ID              string `gorm:"primaryKey;type:uuid" json:"id"`
	Name            string `gorm:"not null" json:"name"`
	Code            string `gorm:"uniqueIndex;not null" json:"code"`
	BonusUnits      int    `gorm:"not null;default:1" json:"bonus_units"`
	CooldownSeconds int64  `gorm:"not null;default:86400" json:"cooldown_seconds"`
	Active          bool   `gorm:"default:true;index" json:"active"`

	Timestamps
}
