package models

import (
	"time"

	"gorm.io/gorm"
)

// Player is the ledger identity. WalletAddress is the canonical key for every
// quota/boost/voucher record; Fid is a secondary lookup field only and is never
// used as a write key (avoids split ledger state when the two disagree).
type Player struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string `gorm:"uniqueIndex;not null" json:"wallet_address"` // lowercased 0x hex
	Fid           int64  `gorm:"index" json:"fid,omitempty"`                 // Farcaster id, secondary lookup
	Username      string `json:"username,omitempty"`

	// Best game score so far; skill signal for the reward draw.
	BestScore int64 `gorm:"default:0" json:"best_score"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
