package models

import "time"

// TokenType indicates which reward token a voucher pays out in
type TokenType string

const (
	TokenDegen TokenType = "degen"
	TokenNoice TokenType = "noice"
	TokenPepe  TokenType = "pepe"
	TokenBased TokenType = "based"
	TokenNone  TokenType = "none" // miss — never voucher-backed
)

// VoucherRecord is the immutable server-side record of a signed reward grant.
// The (wallet_address, nonce) unique index is the duplicate-grant latch: a
// second issue attempt for the same claim event fails at insert time. The
// on-chain contract keeps its own used-signature set; this row is the
// defense-in-depth layer, not the sole replay defense.
type VoucherRecord struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex:ux_wallet_nonce,priority:1;index;not null" json:"wallet_address"`
	Nonce         string    `gorm:"uniqueIndex:ux_wallet_nonce,priority:2;not null" json:"nonce"`
	TokenType     TokenType `gorm:"not null" json:"token_type"`

	Amount      int64  `gorm:"not null" json:"amount"`
	AmountWei   string `gorm:"not null" json:"amount_wei"` // decimal base units (amount * 10^18)
	MessageHash string `gorm:"not null" json:"message_hash"`
	Signature   string `gorm:"not null" json:"signature"`

	IssuedAt time.Time `gorm:"not null;index" json:"issued_at"`
	Archived bool      `gorm:"default:false;index" json:"archived"`
}
