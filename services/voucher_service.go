// services/voucher_service.go
package services

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"time"

	"gift-claim-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tokenDecimals = 18

var (
	ErrNoVoucherForMiss = errors.New("cannot issue a voucher for a miss outcome")
	ErrInvalidAddress   = errors.New("malformed wallet or token address")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrDuplicateGrant   = errors.New("voucher already issued for this claim")
)

// weiMultiplier = 10^18, integer arithmetic only — float scaling would drift
// on large amounts.
var weiMultiplier = new(big.Int).Exp(big.NewInt(10), big.NewInt(tokenDecimals), nil)

// VoucherService signs reward grants the redemption contract will honor.
// The message is keccak256(wallet ++ tokenAddress ++ amountWei) wrapped in the
// Ethereum personal-sign prefix, so the contract recovers the signer with
// ecrecover over toEthSignedMessageHash. The private key never leaves this
// struct and is never logged.
type VoucherService struct {
	DB  *gorm.DB
	Now func() time.Time

	key        *ecdsa.PrivateKey
	signer     common.Address
	tokenAddrs map[models.TokenType]common.Address
}

// NewVoucherService loads the signing key and token addresses from the
// environment. Missing or malformed config is fatal at startup — there is no
// per-request fallback for a signer.
func NewVoucherService(db *gorm.DB) *VoucherService {
	keyHex := strings.TrimPrefix(os.Getenv("REWARD_SIGNER_KEY"), "0x")
	if keyHex == "" {
		log.Fatal("❌ REWARD_SIGNER_KEY is not set — service cannot sign vouchers")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		log.Fatal("❌ REWARD_SIGNER_KEY is not a valid secp256k1 private key")
	}

	tokenAddrs := make(map[models.TokenType]common.Address)
	for _, t := range []models.TokenType{models.TokenDegen, models.TokenNoice, models.TokenPepe, models.TokenBased} {
		envKey := "TOKEN_ADDRESS_" + strings.ToUpper(string(t))
		raw := os.Getenv(envKey)
		if !common.IsHexAddress(raw) {
			log.Fatalf("❌ %s is missing or not a valid address", envKey)
		}
		tokenAddrs[t] = common.HexToAddress(raw)
	}

	return &VoucherService{
		DB:         db,
		Now:        time.Now,
		key:        key,
		signer:     crypto.PubkeyToAddress(key.PublicKey),
		tokenAddrs: tokenAddrs,
	}
}

// SignerAddress is the address the redemption contract must be configured
// to trust.
func (s *VoucherService) SignerAddress() common.Address {
	return s.signer
}

// TokenAddress resolves the on-chain contract address for a token kind.
func (s *VoucherService) TokenAddress(t models.TokenType) (common.Address, bool) {
	addr, ok := s.tokenAddrs[t]
	return addr, ok
}

// Issue signs a (wallet, token, amount) grant and records it. The nonce ties
// the voucher to a single claim event: a second Issue with the same
// (wallet, nonce) fails with ErrDuplicateGrant at insert time. Quota checks
// are the caller's job — Issue has no hidden state beyond the issuance record.
func (s *VoucherService) Issue(wallet string, tokenType models.TokenType, amount int64, nonce string) (*models.VoucherRecord, error) {
	if tokenType == models.TokenNone {
		return nil, ErrNoVoucherForMiss
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !common.IsHexAddress(wallet) {
		return nil, ErrInvalidAddress
	}
	tokenAddr, ok := s.tokenAddrs[tokenType]
	if !ok {
		return nil, fmt.Errorf("no token address configured for %q: %w", tokenType, ErrInvalidAddress)
	}

	walletAddr := common.HexToAddress(wallet)
	amountWei := new(big.Int).Mul(big.NewInt(amount), weiMultiplier)

	// Fixed-layout packed encoding: address(20) ++ address(20) ++ uint256(32),
	// matching abi.encodePacked on the contract side.
	payload := make([]byte, 0, 72)
	payload = append(payload, walletAddr.Bytes()...)
	payload = append(payload, tokenAddr.Bytes()...)
	payload = append(payload, common.LeftPadBytes(amountWei.Bytes(), 32)...)

	digest := crypto.Keccak256(payload)
	prefixed := crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), digest)

	sig, err := crypto.Sign(prefixed, s.key)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	sig[64] += 27 // recovery id → Ethereum V convention

	record := &models.VoucherRecord{
		ID:            uuid.NewString(),
		WalletAddress: strings.ToLower(walletAddr.Hex()),
		Nonce:         nonce,
		TokenType:     tokenType,
		Amount:        amount,
		AmountWei:     amountWei.String(),
		MessageHash:   hexutil.Encode(digest),
		Signature:     hexutil.Encode(sig),
		IssuedAt:      s.Now().UTC(),
	}

	if err := s.DB.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateGrant
		}
		return nil, err
	}

	return record, nil
}
