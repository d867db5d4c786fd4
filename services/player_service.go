// services/player_service.go
package services

import (
	"errors"
	"strings"

	"gift-claim-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidWallet = errors.New("malformed wallet address")

// PlayerService owns the identity records. Wallet address is the canonical
// key; fid is attached for lookup only and never drives a write path.
type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

// NormalizeWallet validates and lowercases a 0x address.
func NormalizeWallet(wallet string) (string, error) {
	if !common.IsHexAddress(wallet) {
		return "", ErrInvalidWallet
	}
	return strings.ToLower(common.HexToAddress(wallet).Hex()), nil
}

// EnsurePlayer returns the player row for a wallet, creating it on first
// contact (idempotent). A non-zero fid is attached when the row has none yet.
func (s *PlayerService) EnsurePlayer(wallet string, fid int64, username string) (*models.Player, error) {
	wallet, err := NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}

	var player models.Player
	err = s.DB.Where("wallet_address = ?", wallet).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		player = models.Player{
			ID:            uuid.NewString(),
			WalletAddress: wallet,
			Fid:           fid,
			Username:      username,
		}
		if createErr := s.DB.Create(&player).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				// lost the first-request race, the row exists now
				if err := s.DB.Where("wallet_address = ?", wallet).First(&player).Error; err != nil {
					return nil, err
				}
				return &player, nil
			}
			return nil, createErr
		}
		return &player, nil
	}
	if err != nil {
		return nil, err
	}

	if fid != 0 && player.Fid == 0 {
		if err := s.DB.Model(&player).Update("fid", fid).Error; err != nil {
			return nil, err
		}
		player.Fid = fid
	}
	return &player, nil
}

// FindByFid resolves a player via the secondary key. Used by read paths only.
func (s *PlayerService) FindByFid(fid int64) (*models.Player, error) {
	var player models.Player
	if err := s.DB.Where("fid = ?", fid).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

// RecordScore raises the player's best score monotonically. The guarded
// update makes concurrent submissions keep the maximum.
func (s *PlayerService) RecordScore(wallet string, score int64) (int64, error) {
	wallet, err := NormalizeWallet(wallet)
	if err != nil {
		return 0, err
	}
	if score < 0 {
		return 0, errors.New("score must be non-negative")
	}

	if err := s.DB.Model(&models.Player{}).
		Where("wallet_address = ? AND best_score < ?", wallet, score).
		Update("best_score", score).Error; err != nil {
		return 0, err
	}

	var player models.Player
	if err := s.DB.Where("wallet_address = ?", wallet).First(&player).Error; err != nil {
		return 0, err
	}
	return player.BestScore, nil
}
