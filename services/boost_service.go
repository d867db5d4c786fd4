// services/boost_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"gift-claim-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// BoostRule describes how a boost kind behaves. OneTime boosts latch forever;
// cooldown boosts become available again once the cooldown elapses (lazy, no
// sweep). Partner collab rules come from the campaign row instead.
type BoostRule struct {
	OneTime    bool
	Cooldown   time.Duration
	BonusUnits int
	Resource   models.ResourceKind
}

var boostRules = map[models.BoostKind]BoostRule{
	models.BoostFollow: {OneTime: true, BonusUnits: 1, Resource: models.ResourceGiftBox},
	models.BoostShare:  {Cooldown: 24 * time.Hour, BonusUnits: 1, Resource: models.ResourceGiftBox},
}

var (
	ErrUnknownBoost      = errors.New("unknown boost kind")
	ErrUnknownCampaign   = errors.New("unknown or inactive partner campaign")
	ErrBoostNotAvailable = errors.New("boost not available yet")
)

type BoostGrantResult struct {
	Kind         models.BoostKind `json:"kind"`
	CampaignCode string           `json:"campaign_code,omitempty"`
	BonusUnits   int              `json:"bonus_units"`
	GrantedAt    time.Time        `json:"granted_at"`
	Quota        *QuotaStatus     `json:"quota"`
}

type BoostStatus struct {
	Kind            models.BoostKind `json:"kind"`
	CampaignCode    string           `json:"campaign_code,omitempty"`
	Available       bool             `json:"available"`
	NextAvailableAt *time.Time       `json:"next_available_at,omitempty"`
}

// BoostService hands out one-time and cooldown-gated quota top-ups. The latch
// write and the quota top-up run in one transaction so a crash can never leave
// the boost consumed with the quota untouched, or the reverse.
type BoostService struct {
	DB    *gorm.DB
	Quota *QuotaService
	Now   func() time.Time
}

func NewBoostService(db *gorm.DB, quota *QuotaService) *BoostService {
	return &BoostService{DB: db, Quota: quota, Now: time.Now}
}

func (s *BoostService) ruleFor(kind models.BoostKind, campaignCode string) (BoostRule, error) {
	if kind == models.BoostPartnerCollab {
		var campaign models.PartnerCampaign
		err := s.DB.Where("code = ? AND active = ?", campaignCode, true).First(&campaign).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BoostRule{}, ErrUnknownCampaign
		}
		if err != nil {
			return BoostRule{}, err
		}
		return BoostRule{
			Cooldown:   time.Duration(campaign.CooldownSeconds) * time.Second,
			BonusUnits: campaign.BonusUnits,
			Resource:   models.ResourceGiftBox,
		}, nil
	}

	rule, ok := boostRules[kind]
	if !ok {
		return BoostRule{}, ErrUnknownBoost
	}
	return rule, nil
}

// Grant records the boost and tops up quota atomically. Rejected with
// ErrBoostNotAvailable when the latch is held (one-time already used, or
// cooldown still running) — including when a concurrent request wins the race.
func (s *BoostService) Grant(wallet string, kind models.BoostKind, campaignCode string) (*BoostGrantResult, error) {
	if kind != models.BoostPartnerCollab {
		campaignCode = ""
	}
	rule, err := s.ruleFor(kind, campaignCode)
	if err != nil {
		return nil, err
	}

	var result *BoostGrantResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		now := s.Now()

		var grant models.BoostGrant
		err := tx.Where("wallet_address = ? AND kind = ? AND campaign_code = ?", wallet, kind, campaignCode).
			First(&grant).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			grant = models.BoostGrant{
				ID:            uuid.NewString(),
				WalletAddress: wallet,
				Kind:          kind,
				CampaignCode:  campaignCode,
				LastGrantedAt: &now,
				GrantCount:    1,
			}
			if err := tx.Create(&grant).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrBoostNotAvailable // lost the first-grant race
				}
				return err
			}
		} else if err != nil {
			return err
		} else {
			if grant.LastGrantedAt != nil {
				if rule.OneTime {
					return ErrBoostNotAvailable
				}
				if now.Before(grant.LastGrantedAt.Add(rule.Cooldown)) {
					return ErrBoostNotAvailable
				}
			}

			// CAS on the timestamp we read so two racing grants cannot
			// both pass the cooldown check.
			q := tx.Model(&models.BoostGrant{}).Where("id = ?", grant.ID)
			if grant.LastGrantedAt == nil {
				q = q.Where("last_granted_at IS NULL")
			} else {
				q = q.Where("last_granted_at = ?", *grant.LastGrantedAt)
			}
			res := q.Updates(map[string]interface{}{
				"last_granted_at": now,
				"grant_count":     gorm.Expr("grant_count + 1"),
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrBoostNotAvailable
			}
		}

		quota, err := s.Quota.grantBonusUnits(tx, wallet, rule.Resource, rule.BonusUnits)
		if err != nil {
			return err
		}

		result = &BoostGrantResult{
			Kind:         kind,
			CampaignCode: campaignCode,
			BonusUnits:   rule.BonusUnits,
			GrantedAt:    now,
			Quota:        quota,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Status reports availability for the fixed boost kinds plus every active
// partner campaign. Pure read.
func (s *BoostService) Status(wallet string) ([]BoostStatus, error) {
	now := s.Now()
	var out []BoostStatus

	var grants []models.BoostGrant
	if err := s.DB.Where("wallet_address = ?", wallet).Find(&grants).Error; err != nil {
		return nil, err
	}
	byKey := make(map[string]*models.BoostGrant, len(grants))
	for i := range grants {
		byKey[string(grants[i].Kind)+"/"+grants[i].CampaignCode] = &grants[i]
	}

	appendStatus := func(kind models.BoostKind, code string, rule BoostRule) {
		st := BoostStatus{Kind: kind, CampaignCode: code, Available: true}
		if g := byKey[string(kind)+"/"+code]; g != nil && g.LastGrantedAt != nil {
			if rule.OneTime {
				st.Available = false
			} else {
				next := g.LastGrantedAt.Add(rule.Cooldown)
				if now.Before(next) {
					st.Available = false
					st.NextAvailableAt = &next
				}
			}
		}
		out = append(out, st)
	}

	appendStatus(models.BoostFollow, "", boostRules[models.BoostFollow])
	appendStatus(models.BoostShare, "", boostRules[models.BoostShare])

	var campaigns []models.PartnerCampaign
	if err := s.DB.Where("active = ?", true).Find(&campaigns).Error; err != nil {
		return nil, err
	}
	for _, c := range campaigns {
		appendStatus(models.BoostPartnerCollab, c.Code, BoostRule{
			Cooldown:   time.Duration(c.CooldownSeconds) * time.Second,
			BonusUnits: c.BonusUnits,
			Resource:   models.ResourceGiftBox,
		})
	}

	return out, nil
}

// --- Admin: partner campaigns ---

// CreateCampaign registers a partner collab and derives its URL code from the
// display name.
func (s *BoostService) CreateCampaign(name string, bonusUnits int, cooldown time.Duration) (*models.PartnerCampaign, error) {
	if name == "" {
		return nil, fmt.Errorf("campaign name is required")
	}
	if bonusUnits < 1 {
		bonusUnits = 1
	}
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}

	campaign := &models.PartnerCampaign{
		ID:              uuid.NewString(),
		Name:            name,
		Code:            slug.Make(name),
		BonusUnits:      bonusUnits,
		CooldownSeconds: int64(cooldown / time.Second),
		Active:          true,
	}
	if err := s.DB.Create(campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("campaign code %q already exists", campaign.Code)
		}
		return nil, err
	}
	return campaign, nil
}

func (s *BoostService) ListCampaigns() ([]models.PartnerCampaign, error) {
	var campaigns []models.PartnerCampaign
	err := s.DB.Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

func (s *BoostService) SetCampaignActive(id string, active bool) (*models.PartnerCampaign, error) {
	var campaign models.PartnerCampaign
	if err := s.DB.First(&campaign, "id = ?", id).Error; err != nil {
		return nil, err
	}
	campaign.Active = active
	if err := s.DB.Save(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}
