// services/quota_service.go
package services

import (
	"errors"
	"time"

	"gift-claim-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResourceDef is the per-resource window configuration (tunable via config/env later)
type ResourceDef struct {
	Cap    int
	Period time.Duration
}

var ResourceDefs = map[models.ResourceKind]ResourceDef{
	models.ResourceGiftBox:   {Cap: 3, Period: 12 * time.Hour},
	models.ResourceGameStart: {Cap: 5, Period: 12 * time.Hour},
}

// consumeRetryAttempts bounds the optimistic retry loop before the conflict
// is surfaced as a transient store error.
const consumeRetryAttempts = 3

var (
	ErrUnknownResource        = errors.New("unknown resource kind")
	ErrInvalidUnits           = errors.New("units must be between 1 and the resource cap")
	ErrConflictRetryExhausted = errors.New("concurrent quota update conflict, retries exhausted")
)

// QuotaStatus is a pure read of the current window state.
// PeriodEndsAt is nil when there is no live period (no record, or expired).
type QuotaStatus struct {
	Consumed     int        `json:"consumed"`
	Remaining    int        `json:"remaining"`
	PeriodEndsAt *time.Time `json:"period_ends_at,omitempty"`
}

type ConsumeResult struct {
	Granted      bool      `json:"granted"`
	Consumed     int       `json:"consumed"`
	Remaining    int       `json:"remaining"`
	PeriodEndsAt time.Time `json:"period_ends_at"`
}

// QuotaService enforces "at most cap units per wallet per rolling period".
// Every mutation is a single guarded UPDATE (CAS on the observed row state),
// never a read-modify-write, so racing requests for the same wallet cannot
// push units_consumed past cap.
type QuotaService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{DB: db, Now: time.Now}
}

// Status reports the window state without mutating storage. An expired period
// reads as fully replenished; the reset itself only happens on the next
// TryConsume.
func (s *QuotaService) Status(wallet string, resource models.ResourceKind) (*QuotaStatus, error) {
	def, ok := ResourceDefs[resource]
	if !ok {
		return nil, ErrUnknownResource
	}

	var qw models.QuotaWindow
	err := s.DB.Where("wallet_address = ? AND resource = ?", wallet, resource).First(&qw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &QuotaStatus{Consumed: 0, Remaining: def.Cap}, nil
	}
	if err != nil {
		return nil, err
	}

	if qw.Expired(s.Now()) {
		return &QuotaStatus{Consumed: 0, Remaining: qw.Cap}, nil
	}

	end := qw.PeriodEnd()
	return &QuotaStatus{
		Consumed:     qw.UnitsConsumed,
		Remaining:    qw.Cap - qw.UnitsConsumed,
		PeriodEndsAt: &end,
	}, nil
}

// TryConsume attempts to consume units from the wallet's current window.
// A missing or expired window starts fresh at now with units already counted —
// reset and consumption are one write, never two. Returns Granted=false with
// the unchanged state when the cap would be exceeded.
func (s *QuotaService) TryConsume(wallet string, resource models.ResourceKind, units int) (*ConsumeResult, error) {
	def, ok := ResourceDefs[resource]
	if !ok {
		return nil, ErrUnknownResource
	}
	if units < 1 || units > def.Cap {
		return nil, ErrInvalidUnits
	}

	for attempt := 0; attempt < consumeRetryAttempts; attempt++ {
		var qw models.QuotaWindow
		err := s.DB.Where("wallet_address = ? AND resource = ?", wallet, resource).First(&qw).Error
		now := s.Now()

		if errors.Is(err, gorm.ErrRecordNotFound) {
			qw = models.QuotaWindow{
				ID:            uuid.NewString(),
				WalletAddress: wallet,
				Resource:      resource,
				PeriodStart:   now,
				UnitsConsumed: units,
				Cap:           def.Cap,
				PeriodSeconds: int64(def.Period / time.Second),
			}
			createErr := s.DB.Create(&qw).Error
			if createErr == nil {
				return &ConsumeResult{Granted: true, Consumed: units, Remaining: def.Cap - units, PeriodEndsAt: qw.PeriodEnd()}, nil
			}
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				continue // lost the insert race, re-read and increment instead
			}
			return nil, createErr
		}
		if err != nil {
			return nil, err
		}

		if qw.Expired(now) {
			ok, resetErr := s.resetAndConsume(&qw, now, units)
			if resetErr != nil {
				return nil, resetErr
			}
			if ok {
				end := now.Add(time.Duration(qw.PeriodSeconds) * time.Second)
				return &ConsumeResult{Granted: true, Consumed: units, Remaining: qw.Cap - units, PeriodEndsAt: end}, nil
			}
			continue
		}

		if qw.UnitsConsumed+units > qw.Cap {
			return &ConsumeResult{
				Granted:      false,
				Consumed:     qw.UnitsConsumed,
				Remaining:    qw.Cap - qw.UnitsConsumed,
				PeriodEndsAt: qw.PeriodEnd(),
			}, nil
		}

		res := s.DB.Model(&models.QuotaWindow{}).
			Where("id = ? AND period_start = ? AND units_consumed = ?", qw.ID, qw.PeriodStart, qw.UnitsConsumed).
			Update("units_consumed", qw.UnitsConsumed+units)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &ConsumeResult{
				Granted:      true,
				Consumed:     qw.UnitsConsumed + units,
				Remaining:    qw.Cap - qw.UnitsConsumed - units,
				PeriodEndsAt: qw.PeriodEnd(),
			}, nil
		}
		// someone else moved the window, try again
	}

	return nil, ErrConflictRetryExhausted
}

// resetAndConsume rewrites an expired window as a fresh period with units
// already counted — reset and consumption are one guarded write. The CAS
// covers both period_start and units_consumed: a concurrent increment from a
// process whose clock still sees the period as live changes only
// units_consumed, and must force a re-read instead of being overwritten.
func (s *QuotaService) resetAndConsume(qw *models.QuotaWindow, now time.Time, units int) (bool, error) {
	res := s.DB.Model(&models.QuotaWindow{}).
		Where("id = ? AND period_start = ? AND units_consumed = ?", qw.ID, qw.PeriodStart, qw.UnitsConsumed).
		Updates(map[string]interface{}{
			"period_start":   now,
			"units_consumed": units,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GrantBonusUnits tops up remaining quota by extraUnits within the live
// period, clamped so units_consumed never drops below zero — a bonus
// accelerates refill, it never mints quota above the cap. With no live period
// the quota is already full and this is a no-op.
func (s *QuotaService) GrantBonusUnits(wallet string, resource models.ResourceKind, extraUnits int) (*QuotaStatus, error) {
	return s.grantBonusUnits(s.DB, wallet, resource, extraUnits)
}

// grantBonusUnits is the tx-scoped implementation so BoostService can combine
// the top-up with its latch write in a single transaction.
func (s *QuotaService) grantBonusUnits(db *gorm.DB, wallet string, resource models.ResourceKind, extraUnits int) (*QuotaStatus, error) {
	def, ok := ResourceDefs[resource]
	if !ok {
		return nil, ErrUnknownResource
	}
	if extraUnits < 1 {
		return nil, ErrInvalidUnits
	}

	for attempt := 0; attempt < consumeRetryAttempts; attempt++ {
		var qw models.QuotaWindow
		err := db.Where("wallet_address = ? AND resource = ?", wallet, resource).First(&qw).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &QuotaStatus{Consumed: 0, Remaining: def.Cap}, nil
		}
		if err != nil {
			return nil, err
		}

		now := s.Now()
		if qw.Expired(now) {
			return &QuotaStatus{Consumed: 0, Remaining: qw.Cap}, nil
		}

		newConsumed := qw.UnitsConsumed - extraUnits
		if newConsumed < 0 {
			newConsumed = 0
		}
		if newConsumed == qw.UnitsConsumed {
			end := qw.PeriodEnd()
			return &QuotaStatus{Consumed: qw.UnitsConsumed, Remaining: qw.Cap - qw.UnitsConsumed, PeriodEndsAt: &end}, nil
		}

		res := db.Model(&models.QuotaWindow{}).
			Where("id = ? AND period_start = ? AND units_consumed = ?", qw.ID, qw.PeriodStart, qw.UnitsConsumed).
			Update("units_consumed", newConsumed)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			end := qw.PeriodEnd()
			return &QuotaStatus{Consumed: newConsumed, Remaining: qw.Cap - newConsumed, PeriodEndsAt: &end}, nil
		}
	}

	return nil, ErrConflictRetryExhausted
}
