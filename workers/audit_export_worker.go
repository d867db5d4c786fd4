package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gift-claim-system/models"
	"gift-claim-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const auditBatchSize = 500

// AuditExportWorker periodically ships aged voucher records to the R2 audit
// archive. Nothing is marked archived until the upload succeeds, so a failed
// tick retries the same batch on the next one.
type AuditExportWorker struct {
	DB        *gorm.DB
	ExportAge time.Duration
}

func NewAuditExportWorker(db *gorm.DB, exportAge time.Duration) *AuditExportWorker {
	if exportAge <= 0 {
		exportAge = 24 * time.Hour
	}
	return &AuditExportWorker{DB: db, ExportAge: exportAge}
}

// Run blocks until ctx is cancelled, exporting one batch per tick.
func (w *AuditExportWorker) Run(ctx context.Context, interval time.Duration) {
	log.Println("Starting voucher audit export worker...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Audit export worker stopped.")
			return
		case <-ticker.C:
			if err := w.exportOnce(ctx); err != nil {
				log.Printf("❌ Audit export failed: %v", err)
			}
		}
	}
}

func (w *AuditExportWorker) exportOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.ExportAge)

	var batch []models.VoucherRecord
	if err := w.DB.Where("archived = ? AND issued_at < ?", false, cutoff).
		Order("issued_at ASC").
		Limit(auditBatchSize).
		Find(&batch).Error; err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("vouchers/%s/%s.json", time.Now().UTC().Format("2006-01-02"), uuid.NewString())
	if err := utils.UploadAuditBatch(ctx, key, data); err != nil {
		return err
	}

	ids := make([]string, len(batch))
	for i, v := range batch {
		ids[i] = v.ID
	}
	if err := w.DB.Model(&models.VoucherRecord{}).
		Where("id IN ?", ids).
		Update("archived", true).Error; err != nil {
		// Upload succeeded but marking failed — the next tick re-exports the
		// same rows, which is a duplicate object in the archive, not data loss.
		return err
	}

	log.Printf("📦 Exported %d voucher(s) to %s", len(batch), key)
	return nil
}
