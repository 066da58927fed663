package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"travelkita_app/internal/models"
	"travelkita_app/internal/services"
)

// ReconcilePendingPaymentsTaskDef sweeps redirect payment sessions that
// never received a gateway callback. Stale pending orders are cancelled at
// the gateway; orders that turned out settled or failed have their rows
// closed so they stop being picked up.
type ReconcilePendingPaymentsTaskDef struct {
	Midtrans *services.MidtransService
}

func (t *ReconcilePendingPaymentsTaskDef) TaskID() string {
	return "reconcile_pending_payments"
}

func (t *ReconcilePendingPaymentsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	staleMinutes := 30.0
	if v, ok := task.Arguments["stale_minutes"].(float64); ok && v > 0 {
		staleMinutes = v
	}
	cutoff := time.Now().Add(-time.Duration(staleMinutes) * time.Minute)

	var sessions []models.PaymentSession
	err := db.Where("is_active = ? AND payment_gateway = ? AND created_at < ?",
		true, models.PaymentGatewayMidtrans, cutoff).Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending payment sessions: %w", err)
	}

	if len(sessions) == 0 {
		return map[string]interface{}{"status": "success", "reconciled": 0}, nil
	}

	reconciled := 0
	for _, session := range sessions {
		if ctx.Err() != nil {
			break
		}

		statusResp, err := t.Midtrans.CheckTransaction(session.OrderID)
		if err != nil {
			log.Printf("[Task: reconcile_pending_payments] status check failed for %s: %v", session.OrderID, err)
			continue
		}

		switch statusResp.TransactionStatus {
		case "settlement", "capture", "deny", "expire", "cancel", "failure":
			// Terminal at the gateway; close our side.
		case "pending":
			if err := t.Midtrans.CancelTransaction(session.OrderID); err != nil {
				log.Printf("[Task: reconcile_pending_payments] cancel failed for %s: %v", session.OrderID, err)
				continue
			}
		default:
			continue
		}

		db.Model(&models.PaymentSession{}).Where("id = ?", session.ID).Update("is_active", false)
		reconciled++
	}

	return map[string]interface{}{"status": "success", "reconciled": reconciled}, nil
}

// PurgeCallbackHistoryTaskDef deletes gateway callback audit rows older
// than the retention window.
type PurgeCallbackHistoryTaskDef struct{}

func (t *PurgeCallbackHistoryTaskDef) TaskID() string {
	return "purge_callback_history"
}

func (t *PurgeCallbackHistoryTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	retentionDays := 90.0
	if v, ok := task.Arguments["retention_days"].(float64); ok && v > 0 {
		retentionDays = v
	}
	cutoff := time.Now().AddDate(0, 0, -int(retentionDays))

	result := db.Unscoped().Where("created_at < ?", cutoff).Delete(&models.PaymentCallbackHistory{})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to purge callback history: %w", result.Error)
	}

	return map[string]interface{}{"status": "success", "deleted": result.RowsAffected}, nil
}

// PurgeCallbackHistoryTask is the singleton instance of PurgeCallbackHistoryTaskDef
var PurgeCallbackHistoryTask = &PurgeCallbackHistoryTaskDef{}
