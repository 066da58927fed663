package tasks

import "travelkita_app/internal/services"

// DefineTasks registers all available tasks. The reconciliation task talks
// to the gateway, so it receives the shared Midtrans client.
func DefineTasks(midtransClient *services.MidtransService) {
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	reconcile := &ReconcilePendingPaymentsTaskDef{Midtrans: midtransClient}
	RegisterHandler(reconcile.TaskID(), reconcile.HandleExecution)

	RegisterHandler(PurgeCallbackHistoryTask.TaskID(), PurgeCallbackHistoryTask.HandleExecution)
}
