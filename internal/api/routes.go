package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Engine boundary
	mux.Handle("POST /api/v1/automation/check-stage-completion", chain(http.HandlerFunc(h.CheckStageCompletion)))
	mux.Handle("POST /api/v1/automation/create-dependent-tasks", chain(http.HandlerFunc(h.CreateDependentTasks)))

	// Settings
	mux.Handle("GET /api/v1/automation/settings", chain(http.HandlerFunc(h.ListSettings)))
	mux.Handle("GET /api/v1/automation/settings/stages", chain(http.HandlerFunc(h.ListSettingsByStages)))
	mux.Handle("POST /api/v1/automation/settings", chain(http.HandlerFunc(h.CreateSetting)))
	mux.Handle("PUT /api/v1/automation/settings", chain(http.HandlerFunc(h.UpdateSettings)))
	mux.Handle("DELETE /api/v1/automation/settings/{id}", chain(http.HandlerFunc(h.DeleteSetting)))

	// Stage chain
	mux.Handle("GET /api/v1/automation/chain", chain(http.HandlerFunc(h.ListChain)))
	mux.Handle("PUT /api/v1/automation/chain/{id}/enabled", chain(http.HandlerFunc(h.SetChainEnabled)))
	mux.Handle("PUT /api/v1/automation/chain/reorder", chain(http.HandlerFunc(h.ReorderChain)))

	// Tasks
	mux.Handle("POST /api/v1/tasks/{id}/complete", chain(http.HandlerFunc(h.CompleteTask)))

	// Notifications
	mux.Handle("POST /api/v1/notifications/send", chain(http.HandlerFunc(h.SendNotification)))
	mux.Handle("POST /api/v1/push-subscriptions", chain(http.HandlerFunc(h.Subscribe)))
	mux.Handle("DELETE /api/v1/push-subscriptions", chain(http.HandlerFunc(h.Unsubscribe)))
}
