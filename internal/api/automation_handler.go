package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// CheckStageCompletion оценивает готовность текущего этапа заказа
// и при полной готовности переводит заказ дальше по цепочке.
// POST /api/v1/automation/check-stage-completion
func (h *Handler) CheckStageCompletion(w http.ResponseWriter, r *http.Request) {
	var req CheckStageCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.OrderID == 0 {
		BadRequest(w, "order_id is required")
		return
	}

	result, err := h.evaluator.EvaluateAndAdvance(r.Context(), req.OrderID)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, result)
}

// CreateDependentTasks создаёт зависимые задачи после завершения
// родительской и запускает оценку готовности этапа.
// POST /api/v1/automation/create-dependent-tasks
func (h *Handler) CreateDependentTasks(w http.ResponseWriter, r *http.Request) {
	var req CreateDependentTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.CompletedTaskID == 0 {
		BadRequest(w, "completed_task_id is required")
		return
	}
	if req.AutomationSettingID == uuid.Nil {
		BadRequest(w, "automation_setting_id is required")
		return
	}

	result, err := h.resolver.ResolveDependents(r.Context(), req.CompletedTaskID, req.AutomationSettingID)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, result)
}
