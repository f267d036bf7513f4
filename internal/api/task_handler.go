package api

import (
	"net/http"
	"strconv"

	"github.com/aslan-crm/automation/internal/domain"
	"github.com/aslan-crm/automation/internal/mq"
)

// CompleteTask помечает задачу завершённой и публикует task.completed,
// по которому worker создаёт зависимые задачи и оценивает этап.
// POST /api/v1/tasks/{id}/complete
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	task, err := h.zadachaRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "task not found") {
		return
	}

	// Повторное завершение — no-op: событие уже публиковалось.
	if task.Status.IsCompleted() {
		Success(w, task)
		return
	}

	if err := h.zadachaRepo.UpdateStatus(r.Context(), id, domain.TaskStatusCompleted); HandleRepoError(w, h.logger, err, "task not found") {
		return
	}
	task.Status = domain.TaskStatusCompleted

	if task.IsAutomated() && h.publisher != nil {
		err := h.publisher.PublishTaskCompleted(r.Context(), mq.TaskCompletedPayload{
			TaskID:              task.ID,
			AutomationSettingID: *task.AutomationSettingID,
			OrderID:             task.ZakazID,
		})
		if err != nil {
			h.logger.Warn("failed to publish task.completed", "task_id", task.ID, "error", err)
		}
	}

	Success(w, task)
}
