package worker

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/engine"
	"github.com/aslan-crm/automation/internal/mq"
)

// handleTaskCompleted обрабатывает событие о завершённой задаче.
func (w *Worker) handleTaskCompleted(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.TaskCompletedPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse task.completed payload", "error", err)
		return err
	}

	w.logger.Debug("received task.completed event",
		"task_id", payload.TaskID,
		"setting_id", payload.AutomationSettingID,
		"order_id", payload.OrderID,
	)

	if payload.TaskID == 0 || payload.AutomationSettingID == uuid.Nil {
		// Сообщение без ключевых полей ретраить бессмысленно
		w.logger.Error("task.completed payload is incomplete, dropping",
			"task_id", payload.TaskID,
			"setting_id", payload.AutomationSettingID,
		)
		return nil
	}

	result, err := w.resolver.ResolveDependents(ctx, payload.TaskID, payload.AutomationSettingID)
	if err != nil {
		// Задача или заказ удалены между публикацией и обработкой:
		// событие устарело, повтор не поможет.
		if errors.Is(err, engine.ErrTaskNotFound) || errors.Is(err, engine.ErrOrderNotFound) {
			w.logger.Warn("task.completed event is stale, dropping",
				"task_id", payload.TaskID,
				"error", err,
			)
			return nil
		}
		w.logger.Error("failed to resolve dependents",
			"task_id", payload.TaskID,
			"error", err,
		)
		return err
	}

	w.logger.Info("task.completed processed",
		"task_id", payload.TaskID,
		"tasks_created", result.TasksCreated(),
		"evaluated", result.Evaluation != nil,
	)

	return nil
}
