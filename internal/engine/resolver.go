package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/repo"
	"github.com/aslan-crm/automation/internal/telemetry"
)

// Сообщения Resolver'а.
const (
	MsgOrderMoved        = "order moved to different stage"
	MsgDependentsCreated = "dependent tasks created"
	MsgNoDependents      = "no dependent tasks"
)

// ResolveResult — результат создания зависимых задач.
type ResolveResult struct {
	// Success — обработка прошла (в том числе когда зависимых нет).
	Success bool `json:"success"`

	// TaskIDs — созданные зависимые задачи.
	TaskIDs []int64 `json:"task_ids,omitempty"`

	// Message — информационное сообщение.
	Message string `json:"message,omitempty"`

	// Evaluation — результат запущенной следом оценки готовности этапа.
	// nil, если оценка не выполнялась (заказ уже ушёл с этапа).
	Evaluation *EvalResult `json:"evaluation,omitempty"`
}

// TasksCreated возвращает количество созданных задач.
func (r *ResolveResult) TasksCreated() int {
	return len(r.TaskIDs)
}

// Resolver создаёт зависимые задачи после завершения родительской.
//
// Настройка с start_condition = after_task материализуется только когда
// завершается задача её родительской настройки — независимо от порядка
// событий на других этапах. После обработки Resolver всегда запускает
// оценку готовности этапа: решение «переводить или нет» принимает
// Evaluator под локом заказа, здесь эта логика не дублируется.
type Resolver struct {
	orders       OrderStore
	tasks        TaskStore
	settings     SettingStore
	materializer *Materializer
	evaluator    *Evaluator
	logger       *slog.Logger
}

// NewResolver создаёт новый Resolver.
func NewResolver(orders OrderStore, tasks TaskStore, settings SettingStore, materializer *Materializer, evaluator *Evaluator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		orders:       orders,
		tasks:        tasks,
		settings:     settings,
		materializer: materializer,
		evaluator:    evaluator,
		logger:       logger,
	}
}

// ResolveDependents создаёт задачи, зависящие от завершённой.
//
// Идемпотентен: по каждой зависимой настройке проверяется существование
// задачи. Сбой создания одной задачи логируется и не прерывает обработку
// остальных.
func (r *Resolver) ResolveDependents(ctx context.Context, completedTaskID int64, settingID uuid.UUID) (*ResolveResult, error) {
	logger := telemetry.WithTaskID(r.logger, completedTaskID).With("setting_id", settingID)

	task, err := r.tasks.GetByID(ctx, completedTaskID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: task %d", ErrTaskNotFound, completedTaskID)
	}
	if err != nil {
		return nil, err
	}

	order, err := r.orders.GetByID(ctx, task.ZakazID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, task.ZakazID)
	}
	if err != nil {
		return nil, err
	}

	// Заказ уже ушёл с этапа завершённой задачи: создавать задачи
	// прошлого этапа поздно и бессмысленно. No-op, успех.
	if order.Status != task.StageID {
		logger.Info("order already moved past task stage",
			"order_status", order.Status, "task_stage", task.StageID)
		return &ResolveResult{Success: true, Message: MsgOrderMoved}, nil
	}

	dependents, err := r.settings.ListDependents(ctx, settingID)
	if err != nil {
		return nil, fmt.Errorf("list dependent settings: %w", err)
	}

	var created []int64
	for i := range dependents {
		dep := &dependents[i]

		// Защитная перепроверка: UI обязан держать зависимости в рамках
		// этапа, но настройка могла быть отредактирована после завершения
		// родительской задачи.
		if dep.StageID != task.StageID {
			logger.Warn("dependent setting crosses stage boundary, skipping",
				"dependent_id", dep.ID, "dependent_stage", dep.StageID)
			continue
		}

		if id, ok := r.materializer.materializeOne(ctx, dep, order.ID, task.StageID, order.Title); ok {
			created = append(created, id)
		}
	}

	result := &ResolveResult{Success: true, TaskIDs: created}
	if len(dependents) == 0 {
		result.Message = MsgNoDependents
	} else {
		result.Message = MsgDependentsCreated
		logger.Info("dependent tasks resolved", "tasks_created", len(created), "task_ids", created)
	}

	// Оценку запускаем всегда: Evaluator сам определит «ещё рано»
	// и вернёт информационный результат. Ошибка оценки не отменяет
	// уже созданные задачи.
	eval, err := r.evaluator.EvaluateAndAdvance(ctx, order.ID)
	if err != nil {
		logger.Error("stage evaluation after resolve failed", "error", err)
		return result, nil
	}
	result.Evaluation = eval

	return result, nil
}
