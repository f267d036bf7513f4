package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aslan-crm/automation/internal/domain"
	"github.com/aslan-crm/automation/internal/repo"
	"github.com/aslan-crm/automation/internal/telemetry"
)

// Информационные сообщения оценки. Все они — нормальные исходы,
// а не ошибки: заказ просто ещё не готов к переходу.
const (
	MsgAlreadyProcessing = "already being processed by another instance"
	MsgTasksNotCreated   = "not all tasks created yet"
	MsgTasksNotCompleted = "not all tasks completed"
	MsgNoChain           = "no automation chain configured"
	MsgChainDisabled     = "automation disabled"
	MsgFinalStage        = "final stage reached"
	MsgOrderAdvanced     = "order automatically moved to next stage"
)

// EvalResult — результат оценки готовности этапа.
type EvalResult struct {
	// Advanced — заказ переведён на следующий этап.
	Advanced bool `json:"success"`

	// FromStage и ToStage заполняются при переводе.
	FromStage string `json:"from_stage,omitempty"`
	ToStage   string `json:"to_stage,omitempty"`

	// TaskIDs — задачи, созданные для нового этапа.
	TaskIDs []int64 `json:"task_ids,omitempty"`

	// Message — информационное сообщение (not-yet исходы и успех).
	Message string `json:"message,omitempty"`

	// MissingTask — имя настройки, задача по которой ещё не создана.
	MissingTask string `json:"missing_task,omitempty"`

	// IncompleteTask — имя настройки, задача по которой не завершена.
	IncompleteTask string `json:"incomplete_task,omitempty"`
}

// TasksCreated возвращает количество созданных задач.
func (r *EvalResult) TasksCreated() int {
	return len(r.TaskIDs)
}

// Evaluator оценивает готовность текущего этапа заказа и переводит
// заказ на следующий этап цепочки.
//
// Машина состояний на заказ: состояния — этапы, переход срабатывает
// только когда по каждой настройке этапа с ответственным создана
// завершённая задача и звено цепочки активно. Вся защита от гонок
// сосредоточена здесь: оценка выполняется под advisory lock'ом заказа,
// конкурентный вызов получает busy и уходит без ожидания.
type Evaluator struct {
	orders       OrderStore
	tasks        TaskStore
	settings     SettingStore
	chain        ChainStore
	locker       Locker
	materializer *Materializer
	events       EventSink
	logger       *slog.Logger
}

// NewEvaluator создаёт новый Evaluator. events может быть nil —
// тогда события о переводе заказа не публикуются.
func NewEvaluator(orders OrderStore, tasks TaskStore, settings SettingStore, chain ChainStore, locker Locker, materializer *Materializer, events EventSink, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		orders:       orders,
		tasks:        tasks,
		settings:     settings,
		chain:        chain,
		locker:       locker,
		materializer: materializer,
		events:       events,
		logger:       logger,
	}
}

// EvaluateAndAdvance проверяет готовность текущего этапа заказа
// и при полной готовности переводит заказ дальше по цепочке.
//
// Идемпотентен: повторный вызов после перевода — no-op, потому что
// статус заказа уже изменился. Если лок заказа занят, возвращается
// информационный результат без повтора и ожидания: владелец лока сам
// доведёт заказ до согласованного состояния.
func (e *Evaluator) EvaluateAndAdvance(ctx context.Context, orderID int64) (*EvalResult, error) {
	telemetry.EvaluationsTotal.Inc()
	logger := telemetry.WithOrderID(e.logger, orderID)

	var result *EvalResult
	acquired, err := e.locker.WithOrderLock(ctx, orderID, func(ctx context.Context) error {
		var evalErr error
		result, evalErr = e.evaluate(ctx, orderID, logger)
		return evalErr
	})
	if err != nil {
		return nil, err
	}
	if !acquired {
		telemetry.LockBusySkips.Inc()
		logger.Info("order evaluation skipped, lock held by another instance")
		return &EvalResult{Message: MsgAlreadyProcessing}, nil
	}
	return result, nil
}

// evaluate выполняет проверку под уже взятым локом.
func (e *Evaluator) evaluate(ctx context.Context, orderID int64, logger *slog.Logger) (*EvalResult, error) {
	order, err := e.orders.GetByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	currentStage := order.Status
	logger = telemetry.WithStageID(logger, currentStage)

	// Проверяем, что по каждой настройке этапа с ответственным
	// создана задача и что все они завершены.
	allSettings, err := e.settings.ListByStage(ctx, currentStage)
	if err != nil {
		return nil, fmt.Errorf("list settings for stage %s: %w", currentStage, err)
	}

	stageTasks, err := e.tasks.ListByOrderAndStage(ctx, orderID, currentStage)
	if err != nil {
		return nil, fmt.Errorf("list tasks for stage %s: %w", currentStage, err)
	}

	bySetting := make(map[string]*domain.Zadacha, len(stageTasks))
	for i := range stageTasks {
		if stageTasks[i].AutomationSettingID != nil {
			bySetting[stageTasks[i].AutomationSettingID.String()] = &stageTasks[i]
		}
	}

	for i := range allSettings {
		s := &allSettings[i]
		if !s.RequiresTask() {
			// Настройки без ответственного исключены из учёта.
			continue
		}

		task, ok := bySetting[s.ID.String()]
		if !ok {
			logger.Debug("task not yet created", "task_name", s.TaskName, "setting_id", s.ID)
			return &EvalResult{Message: MsgTasksNotCreated, MissingTask: s.TaskName}, nil
		}
		if !task.Status.IsCompleted() {
			logger.Debug("task not completed", "task_name", s.TaskName, "task_id", task.ID, "status", task.Status)
			return &EvalResult{Message: MsgTasksNotCompleted, IncompleteTask: s.TaskName}, nil
		}
	}

	// Этап готов. Смотрим звено цепочки.
	link, err := e.chain.GetByFromStage(ctx, currentStage)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Debug("no automation chain for stage")
		return &EvalResult{Message: MsgNoChain}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chain link for stage %s: %w", currentStage, err)
	}

	if !link.IsActive {
		logger.Debug("automation disabled for stage")
		return &EvalResult{Message: MsgChainDisabled}, nil
	}
	if link.IsTerminal() {
		logger.Debug("final stage, order stays")
		return &EvalResult{Message: MsgFinalStage}, nil
	}

	nextStage := *link.ToStageID
	if err := e.orders.UpdateStatus(ctx, orderID, nextStage, time.Now()); err != nil {
		return nil, fmt.Errorf("advance order to stage %s: %w", nextStage, err)
	}

	telemetry.OrdersAdvanced.WithLabelValues(currentStage, nextStage).Inc()
	logger.Info("order advanced", "to_stage", nextStage)

	created, err := e.materializer.MaterializeStage(ctx, orderID, nextStage, order.Title)
	if err != nil {
		// Заказ уже переведён; задачи нового этапа доберёт повторная
		// материализация (sweeper или следующее событие).
		return nil, fmt.Errorf("materialize stage %s after advance: %w", nextStage, err)
	}

	if e.events != nil {
		if err := e.events.OrderAdvanced(ctx, orderID, currentStage, nextStage, created); err != nil {
			logger.Warn("publish order advanced failed", "error", err)
		}
	}

	return &EvalResult{
		Advanced:  true,
		FromStage: currentStage,
		ToStage:   nextStage,
		TaskIDs:   created,
		Message:   MsgOrderAdvanced,
	}, nil
}
