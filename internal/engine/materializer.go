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

// Materializer создаёт задачи этапа из настроек автоматизации.
//
// Идемпотентен: перед вставкой проверяется существование задачи по паре
// (заказ, настройка), поэтому повторный вызов после частичного сбоя
// безопасен и не создаёт дубликатов.
type Materializer struct {
	settings SettingStore
	tasks    TaskStore
	notifier Notifier
	logger   *slog.Logger
}

// NewMaterializer создаёт новый Materializer.
func NewMaterializer(settings SettingStore, tasks TaskStore, notifier Notifier, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		settings: settings,
		tasks:    tasks,
		notifier: notifier,
		logger:   logger,
	}
}

// MaterializeStage создаёт немедленные задачи этапа для заказа.
//
// Берутся настройки этапа с start_condition = immediate и без зависимости,
// в порядке task_order_position. Зависимые задачи создаст Resolver после
// завершения родительских. Ноль созданных задач — нормальный исход:
// у этапа нет немедленных настроек либо все задачи уже созданы.
func (m *Materializer) MaterializeStage(ctx context.Context, orderID int64, stageID, orderTitle string) ([]int64, error) {
	settings, err := m.settings.ListImmediateByStage(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("list immediate settings for stage %s: %w", stageID, err)
	}

	logger := telemetry.WithStageID(telemetry.WithOrderID(m.logger, orderID), stageID)
	logger.Debug("materializing stage", "immediate_settings", len(settings))

	var created []int64
	for i := range settings {
		id, ok := m.materializeOne(ctx, &settings[i], orderID, stageID, orderTitle)
		if ok {
			created = append(created, id)
		}
	}

	if len(created) > 0 {
		logger.Info("stage tasks materialized", "tasks_created", len(created), "task_ids", created)
	}
	return created, nil
}

// materializeOne создаёт одну задачу по настройке.
//
// Возвращает (0, false), если задача пропущена: нет ответственного,
// задача уже существует либо вставка не удалась. Любой сбой здесь
// логируется и не прерывает обработку остальных настроек батча.
func (m *Materializer) materializeOne(ctx context.Context, s *domain.AutomationSetting, orderID int64, stageID, orderTitle string) (int64, bool) {
	logger := telemetry.WithOrderID(m.logger, orderID).With("setting_id", s.ID, "task_name", s.TaskName)

	if !s.RequiresTask() {
		logger.Debug("skipping setting without responsible user")
		return 0, false
	}

	exists, err := m.tasks.ExistsForSetting(ctx, orderID, s.ID)
	if err != nil {
		logger.Error("failed to check task existence", "error", err)
		return 0, false
	}
	if exists {
		logger.Debug("task already exists for setting")
		return 0, false
	}

	id, err := m.tasks.NextID(ctx)
	if err != nil {
		logger.Error("failed to allocate task id", "error", err)
		telemetry.TaskCreateFailures.Inc()
		return 0, false
	}

	now := time.Now()
	durationDays := s.DurationDays
	if durationDays < 1 {
		durationDays = 1
	}
	dueDate := now.AddDate(0, 0, durationDays)

	task := &domain.Zadacha{
		ID:                   id,
		Title:                RenderTitle(s.TaskTitleTemplate, orderID),
		Description:          RenderDescription(s.TaskDescriptionTemplate, orderID, orderTitle),
		ResponsibleUserID:    *s.ResponsibleUserID,
		ZakazID:              orderID,
		StageID:              stageID,
		DueDate:              dueDate,
		OriginalDeadline:     dueDate,
		Status:               domain.TaskStatusInProgress,
		Priority:             domain.PriorityMedium,
		Salary:               s.PaymentAmount,
		DispatcherID:         s.DispatcherID,
		DispatcherPercentage: s.DispatcherPercentage,
		AutomationSettingID:  &s.ID,
		CreatedAt:            now,
	}

	if err := m.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			// Конкурентная вставка по той же настройке или коллизия id.
			// Инвариант дедупликации уже обеспечен — просто пропускаем.
			logger.Info("task insert lost to concurrent creation, skipping", "task_id", id)
		} else {
			logger.Error("failed to create task", "task_id", id, "error", err)
		}
		telemetry.TaskCreateFailures.Inc()
		return 0, false
	}

	telemetry.TasksMaterialized.WithLabelValues(stageID).Inc()
	logger.Info("task created", "task_id", id, "title", task.Title)

	// Уведомление best-effort: сбой доставки не откатывает задачу.
	if m.notifier != nil {
		if err := m.notifier.NotifyNewTask(ctx, task.ResponsibleUserID, task.Title, id, orderID); err != nil {
			logger.Warn("failed to send new task notification", "task_id", id, "error", err)
		}
	}

	return id, true
}
