package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AutomationSetting — шаблон одной задачи, привязанный к этапу.
//
// Настройки создаются и редактируются через UI настроек автоматизации,
// движок читает их только на исполнении. Настройка с StartAfterTask
// материализуется Resolver'ом после завершения родительской задачи,
// остальные — Materializer'ом при входе заказа на этап.
type AutomationSetting struct {
	// ID — уникальный идентификатор настройки.
	ID uuid.UUID `json:"id"`

	// StageID — этап, к которому относится шаблон.
	StageID string `json:"stage_id"`

	// StageName — отображаемое имя этапа (денормализовано для UI).
	StageName string `json:"stage_name"`

	// TaskName — короткое имя задачи для настроек и диагностики.
	TaskName string `json:"task_name"`

	// TaskOrderPosition — порядок задачи внутри этапа.
	TaskOrderPosition int `json:"task_order_position"`

	// ResponsibleUserID — ответственный работник.
	// nil означает, что задача по этой настройке не создаётся
	// и не учитывается при проверке готовности этапа.
	ResponsibleUserID *uuid.UUID `json:"responsible_user_id,omitempty"`

	// DispatcherID — диспетчер, получающий процент.
	DispatcherID *uuid.UUID `json:"dispatcher_id,omitempty"`

	// DispatcherPercentage — процент диспетчера (0–100).
	DispatcherPercentage int `json:"dispatcher_percentage"`

	// TaskTitleTemplate — шаблон заголовка с плейсхолдером #{order_id}.
	TaskTitleTemplate string `json:"task_title_template"`

	// TaskDescriptionTemplate — шаблон описания.
	TaskDescriptionTemplate string `json:"task_description_template"`

	// PaymentAmount — оплата за задачу (>= 0).
	PaymentAmount float64 `json:"payment_amount"`

	// DurationDays — срок выполнения в днях (>= 1).
	DurationDays int `json:"duration_days"`

	// StartCondition — условие создания: immediate или after_task.
	StartCondition StartCondition `json:"start_condition"`

	// DependsOnTaskID — родительская настройка того же этапа.
	// Заполнено только при StartCondition = after_task.
	DependsOnTaskID *uuid.UUID `json:"depends_on_task_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequiresTask возвращает true, если по настройке должна существовать задача.
// Настройки без ответственного исключаются из учёта автоматизации.
func (s *AutomationSetting) RequiresTask() bool {
	return s.ResponsibleUserID != nil
}

// IsImmediate возвращает true, если задача создаётся при входе на этап.
func (s *AutomationSetting) IsImmediate() bool {
	return s.StartCondition == StartImmediate && s.DependsOnTaskID == nil
}

// Validate проверяет согласованность полей настройки.
func (s *AutomationSetting) Validate() error {
	if s.StageID == "" {
		return fmt.Errorf("setting %s: stage_id is empty", s.ID)
	}
	if s.TaskName == "" {
		return fmt.Errorf("setting %s: task_name is empty", s.ID)
	}
	if s.DispatcherPercentage < 0 || s.DispatcherPercentage > 100 {
		return fmt.Errorf("setting %s: dispatcher_percentage %d out of range [0,100]", s.ID, s.DispatcherPercentage)
	}
	if s.PaymentAmount < 0 {
		return fmt.Errorf("setting %s: payment_amount %v is negative", s.ID, s.PaymentAmount)
	}
	if s.DurationDays < 1 {
		return fmt.Errorf("setting %s: duration_days %d is less than 1", s.ID, s.DurationDays)
	}
	switch s.StartCondition {
	case StartImmediate:
		if s.DependsOnTaskID != nil {
			return fmt.Errorf("setting %s: immediate setting must not have depends_on_task_id", s.ID)
		}
	case StartAfterTask:
		if s.DependsOnTaskID == nil {
			return fmt.Errorf("setting %s: after_task setting requires depends_on_task_id", s.ID)
		}
	default:
		return fmt.Errorf("setting %s: unknown start_condition %q", s.ID, s.StartCondition)
	}
	return nil
}
