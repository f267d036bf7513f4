package api

import (
	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

// Automation DTOs

// CheckStageCompletionRequest — запрос оценки готовности этапа заказа.
type CheckStageCompletionRequest struct {
	OrderID int64 `json:"order_id"`
}

// CreateDependentTasksRequest — запрос создания зависимых задач.
type CreateDependentTasksRequest struct {
	CompletedTaskID     int64     `json:"completed_task_id"`
	AutomationSettingID uuid.UUID `json:"automation_setting_id"`
}

// Settings DTOs

// CreateSettingRequest — запрос на создание настройки автоматизации.
type CreateSettingRequest struct {
	StageID                 string                `json:"stage_id"`
	TaskName                string                `json:"task_name"`
	TaskOrderPosition       int                   `json:"task_order_position"`
	ResponsibleUserID       *uuid.UUID            `json:"responsible_user_id,omitempty"`
	DispatcherID            *uuid.UUID            `json:"dispatcher_id,omitempty"`
	DispatcherPercentage    int                   `json:"dispatcher_percentage"`
	TaskTitleTemplate       string                `json:"task_title_template"`
	TaskDescriptionTemplate string                `json:"task_description_template"`
	PaymentAmount           float64               `json:"payment_amount"`
	DurationDays            int                   `json:"duration_days"`
	StartCondition          domain.StartCondition `json:"start_condition"`
	DependsOnTaskID         *uuid.UUID            `json:"depends_on_task_id,omitempty"`
}

// UpdateSettingsRequest — массовое обновление настроек.
type UpdateSettingsRequest struct {
	Settings []domain.AutomationSetting `json:"settings"`
}

// StageGroup — настройки одного этапа для сгруппированного списка.
type StageGroup struct {
	StageID   string                     `json:"stage_id"`
	StageName string                     `json:"stage_name"`
	Settings  []domain.AutomationSetting `json:"settings"`
}

// Chain DTOs

// SetEnabledRequest — включение/выключение звена цепочки.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ReorderChainRequest — новый порядок звеньев цепочки.
type ReorderChainRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// Notification DTOs

// SendNotificationRequest — запрос на отправку уведомления.
type SendNotificationRequest struct {
	UserID  uuid.UUID `json:"user_id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	TaskID  *int64    `json:"task_id,omitempty"`
	OrderID *int64    `json:"order_id,omitempty"`
	URL     string    `json:"url,omitempty"`
}

// SendNotificationResponse — итог рассылки по подпискам пользователя.
type SendNotificationResponse struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

// SubscribeRequest — регистрация push-подписки устройства.
// Формат keys повторяет PushSubscription из браузерного Push API.
type SubscribeRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Endpoint string    `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// UnsubscribeRequest — удаление push-подписки.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}
