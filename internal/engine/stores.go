package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

// Интерфейсы хранилищ, которыми пользуется движок.
// Реализуются репозиториями internal/repo; тесты подставляют in-memory фейки.

// OrderStore — доступ к заказам.
type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Zakaz, error)
	UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error
}

// TaskStore — доступ к задачам.
type TaskStore interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, task *domain.Zadacha) error
	GetByID(ctx context.Context, id int64) (*domain.Zadacha, error)
	ListByOrderAndStage(ctx context.Context, orderID int64, stageID string) ([]domain.Zadacha, error)
	ExistsForSetting(ctx context.Context, orderID int64, settingID uuid.UUID) (bool, error)
}

// SettingStore — доступ к настройкам автоматизации (только чтение:
// настройки редактируются через UI, движок их не меняет).
type SettingStore interface {
	ListByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error)
	ListImmediateByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error)
	ListDependents(ctx context.Context, parentID uuid.UUID) ([]domain.AutomationSetting, error)
}

// ChainStore — доступ к цепочке переходов этапов.
type ChainStore interface {
	GetByFromStage(ctx context.Context, fromStageID string) (*domain.StageChainLink, error)
}

// Locker — взаимное исключение на уровне заказа.
//
// WithOrderLock выполняет fn под локом заказа и возвращает (false, nil),
// если лок занят другим вызовом. Без ожидания и без очереди.
type Locker interface {
	WithOrderLock(ctx context.Context, orderID int64, fn func(ctx context.Context) error) (bool, error)
}

// Notifier — best-effort отправка уведомления о новой задаче.
// Ошибка доставки логируется и не откатывает создание задачи.
type Notifier interface {
	NotifyNewTask(ctx context.Context, userID uuid.UUID, title string, taskID, orderID int64) error
}

// EventSink — best-effort публикация событий автоматизации наружу
// (realtime-обновление клиентов CRM). Ошибка публикации логируется
// и не откатывает перевод заказа.
type EventSink interface {
	OrderAdvanced(ctx context.Context, orderID int64, fromStage, toStage string, taskIDs []int64) error
}
