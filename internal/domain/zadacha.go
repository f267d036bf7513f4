package domain

import (
	"time"

	"github.com/google/uuid"
)

// Zadacha — производственная задача.
//
// Задача создаётся движком из настройки автоматизации (Materializer или
// Resolver) либо вручную диспетчером. Вручную созданные задачи не имеют
// AutomationSettingID и не участвуют в учёте автоматизации.
//
// Инвариант: не более одной задачи на пару (ZakazID, AutomationSettingID) —
// это ключ дедупликации, который обеспечивают проверка существования в движке
// и уникальный индекс в БД.
type Zadacha struct {
	// ID — числовой идентификатор задачи (id_zadachi).
	// Выделяется из последовательности БД, виден пользователям.
	ID int64 `json:"id_zadachi"`

	// Title — заголовок задачи (из шаблона настройки).
	Title string `json:"title"`

	// Description — описание задачи (шаблон + название заказа).
	Description string `json:"description"`

	// ResponsibleUserID — ответственный работник.
	// Задача без ответственного никогда не создаётся.
	ResponsibleUserID uuid.UUID `json:"responsible_user_id"`

	// ZakazID — заказ, к которому относится задача.
	ZakazID int64 `json:"zakaz_id"`

	// StageID — этап, на котором создана задача.
	StageID string `json:"stage_id"`

	// DueDate — срок выполнения (создание + duration_days).
	DueDate time.Time `json:"due_date"`

	// OriginalDeadline — исходный срок (DueDate на момент создания).
	// DueDate может переноситься, OriginalDeadline — нет.
	OriginalDeadline time.Time `json:"original_deadline"`

	// Status — текущий статус задачи.
	Status TaskStatus `json:"status"`

	// Priority — приоритет. Автоматизация всегда создаёт medium.
	Priority TaskPriority `json:"priority"`

	// Salary — оплата работнику за задачу.
	Salary float64 `json:"salary"`

	// DispatcherID — диспетчер, получающий процент с задачи.
	DispatcherID *uuid.UUID `json:"dispatcher_id,omitempty"`

	// DispatcherPercentage — процент диспетчера (0–100).
	DispatcherPercentage int `json:"dispatcher_percentage"`

	// AutomationSettingID — настройка, из которой создана задача.
	// nil для задач, созданных вручную.
	AutomationSettingID *uuid.UUID `json:"automation_setting_id,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// IsAutomated возвращает true, если задача создана автоматизацией.
func (z *Zadacha) IsAutomated() bool {
	return z.AutomationSettingID != nil
}
