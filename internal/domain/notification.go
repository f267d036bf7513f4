package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification — запись истории уведомлений.
//
// История пишется до отправки push: пользователь увидит уведомление
// в CRM даже если доставка на устройства не удалась.
type Notification struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`

	// TaskID и OrderID — необязательные ссылки на задачу и заказ.
	TaskID  *int64 `json:"task_id,omitempty"`
	OrderID *int64 `json:"order_id,omitempty"`

	// URL — куда ведёт уведомление в интерфейсе CRM.
	URL string `json:"url"`

	CreatedAt time.Time `json:"created_at"`
}

// PushSubscription — подписка браузера пользователя на web-push.
// У одного пользователя может быть несколько устройств.
type PushSubscription struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Endpoint string    `json:"endpoint"`

	// P256dh и Auth — ключи подписки из браузера.
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`

	CreatedAt time.Time `json:"created_at"`
}
