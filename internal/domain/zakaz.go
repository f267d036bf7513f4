package domain

import "time"

// Zakaz — заказ в производстве.
//
// Заказ принадлежит CRM: движок автоматизации читает только Status и Title,
// а пишет Status при переводе заказа на следующий этап. Остальные поля
// заказа (клиент, состав, оплата) движку не нужны и здесь не представлены.
type Zakaz struct {
	// ID — числовой идентификатор заказа (id_zakaza).
	ID int64 `json:"id_zakaza"`

	// Title — название заказа, подставляется в описание задач.
	Title string `json:"title"`

	// Status — текущий этап производства (например "cutting").
	// Единственное разделяемое изменяемое состояние движка:
	// защищается advisory-lock'ом при оценке готовности этапа.
	Status string `json:"status"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}
