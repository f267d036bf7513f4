package domain

import (
	"time"

	"github.com/google/uuid"
)

// StageChainLink — звено цепочки автоматизации этапов.
//
// Цепочка задаёт направленные переходы from_stage → to_stage. Движок
// предполагает топологию «один следующий этап»: не более одного активного
// исходящего звена на from_stage (обеспечивается частичным уникальным
// индексом в БД).
type StageChainLink struct {
	// ID — уникальный идентификатор звена.
	ID uuid.UUID `json:"id"`

	// FromStageID — этап, с которого выполняется переход.
	FromStageID string `json:"from_stage_id"`

	// ToStageID — следующий этап. nil означает терминальный этап:
	// заказ остаётся на FromStageID даже при полной готовности.
	ToStageID *string `json:"to_stage_id,omitempty"`

	// OrderPosition — порядок звена в схеме (для отображения и reorder).
	OrderPosition int `json:"order_position"`

	// IsActive — включена ли автоматизация перехода.
	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal возвращает true, если звено не ведёт на следующий этап.
func (l *StageChainLink) IsTerminal() bool {
	return l.ToStageID == nil
}
