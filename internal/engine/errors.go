package engine

import "errors"

// Ошибки движка автоматизации.
var (
	// ErrOrderNotFound — заказ не найден в БД.
	ErrOrderNotFound = errors.New("order not found")

	// ErrTaskNotFound — задача не найдена в БД.
	ErrTaskNotFound = errors.New("task not found")
)
