package domain

// TaskStatus — статус выполнения задачи (zadacha).
//
// Жизненный цикл:
//
//	in_progress → under_review → completed
//	            ↘ completed (прямое завершение работником)
type TaskStatus string

const (
	// TaskStatusInProgress — задача создана и находится в работе.
	TaskStatusInProgress TaskStatus = "in_progress"

	// TaskStatusUnderReview — работник отметил выполнение, ждёт подтверждения.
	TaskStatusUnderReview TaskStatus = "under_review"

	// TaskStatusCompleted — задача завершена и подтверждена.
	TaskStatusCompleted TaskStatus = "completed"
)

// IsCompleted возвращает true, если задача завершена.
// Только завершённые задачи учитываются при проверке готовности этапа.
func (s TaskStatus) IsCompleted() bool {
	return s == TaskStatusCompleted
}

// StartCondition — условие создания задачи из настройки автоматизации.
type StartCondition string

const (
	// StartImmediate — задача создаётся сразу при входе заказа на этап.
	StartImmediate StartCondition = "immediate"

	// StartAfterTask — задача создаётся после завершения родительской задачи
	// (той, на которую указывает DependsOnTaskID).
	StartAfterTask StartCondition = "after_task"
)

// TaskPriority — приоритет задачи.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// StageNames — отображаемые имена производственных этапов.
// Ключ совпадает со значением zakaz.status.
var StageNames = map[string]string{
	"cutting":  "Распил",
	"edging":   "Кромление",
	"drilling": "Присадка",
	"sanding":  "Шлифовка",
	"priming":  "Грунт",
	"painting": "Покраска",
}

// StageName возвращает отображаемое имя этапа.
// Для неизвестного этапа возвращает его идентификатор как есть.
func StageName(stageID string) string {
	if name, ok := StageNames[stageID]; ok {
		return name
	}
	return stageID
}
