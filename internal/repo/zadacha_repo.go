package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aslan-crm/automation/internal/domain"
)

// ZadachaRepo — репозиторий для работы с задачами (zadachi).
type ZadachaRepo struct {
	db Querier
}

// NewZadachaRepo создаёт новый ZadachaRepo.
func NewZadachaRepo(db Querier) *ZadachaRepo {
	return &ZadachaRepo{db: db}
}

const zadachaColumns = `
	id_zadachi, title, description, responsible_user_id, zakaz_id, stage_id,
	due_date, original_deadline, status, priority, salary,
	dispatcher_id, dispatcher_percentage, automation_setting_id, created_at
`

// NextID выделяет следующий id задачи из последовательности БД.
//
// id_zadachi виден пользователям и должен монотонно расти, поэтому
// выделяется атомарно через nextval, а не чтением max(id)+1.
func (r *ZadachaRepo) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT nextval('zadachi_id_seq')`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next zadacha id: %w", err)
	}
	return id, nil
}

// Create создаёт новую задачу.
// Возвращает ErrAlreadyExists при конфликте уникальности: дубликат
// (zakaz_id, automation_setting_id) или коллизия id_zadachi.
func (r *ZadachaRepo) Create(ctx context.Context, task *domain.Zadacha) error {
	query := `
		INSERT INTO zadachi (` + zadachaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.ResponsibleUserID,
		task.ZakazID,
		task.StageID,
		task.DueDate,
		task.OriginalDeadline,
		task.Status,
		task.Priority,
		task.Salary,
		task.DispatcherID,
		task.DispatcherPercentage,
		task.AutomationSettingID,
		task.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert zadacha: %w", err)
	}
	return nil
}

// GetByID возвращает задачу по id_zadachi.
func (r *ZadachaRepo) GetByID(ctx context.Context, id int64) (*domain.Zadacha, error) {
	query := `SELECT ` + zadachaColumns + ` FROM zadachi WHERE id_zadachi = $1`
	return scanZadacha(r.db.QueryRow(ctx, query, id))
}

// ListByOrderAndStage возвращает задачи заказа на указанном этапе.
func (r *ZadachaRepo) ListByOrderAndStage(ctx context.Context, orderID int64, stageID string) ([]domain.Zadacha, error) {
	query := `
		SELECT ` + zadachaColumns + `
		FROM zadachi
		WHERE zakaz_id = $1 AND stage_id = $2
		ORDER BY id_zadachi ASC
	`
	rows, err := r.db.Query(ctx, query, orderID, stageID)
	if err != nil {
		return nil, fmt.Errorf("list zadachi by order and stage: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Zadacha
	for rows.Next() {
		task, err := scanZadacha(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// ExistsForSetting проверяет, создана ли уже задача по настройке для заказа.
// Это проверка инварианта дедупликации (одна задача на заказ+настройку).
func (r *ZadachaRepo) ExistsForSetting(ctx context.Context, orderID int64, settingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM zadachi
			WHERE zakaz_id = $1 AND automation_setting_id = $2
		)
	`, orderID, settingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check zadacha exists: %w", err)
	}
	return exists, nil
}

// UpdateStatus меняет статус задачи.
func (r *ZadachaRepo) UpdateStatus(ctx context.Context, id int64, status domain.TaskStatus) error {
	result, err := r.db.Exec(ctx, `
		UPDATE zadachi SET status = $2 WHERE id_zadachi = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update zadacha status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanZadacha читает задачу из строки результата.
func scanZadacha(row pgx.Row) (*domain.Zadacha, error) {
	var task domain.Zadacha
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.ResponsibleUserID,
		&task.ZakazID,
		&task.StageID,
		&task.DueDate,
		&task.OriginalDeadline,
		&task.Status,
		&task.Priority,
		&task.Salary,
		&task.DispatcherID,
		&task.DispatcherPercentage,
		&task.AutomationSettingID,
		&task.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan zadacha: %w", err)
	}
	return &task, nil
}
