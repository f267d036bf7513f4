package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aslan-crm/automation/internal/domain"
)

// SettingRepo — репозиторий настроек автоматизации (automation_settings).
type SettingRepo struct {
	db Querier
}

// NewSettingRepo создаёт новый SettingRepo.
func NewSettingRepo(db Querier) *SettingRepo {
	return &SettingRepo{db: db}
}

const settingColumns = `
	id, stage_id, stage_name, task_name, task_order_position,
	responsible_user_id, dispatcher_id, dispatcher_percentage,
	task_title_template, task_description_template,
	payment_amount, duration_days, start_condition, depends_on_task_id,
	created_at, updated_at
`

// ListAll возвращает все настройки, упорядоченные по этапу и позиции.
func (r *SettingRepo) ListAll(ctx context.Context) ([]domain.AutomationSetting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM automation_settings
		ORDER BY stage_id, task_order_position
	`
	return r.list(ctx, query)
}

// ListByStage возвращает все настройки этапа.
func (r *SettingRepo) ListByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM automation_settings
		WHERE stage_id = $1
		ORDER BY task_order_position
	`
	return r.list(ctx, query, stageID)
}

// ListImmediateByStage возвращает настройки этапа, по которым задачи
// создаются сразу при входе заказа: immediate и без зависимости.
func (r *SettingRepo) ListImmediateByStage(ctx context.Context, stageID string) ([]domain.AutomationSetting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM automation_settings
		WHERE stage_id = $1
		  AND start_condition = 'immediate'
		  AND depends_on_task_id IS NULL
		ORDER BY task_order_position
	`
	return r.list(ctx, query, stageID)
}

// ListDependents возвращает настройки, зависящие от указанной настройки.
func (r *SettingRepo) ListDependents(ctx context.Context, parentID uuid.UUID) ([]domain.AutomationSetting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM automation_settings
		WHERE depends_on_task_id = $1
		ORDER BY task_order_position
	`
	return r.list(ctx, query, parentID)
}

// GetByID возвращает настройку по id.
func (r *SettingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AutomationSetting, error) {
	query := `SELECT ` + settingColumns + ` FROM automation_settings WHERE id = $1`
	return scanSetting(r.db.QueryRow(ctx, query, id))
}

// Create создаёт новую настройку.
func (r *SettingRepo) Create(ctx context.Context, s *domain.AutomationSetting) error {
	query := `
		INSERT INTO automation_settings (` + settingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.StageID,
		s.StageName,
		s.TaskName,
		s.TaskOrderPosition,
		s.ResponsibleUserID,
		s.DispatcherID,
		s.DispatcherPercentage,
		s.TaskTitleTemplate,
		s.TaskDescriptionTemplate,
		s.PaymentAmount,
		s.DurationDays,
		s.StartCondition,
		s.DependsOnTaskID,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert automation setting: %w", err)
	}
	return nil
}

// Update обновляет настройку.
func (r *SettingRepo) Update(ctx context.Context, s *domain.AutomationSetting) error {
	query := `
		UPDATE automation_settings
		SET task_name = $2, task_order_position = $3,
		    responsible_user_id = $4, dispatcher_id = $5, dispatcher_percentage = $6,
		    task_title_template = $7, task_description_template = $8,
		    payment_amount = $9, duration_days = $10,
		    start_condition = $11, depends_on_task_id = $12,
		    updated_at = $13
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		s.ID,
		s.TaskName,
		s.TaskOrderPosition,
		s.ResponsibleUserID,
		s.DispatcherID,
		s.DispatcherPercentage,
		s.TaskTitleTemplate,
		s.TaskDescriptionTemplate,
		s.PaymentAmount,
		s.DurationDays,
		s.StartCondition,
		s.DependsOnTaskID,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update automation setting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMany обновляет набор настроек по одной.
//
// Best-effort: при ошибке возвращается первая, но уже применённые
// обновления не откатываются — UI после ошибки перезагружает список.
func (r *SettingRepo) UpdateMany(ctx context.Context, settings []domain.AutomationSetting) error {
	var firstErr error
	for i := range settings {
		if err := r.Update(ctx, &settings[i]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("update setting %s: %w", settings[i].ID, err)
		}
	}
	return firstErr
}

// Delete удаляет настройку.
// Проверку «последняя задача этапа» выполняет вызывающая сторона.
func (r *SettingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM automation_settings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete automation setting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func (r *SettingRepo) list(ctx context.Context, query string, args ...any) ([]domain.AutomationSetting, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list automation settings: %w", err)
	}
	defer rows.Close()

	var settings []domain.AutomationSetting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, *s)
	}
	return settings, rows.Err()
}

func scanSetting(row pgx.Row) (*domain.AutomationSetting, error) {
	var s domain.AutomationSetting
	err := row.Scan(
		&s.ID,
		&s.StageID,
		&s.StageName,
		&s.TaskName,
		&s.TaskOrderPosition,
		&s.ResponsibleUserID,
		&s.DispatcherID,
		&s.DispatcherPercentage,
		&s.TaskTitleTemplate,
		&s.TaskDescriptionTemplate,
		&s.PaymentAmount,
		&s.DurationDays,
		&s.StartCondition,
		&s.DependsOnTaskID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan automation setting: %w", err)
	}
	return &s, nil
}
