package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aslan-crm/automation/internal/domain"
)

// ChainRepo — репозиторий цепочки автоматизации этапов (stage_automation_chain).
type ChainRepo struct {
	pool *pgxpool.Pool
}

// NewChainRepo создаёт новый ChainRepo.
func NewChainRepo(pool *pgxpool.Pool) *ChainRepo {
	return &ChainRepo{pool: pool}
}

const chainColumns = `
	id, from_stage_id, to_stage_id, order_position, is_active, created_at, updated_at
`

// List возвращает все звенья цепочки, упорядоченные по позиции.
func (r *ChainRepo) List(ctx context.Context) ([]domain.StageChainLink, error) {
	query := `
		SELECT ` + chainColumns + `
		FROM stage_automation_chain
		ORDER BY order_position
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stage chain: %w", err)
	}
	defer rows.Close()

	var links []domain.StageChainLink
	for rows.Next() {
		link, err := scanChainLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// GetByFromStage возвращает звено с указанным исходным этапом.
// Инвариант «не более одного активного исходящего звена» обеспечивает
// частичный уникальный индекс, поэтому single-row запрос корректен.
func (r *ChainRepo) GetByFromStage(ctx context.Context, fromStageID string) (*domain.StageChainLink, error) {
	query := `
		SELECT ` + chainColumns + `
		FROM stage_automation_chain
		WHERE from_stage_id = $1
		ORDER BY is_active DESC, order_position
		LIMIT 1
	`
	return scanChainLink(r.pool.QueryRow(ctx, query, fromStageID))
}

// ListActiveFromStages возвращает этапы, с которых настроен активный переход.
// Используется sweeper'ом для выбора заказов, подлежащих переоценке.
func (r *ChainRepo) ListActiveFromStages(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT from_stage_id FROM stage_automation_chain WHERE is_active
	`)
	if err != nil {
		return nil, fmt.Errorf("list active from stages: %w", err)
	}
	defer rows.Close()

	var stages []string
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// SetActive включает или выключает автоматизацию звена.
func (r *ChainRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE stage_automation_chain
		SET is_active = $2, updated_at = $3
		WHERE id = $1
	`, id, active, time.Now())
	if err != nil {
		return fmt.Errorf("set chain link active: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder переписывает order_position звеньев в порядке переданных id.
// Выполняется в одной транзакции: частично переупорядоченная цепочка
// бессмысленна для UI.
func (r *ChainRepo) Reorder(ctx context.Context, ids []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for i, id := range ids {
		result, err := tx.Exec(ctx, `
			UPDATE stage_automation_chain
			SET order_position = $2, updated_at = $3
			WHERE id = $1
		`, id, i+1, now)
		if err != nil {
			return fmt.Errorf("reorder chain link %s: %w", id, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("reorder chain link %s: %w", id, ErrNotFound)
		}
	}

	return tx.Commit(ctx)
}

func scanChainLink(row pgx.Row) (*domain.StageChainLink, error) {
	var link domain.StageChainLink
	err := row.Scan(
		&link.ID,
		&link.FromStageID,
		&link.ToStageID,
		&link.OrderPosition,
		&link.IsActive,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chain link: %w", err)
	}
	return &link, nil
}
