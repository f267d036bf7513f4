package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aslan-crm/automation/internal/domain"
)

// ZakazRepo — репозиторий для работы с заказами (zakazi).
//
// Таблица принадлежит CRM: движок читает status/title и пишет status
// при переводе заказа на следующий этап.
type ZakazRepo struct {
	db Querier
}

// NewZakazRepo создаёт новый ZakazRepo.
func NewZakazRepo(db Querier) *ZakazRepo {
	return &ZakazRepo{db: db}
}

// GetByID возвращает заказ по id_zakaza.
func (r *ZakazRepo) GetByID(ctx context.Context, id int64) (*domain.Zakaz, error) {
	query := `
		SELECT id_zakaza, title, status, updated_at
		FROM zakazi
		WHERE id_zakaza = $1
	`
	var z domain.Zakaz
	err := r.db.QueryRow(ctx, query, id).Scan(&z.ID, &z.Title, &z.Status, &z.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get zakaz: %w", err)
	}
	return &z, nil
}

// UpdateStatus переводит заказ на новый этап.
func (r *ZakazRepo) UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	query := `
		UPDATE zakazi
		SET status = $2, updated_at = $3
		WHERE id_zakaza = $1
	`
	result, err := r.db.Exec(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update zakaz status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStages возвращает заказы, находящиеся на указанных этапах.
// Используется sweeper'ом для периодической переоценки.
func (r *ZakazRepo) ListByStages(ctx context.Context, stageIDs []string, limit int) ([]domain.Zakaz, error) {
	query := `
		SELECT id_zakaza, title, status, updated_at
		FROM zakazi
		WHERE status = ANY($1)
		ORDER BY updated_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, stageIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("list zakazi by stages: %w", err)
	}
	defer rows.Close()

	var orders []domain.Zakaz
	for rows.Next() {
		var z domain.Zakaz
		if err := rows.Scan(&z.ID, &z.Title, &z.Status, &z.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan zakaz: %w", err)
		}
		orders = append(orders, z)
	}
	return orders, rows.Err()
}
