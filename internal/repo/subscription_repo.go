package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

// SubscriptionRepo — репозиторий push-подписок (push_subscriptions).
type SubscriptionRepo struct {
	db Querier
}

// NewSubscriptionRepo создаёт новый SubscriptionRepo.
func NewSubscriptionRepo(db Querier) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// ListByUser возвращает все подписки пользователя (по одной на устройство).
func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
		WHERE user_id = $1
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.PushSubscription
	for rows.Next() {
		var s domain.PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Upsert сохраняет подписку. Повторная подписка того же устройства
// (user_id, endpoint) обновляет ключи.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, endpoint)
		DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
	`
	_, err := r.db.Exec(ctx, query, s.ID, s.UserID, s.Endpoint, s.P256dh, s.Auth, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint удаляет подписку по endpoint.
// Используется при отписке и при получении 404/410 от push-сервиса.
func (r *SubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
