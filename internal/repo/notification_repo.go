package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
)

// NotificationRepo — репозиторий истории уведомлений (notifications).
type NotificationRepo struct {
	db Querier
}

// NewNotificationRepo создаёт новый NotificationRepo.
func NewNotificationRepo(db Querier) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create сохраняет уведомление в историю.
// Вызывается до отправки push: история не зависит от успеха доставки.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, body, task_id, order_id, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Body,
		n.TaskID,
		n.OrderID,
		n.URL,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser возвращает последние уведомления пользователя.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, title, body, task_id, order_id, url, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.TaskID, &n.OrderID, &n.URL, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
