package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"github.com/aslan-crm/automation/internal/domain"
	"github.com/aslan-crm/automation/internal/telemetry"
)

// WorkerDashboardURL — куда ведёт клик по уведомлению о новой задаче.
const WorkerDashboardURL = "/worker-dashboard"

// HistoryStore — запись уведомлений в историю.
type HistoryStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// SubscriptionStore — push-подписки пользователей.
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// VAPIDConfig — ключи для подписи push-сообщений.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string // mailto: контакт для push-сервиса
}

// VAPIDFromEnv читает ключи из окружения. Пустые ключи — валидное
// состояние: push отключён, история уведомлений продолжает вестись.
func VAPIDFromEnv() VAPIDConfig {
	return VAPIDConfig{
		PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber: os.Getenv("VAPID_SUBSCRIBER"),
	}
}

// Enabled сообщает, настроена ли отправка push.
func (c VAPIDConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// Notifier отправляет уведомления пользователям CRM.
type Notifier struct {
	history HistoryStore
	subs    SubscriptionStore
	vapid   VAPIDConfig
	logger  *slog.Logger
}

// New создаёт Notifier.
func New(history HistoryStore, subs SubscriptionStore, vapid VAPIDConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		history: history,
		subs:    subs,
		vapid:   vapid,
		logger:  logger,
	}
}

// pushPayload — тело push-сообщения, которое разбирает service worker.
type pushPayload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	URL     string `json:"url,omitempty"`
	TaskID  *int64 `json:"task_id,omitempty"`
	OrderID *int64 `json:"order_id,omitempty"`
}

// Send пишет уведомление в историю и рассылает push на все подписки
// пользователя. Возвращает количество доставленных push и общее число
// подписок. Ошибка возвращается только если не удалась запись в
// историю: сбой доставки push не считается сбоем операции.
func (n *Notifier) Send(ctx context.Context, note *domain.Notification) (sent, total int, err error) {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	if err := n.history.Create(ctx, note); err != nil {
		return 0, 0, fmt.Errorf("save notification: %w", err)
	}

	if !n.vapid.Enabled() {
		n.logger.Debug("push disabled, notification saved to history only",
			"user_id", note.UserID,
		)
		return 0, 0, nil
	}

	subs, err := n.subs.ListByUser(ctx, note.UserID)
	if err != nil {
		n.logger.Warn("list push subscriptions failed", "user_id", note.UserID, "error", err)
		return 0, 0, nil
	}
	if len(subs) == 0 {
		return 0, 0, nil
	}

	body, err := json.Marshal(pushPayload{
		Title:   note.Title,
		Body:    note.Body,
		URL:     note.URL,
		TaskID:  note.TaskID,
		OrderID: note.OrderID,
	})
	if err != nil {
		n.logger.Warn("marshal push payload failed", "error", err)
		return 0, len(subs), nil
	}

	for _, sub := range subs {
		if n.push(ctx, sub, body) {
			sent++
		}
	}
	return sent, len(subs), nil
}

// push отправляет сообщение на одну подписку.
func (n *Notifier) push(ctx context.Context, sub domain.PushSubscription, body []byte) bool {
	resp, err := webpush.SendNotification(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      n.vapid.Subscriber,
		VAPIDPublicKey:  n.vapid.PublicKey,
		VAPIDPrivateKey: n.vapid.PrivateKey,
		TTL:             3600,
	})
	if err != nil {
		telemetry.NotificationsFailed.Inc()
		n.logger.Warn("push delivery failed", "endpoint", sub.Endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// Подписка мертва: браузер отозвал её или пользователь отписался
		telemetry.NotificationsFailed.Inc()
		n.logger.Info("removing stale push subscription", "endpoint", sub.Endpoint)
		if err := n.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
			n.logger.Warn("delete stale subscription failed", "endpoint", sub.Endpoint, "error", err)
		}
		return false
	case resp.StatusCode >= 400:
		telemetry.NotificationsFailed.Inc()
		n.logger.Warn("push service rejected message",
			"endpoint", sub.Endpoint,
			"status", resp.StatusCode,
		)
		return false
	default:
		telemetry.NotificationsSent.Inc()
		return true
	}
}

// NotifyNewTask отправляет уведомление о созданной автоматизацией задаче.
func (n *Notifier) NotifyNewTask(ctx context.Context, userID uuid.UUID, title string, taskID, orderID int64) error {
	_, _, err := n.Send(ctx, &domain.Notification{
		UserID:  userID,
		Title:   "Новая задача",
		Body:    title,
		TaskID:  &taskID,
		OrderID: &orderID,
		URL:     WorkerDashboardURL,
	})
	return err
}
