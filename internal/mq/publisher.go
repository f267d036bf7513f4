package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeTaskCompleted MessageType = "task.completed"
	MessageTypeOrderAdvanced MessageType = "order.advanced"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// TaskCompletedPayload — payload для события завершения задачи.
type TaskCompletedPayload struct {
	TaskID              int64     `json:"task_id"`
	AutomationSettingID uuid.UUID `json:"automation_setting_id"`
	OrderID             int64     `json:"order_id"`
}

// OrderAdvancedPayload — payload для события перевода заказа.
type OrderAdvancedPayload struct {
	OrderID   int64   `json:"order_id"`
	FromStage string  `json:"from_stage"`
	ToStage   string  `json:"to_stage"`
	TaskIDs   []int64 `json:"task_ids,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishTaskCompleted публикует событие о завершённой задаче.
// Потребитель: Worker (резолвер зависимых задач + оценка этапа).
func (p *Publisher) PublishTaskCompleted(ctx context.Context, payload TaskCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTaskCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeTasks, RoutingKeyCompleted, msg)
}

// PublishOrderAdvanced публикует событие о переводе заказа на следующий этап.
// Потребители: клиенты CRM (realtime-обновление досок).
func (p *Publisher) PublishOrderAdvanced(ctx context.Context, payload OrderAdvancedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeOrderAdvanced,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeOrders, RoutingKeyAdvanced, msg)
}

// OrderAdvanced — форма PublishOrderAdvanced под интерфейс движка.
func (p *Publisher) OrderAdvanced(ctx context.Context, orderID int64, fromStage, toStage string, taskIDs []int64) error {
	return p.PublishOrderAdvanced(ctx, OrderAdvancedPayload{
		OrderID:   orderID,
		FromStage: fromStage,
		ToStage:   toStage,
		TaskIDs:   taskIDs,
	})
}
