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
	MessageTypeRunLocked     MessageType = "run.locked"
	MessageTypeRunCancelled  MessageType = "run.cancelled"
	MessageTypeRunCompleted  MessageType = "run.completed"
	MessageTypeItemSkipped   MessageType = "item.skipped"
	MessageTypeFormSubmitted MessageType = "form.submitted"
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

// RunEventPayload — payload lifecycle-события run.
// Агрегат вкладывается целиком, чтобы Notification/Audit
// не ходил за состоянием отдельным запросом.
type RunEventPayload struct {
	RunID         uuid.UUID `json:"run_id"`
	WorkflowID    uuid.UUID `json:"workflow_id"`
	Status        string    `json:"status"`
	RequiredTotal int       `json:"required_total"`
	RequiredDone  int       `json:"required_done"`
	Actor         uuid.UUID `json:"actor,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// ItemSkippedPayload — payload события о пропуске item.
type ItemSkippedPayload struct {
	ItemID uuid.UUID `json:"item_id"`
	RunID  uuid.UUID `json:"run_id"`
	Reason string    `json:"reason"`
	Actor  uuid.UUID `json:"actor,omitempty"`
}

// FormSubmittedPayload — payload входящего события Form Service
// об отправке формы. Потребитель: formflow-listener.
type FormSubmittedPayload struct {
	WorkflowItemID uuid.UUID `json:"workflow_item_id"`
	WorkflowRunID  uuid.UUID `json:"workflow_run_id"`
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

// PublishRunEvent публикует lifecycle-событие run (lock, cancel, complete).
// Потребитель: Notification/Audit.
func (p *Publisher) PublishRunEvent(ctx context.Context, msgType MessageType, payload RunEventPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyLifecycle, msg)
}

// PublishItemSkipped публикует событие о пропуске item.
// Потребитель: Notification/Audit.
func (p *Publisher) PublishItemSkipped(ctx context.Context, payload ItemSkippedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeItemSkipped,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyLifecycle, msg)
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, exchange, routingKey, msg)
}
