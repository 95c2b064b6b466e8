package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents Exchange = "formflow.events"
	ExchangeForms  Exchange = "formflow.forms"
	ExchangeDLQ    Exchange = "formflow.dlq"
)

// Queues — имена очередей.
const (
	QueueEventsAudit    Queue = "events.audit"
	QueueFormsSubmitted Queue = "forms.submitted"
	QueueDLQForms       Queue = "dlq.forms"
)

// Routing keys.
const (
	RoutingKeyLifecycle RoutingKey = "lifecycle"
	RoutingKeySubmitted RoutingKey = "submitted"
	RoutingKeyDLQForms  RoutingKey = "forms"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeEvents, "direct"},
		{ExchangeForms, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQForms),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// events.audit — без DLQ (события доставляются best-effort)
		{QueueEventsAudit, nil},

		// forms.submitted — с DLQ (callback должен быть обработан,
		// некорректные сообщения уходят в DLQ для ручного разбора)
		{QueueFormsSubmitted, dlqArgs},

		// dlq.forms — сама DLQ очередь
		{QueueDLQForms, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueEventsAudit, RoutingKeyLifecycle, ExchangeEvents},
		{QueueFormsSubmitted, RoutingKeySubmitted, ExchangeForms},
		{QueueDLQForms, RoutingKeyDLQForms, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Formflow RabbitMQ Topology:

    formflow.events (direct)
    └── events.audit [routing: lifecycle]
            Consumer: Notification/Audit service

    formflow.forms (direct)
    └── forms.submitted [routing: submitted]
            Consumer: formflow-listener
            DLQ: dlq.forms

    formflow.dlq (direct)
    └── dlq.forms [routing: forms]
            Manual processing
  `
}
