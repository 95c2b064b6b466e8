package listener

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Formflow/internal/engine"
	"github.com/shaiso/Formflow/internal/lifecycle"
	"github.com/shaiso/Formflow/internal/mq"
	"github.com/shaiso/Formflow/internal/repo"
)

// Submitter применяет переход markSubmitted.
// В продакшене это lifecycle.Service.
type Submitter interface {
	MarkSubmitted(ctx context.Context, itemID, runID uuid.UUID) (*lifecycle.Result, error)
}

// Listener потребляет события forms.submitted из RabbitMQ и
// применяет переход markSubmitted. Это второй вход для callback
// Form Service наряду с HTTP endpoint: Form Service шлёт в очередь,
// когда движок недоступен синхронно.
type Listener struct {
	submitter Submitter
	conn      *mq.Connection
	consumer  *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Listener.
type Config struct {
	Submitter Submitter
	Conn      *mq.Connection
	Logger    *slog.Logger
}

// New создаёт новый Listener.
func New(cfg Config) *Listener {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Listener{
		submitter: cfg.Submitter,
		conn:      cfg.Conn,
		logger:    logger,
	}
}

// Start запускает потребление forms.submitted.
func (l *Listener) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	l.cancelFunc = cancel

	l.consumer = mq.NewConsumer(l.conn, l.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueFormsSubmitted),
		Handler:  l.handleFormSubmitted,
		Prefetch: 10,
	})

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("forms consumer error", "error", err)
		}
	}()

	l.logger.Info("listener started", "queue", mq.QueueFormsSubmitted)
	return nil
}

// Stop останавливает Listener.
func (l *Listener) Stop() {
	l.logger.Info("stopping listener...")

	if l.cancelFunc != nil {
		l.cancelFunc()
	}
	if l.consumer != nil {
		l.consumer.Stop()
	}

	l.wg.Wait()
	l.logger.Info("listener stopped")
}

// handleFormSubmitted обрабатывает событие об отправленной форме.
//
// Отказ guard-правил (run отменён, item уже skipped, run не совпал)
// логируется на warn и подтверждается: повтор сообщения исход не
// изменит. Nack с requeue получают только транзиентные ошибки —
// contention на run и инфраструктурные сбои.
func (l *Listener) handleFormSubmitted(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.FormSubmittedPayload](&delivery.Message)
	if err != nil {
		l.logger.Error("failed to parse form.submitted payload", "error", err)
		// Некорректный payload — повтор бессмысленен
		return nil
	}

	l.logger.Debug("received form.submitted event",
		"item_id", payload.WorkflowItemID,
		"run_id", payload.WorkflowRunID,
	)

	_, err = l.submitter.MarkSubmitted(ctx, payload.WorkflowItemID, payload.WorkflowRunID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrRunCancelled),
			errors.Is(err, engine.ErrItemTerminal),
			errors.Is(err, lifecycle.ErrRunMismatch),
			errors.Is(err, repo.ErrNotFound):
			l.logger.Warn("form.submitted not applied",
				"item_id", payload.WorkflowItemID,
				"run_id", payload.WorkflowRunID,
				"reason", err,
			)
			return nil
		default:
			l.logger.Error("failed to apply form.submitted",
				"item_id", payload.WorkflowItemID,
				"run_id", payload.WorkflowRunID,
				"error", err,
			)
			return err
		}
	}

	return nil
}
