package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Formflow/internal/engine"
	"github.com/shaiso/Formflow/internal/lifecycle"
	"github.com/shaiso/Formflow/internal/mq"
	"github.com/shaiso/Formflow/internal/repo"
)

// stubSubmitter возвращает заранее заданную ошибку и запоминает вызов.
type stubSubmitter struct {
	err    error
	calls  int
	itemID uuid.UUID
	runID  uuid.UUID
}

func (s *stubSubmitter) MarkSubmitted(ctx context.Context, itemID, runID uuid.UUID) (*lifecycle.Result, error) {
	s.calls++
	s.itemID = itemID
	s.runID = runID
	if s.err != nil {
		return nil, s.err
	}
	return &lifecycle.Result{}, nil
}

func newTestListener(sub Submitter) *Listener {
	return New(Config{
		Submitter: sub,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func submittedDelivery(itemID, runID uuid.UUID) *mq.Delivery {
	return &mq.Delivery{
		Message: mq.Message{
			ID:   uuid.New().String(),
			Type: mq.MessageTypeFormSubmitted,
			Payload: map[string]any{
				"workflow_item_id": itemID.String(),
				"workflow_run_id":  runID.String(),
			},
		},
	}
}

func TestHandleFormSubmitted(t *testing.T) {
	sub := &stubSubmitter{}
	l := newTestListener(sub)

	itemID := uuid.New()
	runID := uuid.New()

	err := l.handleFormSubmitted(context.Background(), submittedDelivery(itemID, runID))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if sub.calls != 1 {
		t.Fatalf("expected 1 call, got %d", sub.calls)
	}
	if sub.itemID != itemID || sub.runID != runID {
		t.Errorf("submitter called with wrong ids: item=%s run=%s", sub.itemID, sub.runID)
	}
}

func TestHandleFormSubmittedGuardFailureIsAcked(t *testing.T) {
	// Отказ guard-правил не должен возвращать ошибку: сообщение
	// подтверждается, повтор исход не изменит.
	guardErrs := []error{
		engine.ErrRunCancelled,
		engine.ErrItemTerminal,
		lifecycle.ErrRunMismatch,
		repo.ErrNotFound,
	}

	for _, guardErr := range guardErrs {
		sub := &stubSubmitter{err: guardErr}
		l := newTestListener(sub)

		err := l.handleFormSubmitted(context.Background(), submittedDelivery(uuid.New(), uuid.New()))
		if err != nil {
			t.Errorf("guard failure %v should be acked, got error %v", guardErr, err)
		}
	}
}

func TestHandleFormSubmittedTransientFailureIsRequeued(t *testing.T) {
	transientErrs := []error{
		lifecycle.ErrContention,
		errors.New("connection refused"),
	}

	for _, transientErr := range transientErrs {
		sub := &stubSubmitter{err: transientErr}
		l := newTestListener(sub)

		err := l.handleFormSubmitted(context.Background(), submittedDelivery(uuid.New(), uuid.New()))
		if err == nil {
			t.Errorf("transient failure %v should be returned for requeue", transientErr)
		}
	}
}

func TestHandleFormSubmittedBadPayload(t *testing.T) {
	sub := &stubSubmitter{}
	l := newTestListener(sub)

	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:      uuid.New().String(),
			Type:    mq.MessageTypeFormSubmitted,
			Payload: map[string]any{"workflow_item_id": "not-a-uuid"},
		},
	}

	err := l.handleFormSubmitted(context.Background(), delivery)
	if err != nil {
		t.Errorf("poison payload should not be requeued, got %v", err)
	}
	if sub.calls != 0 {
		t.Errorf("submitter should not be called for poison payload, got %d calls", sub.calls)
	}
}
