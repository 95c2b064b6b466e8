package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Formflow/internal/domain"
	"github.com/shaiso/Formflow/internal/engine"
	"github.com/shaiso/Formflow/internal/formservice"
	"github.com/shaiso/Formflow/internal/mq"
	"github.com/shaiso/Formflow/internal/repo"
	"github.com/shaiso/Formflow/internal/telemetry"
)

// Количество попыток применить переход при конкуренции за run.
const maxTransitionAttempts = 3

// Таймаут ожидания блокировки строки run. Контендящий переход
// не виснет: по истечении таймаута всплывает retryable ошибка.
const lockTimeout = "3s"

// SessionIssuer выдаёт сессии заполнения форм.
// Реализация — formservice.Client; интерфейс позволяет подменять
// Form Service в тестах.
type SessionIssuer interface {
	IssueSession(ctx context.Context, req formservice.IssueSessionRequest) (*formservice.Session, error)
}

// Service применяет переходы жизненного цикла run/item.
type Service struct {
	pool         *pgxpool.Pool
	workflowRepo *repo.WorkflowRepo
	runRepo      *repo.RunRepo
	itemRepo     *repo.ItemRepo
	sessions     SessionIssuer
	publisher    *mq.Publisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Service.
type Config struct {
	Pool         *pgxpool.Pool
	WorkflowRepo *repo.WorkflowRepo
	RunRepo      *repo.RunRepo
	ItemRepo     *repo.ItemRepo
	Sessions     SessionIssuer
	Publisher    *mq.Publisher // nil — события не публикуются
	Logger       *slog.Logger
}

// New создаёт новый Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		pool:         cfg.Pool,
		workflowRepo: cfg.WorkflowRepo,
		runRepo:      cfg.RunRepo,
		itemRepo:     cfg.ItemRepo,
		sessions:     cfg.Sessions,
		publisher:    cfg.Publisher,
		logger:       logger,
	}
}

// Result — итог перехода: обновлённый агрегат run и затронутый item
// (nil для операций уровня run). Мутирующие endpoint'ы возвращают
// агрегат, чтобы клиент обновил своё представление без второго запроса.
type Result struct {
	Run  *domain.WorkflowRun
	Item *domain.WorkflowItem
}

// withRunTx выполняет fn в транзакции под блокировкой строки run.
//
// Конкуренция (lock timeout, serialization failure, version conflict)
// повторяется до maxTransitionAttempts раз; повторяется весь переход,
// включая перечитывание run и items, а не только запись. После
// исчерпания попыток возвращается ErrContention.
func (s *Service) withRunTx(ctx context.Context, runID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error) error {
	var lastErr error

	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		err := s.runOnce(ctx, runID, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}

		lastErr = err
		telemetry.TransitionRetriesTotal.Inc()
		s.logger.Debug("transition contention, retrying",
			"run_id", runID,
			"attempt", attempt,
			"error", err,
		)
	}

	return fmt.Errorf("%w: %v", ErrContention, lastErr)
}

// runOnce — одна попытка перехода: транзакция + блокировка run + fn.
func (s *Service) runOnce(ctx context.Context, runID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback после commit — no-op; отмена контекста клиентом
	// откатывает транзакцию, полуприменённых переходов не бывает.
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '"+lockTimeout+"'"); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	run, err := s.runRepo.GetForUpdate(ctx, tx, runID)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// withItemTx — как withRunTx, но вход по item: item перечитывается
// внутри транзакции после взятия блокировки run.
func (s *Service) withItemTx(ctx context.Context, itemID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun, item *domain.WorkflowItem) error) error {
	// Быстрое чтение вне транзакции — только ради run_id.
	probe, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	return s.withRunTx(ctx, probe.RunID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error {
		item, err := s.itemRepo.GetByIDTx(ctx, tx, itemID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, run, item)
	})
}

// recompute пересчитывает и записывает агрегат run внутри транзакции
// перехода. Финальный шаг каждой мутации item.
func (s *Service) recompute(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error {
	items, err := s.itemRepo.ListByRunIDTx(ctx, tx, run.ID)
	if err != nil {
		return err
	}
	engine.Recompute(run, items)
	return s.runRepo.UpdateAggregate(ctx, tx, run)
}

// isRetryable — конкурентные ошибки, при которых переход
// повторяется целиком: несовпадение version, lock timeout (55P03),
// serialization failure (40001), deadlock (40P01).
func isRetryable(err error) bool {
	if errors.Is(err, repo.ErrVersionConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01":
			return true
		}
	}
	return false
}

// observe классифицирует итог перехода для метрик.
func observe(operation string, err error) {
	telemetry.ObserveTransition(operation, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, engine.ErrReasonRequired),
		errors.Is(err, engine.ErrNotRepeatable),
		errors.Is(err, ErrRunMismatch):
		return "bad_request"
	case errors.Is(err, engine.ErrRunCancelled),
		errors.Is(err, engine.ErrRunLocked),
		errors.Is(err, engine.ErrItemTerminal),
		errors.Is(err, engine.ErrItemAlreadySubmitted),
		errors.Is(err, ErrContention):
		return "conflict"
	case errors.Is(err, repo.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// publishRunEvent публикует lifecycle-событие run после commit.
// Ошибка публикации не откатывает переход: событие best-effort,
// потеря логируется как warning.
func (s *Service) publishRunEvent(ctx context.Context, msgType mq.MessageType, run *domain.WorkflowRun, actor uuid.UUID, reason string) {
	if s.publisher == nil {
		return
	}

	payload := mq.RunEventPayload{
		RunID:         run.ID,
		WorkflowID:    run.WorkflowID,
		Status:        string(run.Status),
		RequiredTotal: run.RequiredTotal,
		RequiredDone:  run.RequiredDone,
		Actor:         actor,
		Reason:        reason,
	}
	if err := s.publisher.PublishRunEvent(ctx, msgType, payload); err != nil {
		s.logger.Warn("failed to publish run event",
			"type", msgType,
			"run_id", run.ID,
			"error", err,
		)
	}
}

// completedByTransition сообщает, довёл ли переход run до completed.
// Для run, который был completed до перехода (включая повторный
// callback по уже submitted item), возвращает false: run.completed
// публикуется ровно один раз.
func completedByTransition(was domain.RunStatus, run *domain.WorkflowRun) bool {
	return was != domain.RunStatusCompleted && run.IsCompleted()
}

// publishCompletion публикует run.completed, если переход довёл run
// до completed.
func (s *Service) publishCompletion(ctx context.Context, was domain.RunStatus, run *domain.WorkflowRun, actor uuid.UUID) {
	if completedByTransition(was, run) {
		s.publishRunEvent(ctx, mq.MessageTypeRunCompleted, run, actor, "")
	}
}
