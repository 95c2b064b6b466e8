package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shaiso/Formflow/internal/domain"
	"github.com/shaiso/Formflow/internal/engine"
	"github.com/shaiso/Formflow/internal/formservice"
	"github.com/shaiso/Formflow/internal/mq"
	"github.com/shaiso/Formflow/internal/repo"
	"github.com/shaiso/Formflow/internal/telemetry"
)

// CreateRun создаёт run из шаблона: строка run плюс по одному item
// на каждый слот, атомарно. Частично созданный run не наблюдаем.
//
// Возвращает repo.ErrNotFound, если шаблон не существует или inactive.
func (s *Service) CreateRun(ctx context.Context, workflowID uuid.UUID, displayName string, actor uuid.UUID) (run *domain.WorkflowRun, items []domain.WorkflowItem, err error) {
	defer func() { observe("create_run", err) }()

	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	if !workflow.IsActive() {
		return nil, nil, repo.ErrNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	forms, err := s.workflowRepo.ListFormsTx(ctx, tx, workflowID)
	if err != nil {
		return nil, nil, err
	}

	requiredTotal := 0
	for _, f := range forms {
		if f.Required {
			requiredTotal++
		}
	}

	now := time.Now().UTC()
	run = &domain.WorkflowRun{
		ID:            uuid.New(),
		WorkflowID:    workflowID,
		DisplayName:   displayName,
		Status:        domain.RunStatusNotStarted,
		RequiredTotal: requiredTotal,
		RequiredDone:  0,
		Version:       1,
		CreatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.runRepo.Create(ctx, tx, run); err != nil {
		return nil, nil, err
	}

	// SequenceNum — плотный порядковый номер (1..n) в порядке
	// sort_order слотов, не сам sort_order: значения sort_order
	// не обязаны быть уникальными, а повторы (AddRepeat) получают
	// max+1 и продолжают ту же последовательность.
	items = make([]domain.WorkflowItem, 0, len(forms))
	for i, f := range forms {
		item := domain.WorkflowItem{
			ID:             uuid.New(),
			RunID:          run.ID,
			WorkflowFormID: f.ID,
			FormID:         f.FormID,
			Name:           f.DefaultName,
			SequenceNum:    i + 1,
			Required:       f.Required,
			AllowMultiple:  f.AllowMultiple,
			Status:         domain.ItemStatusNotStarted,
			CreatedAt:      now,
		}
		if err := s.itemRepo.Create(ctx, tx, &item); err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}

	telemetry.WithWorkflowID(telemetry.WithRunID(s.logger, run.ID.String()), workflowID.String()).Info("run created",
		"items", len(items),
		"required_total", requiredTotal,
	)
	return run, items, nil
}

// Assign назначает (или снимает, userID=nil) исполнителя item.
// Запрещено на заблокированном и отменённом run.
func (s *Service) Assign(ctx context.Context, itemID uuid.UUID, userID *uuid.UUID, actor uuid.UUID) (res *Result, err error) {
	defer func() { observe("assign", err) }()

	err = s.withItemTx(ctx, itemID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun, item *domain.WorkflowItem) error {
		if err := engine.CanAssign(run); err != nil {
			return err
		}

		item.AssignedUserID = userID
		if err := s.itemRepo.Update(ctx, tx, item); err != nil {
			return err
		}
		if err := s.recompute(ctx, tx, run); err != nil {
			return err
		}

		res = &Result{Run: run, Item: item}
		return nil
	})
	return res, err
}

// Start переводит item в in_progress и возвращает сессию заполнения
// формы. Повторный start уже начатого item идемпотентен: возвращается
// сохранённая сессия, новая не выдаётся.
//
// Сессия выдаётся до транзакции, чтобы не держать блокировку run
// на время похода во внешний Form Service; если переход в итоге
// отклонён, выданная сессия просто не используется.
func (s *Service) Start(ctx context.Context, itemID uuid.UUID, actor uuid.UUID) (res *Result, err error) {
	defer func() { observe("start", err) }()

	probe, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	probeRun, err := s.runRepo.GetByID(ctx, probe.RunID)
	if err != nil {
		return nil, err
	}
	if err := engine.CanStart(probeRun, probe); err != nil {
		return nil, err
	}

	var session *formservice.Session
	if probe.Status == domain.ItemStatusNotStarted {
		session, err = s.sessions.IssueSession(ctx, formservice.IssueSessionRequest{
			ItemID: probe.ID,
			RunID:  probe.RunID,
			FormID: probe.FormID,
			Actor:  actor,
		})
		if err != nil {
			return nil, fmt.Errorf("issue form session: %w", err)
		}
	}

	err = s.withItemTx(ctx, itemID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun, item *domain.WorkflowItem) error {
		if err := engine.CanStart(run, item); err != nil {
			return err
		}

		// Параллельный start успел раньше: возвращаем его сессию.
		if item.Status == domain.ItemStatusInProgress {
			res = &Result{Run: run, Item: item}
			return nil
		}

		if session == nil {
			// Guard пропустил not_started item, но сессии нет:
			// состояние изменилось между probe и транзакцией.
			return repo.ErrInvalidState
		}

		item.MarkInProgress(session.ID, session.URL)
		if err := s.itemRepo.Update(ctx, tx, item); err != nil {
			return err
		}
		if err := s.recompute(ctx, tx, run); err != nil {
			return err
		}

		res = &Result{Run: run, Item: item}
		return nil
	})
	return res, err
}

// Skip пропускает item с обязательной причиной. Допустим на
// заблокированном run: существующая работа остаётся закрываемой.
func (s *Service) Skip(ctx context.Context, itemID uuid.UUID, reason string, actor uuid.UUID) (res *Result, err error) {
	defer func() { observe("skip", err) }()

	var was domain.RunStatus
	err = s.withItemTx(ctx, itemID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun, item *domain.WorkflowItem) error {
		if err := engine.CanSkip(run, item, reason); err != nil {
			return err
		}

		was = run.Status
		item.MarkSkipped(reason)
		if err := s.itemRepo.Update(ctx, tx, item); err != nil {
			return err
		}
		if err := s.recompute(ctx, tx, run); err != nil {
			return err
		}

		res = &Result{Run: run, Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if perr := s.publisher.PublishItemSkipped(ctx, mq.ItemSkippedPayload{
			ItemID: res.Item.ID,
			RunID:  res.Run.ID,
			Reason: reason,
			Actor:  actor,
		}); perr != nil {
			telemetry.WithItemID(s.logger, itemID.String()).Warn("failed to publish item.skipped", "error", perr)
		}
	}
	s.publishCompletion(ctx, was, res.Run, actor)
	return res, nil
}

// MarkSubmitted отмечает item как отправленный. Вызывается только
// callback'ом Form Service (REST или очередь), не оператором.
//
// Идемпотентен: повторный вызов для уже submitted item — no-op,
// required_done второй раз не инкрементируется. Гонка с отменой run
// отдаёт engine.ErrRunCancelled — вызывающий логирует и не эскалирует.
func (s *Service) MarkSubmitted(ctx context.Context, itemID, runID uuid.UUID) (res *Result, err error) {
	defer func() { observe("mark_submitted", err) }()

	var was domain.RunStatus
	err = s.withItemTx(ctx, itemID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun, item *domain.WorkflowItem) error {
		if item.RunID != runID {
			return ErrRunMismatch
		}
		if err := engine.CanMarkSubmitted(run, item); err != nil {
			return err
		}

		// Повторный callback: состояние уже финальное. was обязан
		// совпасть с текущим статусом, иначе run.completed
		// опубликуется повторно.
		if item.Status == domain.ItemStatusSubmitted {
			was = run.Status
			res = &Result{Run: run, Item: item}
			return nil
		}

		was = run.Status
		item.MarkSubmitted()
		if err := s.itemRepo.Update(ctx, tx, item); err != nil {
			return err
		}
		if err := s.recompute(ctx, tx, run); err != nil {
			return err
		}

		res = &Result{Run: run, Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCompletion(ctx, was, res.Run, uuid.Nil)
	return res, nil
}

// AddRepeat создаёт новый item того же слота, что и fromItemID.
// Только для слотов с allow_multiple; запрещено на locked/cancelled run.
// Completed run повторы принимает: закрытый слот остаётся закрытым.
func (s *Service) AddRepeat(ctx context.Context, fromItemID uuid.UUID, assignedUserID *uuid.UUID, actor uuid.UUID) (res *Result, err error) {
	defer func() { observe("add_repeat", err) }()

	err = s.withItemTx(ctx, fromItemID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun, from *domain.WorkflowItem) error {
		if err := engine.CanAddRepeat(run, from); err != nil {
			return err
		}

		seq, err := s.itemRepo.NextSequenceNum(ctx, tx, run.ID)
		if err != nil {
			return err
		}

		item := &domain.WorkflowItem{
			ID:             uuid.New(),
			RunID:          run.ID,
			WorkflowFormID: from.WorkflowFormID,
			FormID:         from.FormID,
			Name:           from.Name,
			SequenceNum:    seq,
			Required:       from.Required,
			AllowMultiple:  from.AllowMultiple,
			Status:         domain.ItemStatusNotStarted,
			AssignedUserID: assignedUserID,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.itemRepo.Create(ctx, tx, item); err != nil {
			return err
		}
		if err := s.recompute(ctx, tx, run); err != nil {
			return err
		}

		res = &Result{Run: run, Item: item}
		return nil
	})
	return res, err
}

// Lock административно блокирует run: запрещает assign и addRepeat,
// не трогая существующую работу. Идемпотентен.
func (s *Service) Lock(ctx context.Context, runID uuid.UUID, actor uuid.UUID) (res *Result, err error) {
	defer func() { observe("lock", err) }()

	alreadyLocked := false
	err = s.withRunTx(ctx, runID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error {
		if err := engine.CanLock(run); err != nil {
			return err
		}

		if run.IsLocked() {
			alreadyLocked = true
			res = &Result{Run: run}
			return nil
		}

		run.MarkLocked(actor)
		if err := s.runRepo.UpdateAggregate(ctx, tx, run); err != nil {
			return err
		}

		res = &Result{Run: run}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyLocked {
		s.publishRunEvent(ctx, mq.MessageTypeRunLocked, res.Run, actor, "")
	}
	return res, nil
}

// Cancel отменяет run с обязательной причиной. Необратимо; легально
// из любого неотменённого состояния, включая completed. После отмены
// ни один переход items не принимается.
func (s *Service) Cancel(ctx context.Context, runID uuid.UUID, reason string, actor uuid.UUID) (res *Result, err error) {
	defer func() { observe("cancel", err) }()

	err = s.withRunTx(ctx, runID, func(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error {
		if err := engine.CanCancel(run, reason); err != nil {
			return err
		}

		run.MarkCancelled(reason)
		if err := s.runRepo.UpdateAggregate(ctx, tx, run); err != nil {
			return err
		}

		res = &Result{Run: run}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRunEvent(ctx, mq.MessageTypeRunCancelled, res.Run, actor, reason)
	return res, nil
}
