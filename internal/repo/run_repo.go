package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Formflow/internal/domain"
)

const runColumns = `id, workflow_id, display_name, status, locked_at, locked_by,
	       cancelled_at, cancelled_reason, required_total, required_done,
	       version, created_by, created_at, updated_at`

// RunRepo — репозиторий для работы с workflow runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run внутри транзакции фабрики.
func (r *RunRepo) Create(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error {
	query := `
		INSERT INTO workflow_runs (id, workflow_id, display_name, status,
			required_total, required_done, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.Exec(ctx, query,
		run.ID,
		run.WorkflowID,
		run.DisplayName,
		run.Status,
		run.RequiredTotal,
		run.RequiredDone,
		run.Version,
		run.CreatedBy,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowRun, error) {
	query := `SELECT ` + runColumns + ` FROM workflow_runs WHERE id = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// GetForUpdate читает run с блокировкой строки (SELECT ... FOR UPDATE).
//
// Run — единица сериализации: блокировка строки run на время
// перехода плюс пересчёта гарантирует, что агрегатор видит
// согласованный снимок всех items. Runs между собой не блокируются.
// Ожидание ограничено lock_timeout транзакции (см. lifecycle).
func (r *RunRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WorkflowRun, error) {
	query := `SELECT ` + runColumns + ` FROM workflow_runs WHERE id = $1 FOR UPDATE`
	return scanRun(tx.QueryRow(ctx, query, id))
}

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	WorkflowID *uuid.UUID
	Status     domain.RunStatus
	CreatedBy  *uuid.UUID
	Limit      int
	Offset     int
}

// List возвращает список runs с фильтрацией, сначала новые.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.WorkflowRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM workflow_runs
		WHERE ($1::uuid IS NULL OR workflow_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::uuid IS NULL OR created_by = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.WorkflowID),
		nullString(string(filter.Status)),
		nullUUID(filter.CreatedBy),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.WorkflowRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// UpdateAggregate записывает агрегат run с compare-and-set по version.
//
// При несовпадении version возвращает ErrVersionConflict: другая
// транзакция успела изменить агрегат, переход нужно повторить
// целиком. При успехе инкрементирует run.Version в памяти.
func (r *RunRepo) UpdateAggregate(ctx context.Context, tx pgx.Tx, run *domain.WorkflowRun) error {
	query := `
		UPDATE workflow_runs
		SET status = $3, locked_at = $4, locked_by = $5,
		    cancelled_at = $6, cancelled_reason = $7,
		    required_total = $8, required_done = $9,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
	`
	result, err := tx.Exec(ctx, query,
		run.ID,
		run.Version,
		run.Status,
		run.LockedAt,
		nullUUID(run.LockedBy),
		run.CancelledAt,
		nullString(run.CancelledReason),
		run.RequiredTotal,
		run.RequiredDone,
	)
	if err != nil {
		return fmt.Errorf("update run aggregate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	run.Version++
	return nil
}

// scanRun сканирует строку в WorkflowRun.
func scanRun(row pgx.Row) (*domain.WorkflowRun, error) {
	var run domain.WorkflowRun
	var cancelledReason *string

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.DisplayName,
		&run.Status,
		&run.LockedAt,
		&run.LockedBy,
		&run.CancelledAt,
		&cancelledReason,
		&run.RequiredTotal,
		&run.RequiredDone,
		&run.Version,
		&run.CreatedBy,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if cancelledReason != nil {
		run.CancelledReason = *cancelledReason
	}
	return &run, nil
}
