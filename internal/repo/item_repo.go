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

const itemColumns = `id, run_id, workflow_form_id, form_id, name, sequence_num,
	       required, allow_multiple, status, assigned_user_id, skipped_reason,
	       form_session_id, form_session_url, started_at, submitted_at, created_at`

// ItemRepo — репозиторий для работы с workflow items.
type ItemRepo struct {
	pool *pgxpool.Pool
}

// NewItemRepo создаёт новый ItemRepo.
func NewItemRepo(pool *pgxpool.Pool) *ItemRepo {
	return &ItemRepo{pool: pool}
}

// Create создаёт новый item внутри транзакции.
func (r *ItemRepo) Create(ctx context.Context, tx pgx.Tx, item *domain.WorkflowItem) error {
	query := `
		INSERT INTO workflow_items (id, run_id, workflow_form_id, form_id, name,
			sequence_num, required, allow_multiple, status, assigned_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.Exec(ctx, query,
		item.ID,
		item.RunID,
		item.WorkflowFormID,
		item.FormID,
		nullString(item.Name),
		item.SequenceNum,
		item.Required,
		item.AllowMultiple,
		item.Status,
		nullUUID(item.AssignedUserID),
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID возвращает item по ID.
func (r *ItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowItem, error) {
	return r.get(ctx, r.pool, id)
}

// GetByIDTx возвращает item внутри открытой транзакции.
// Item перечитывается после взятия блокировки run, чтобы переход
// работал с актуальным состоянием, а не со снимком до блокировки.
func (r *ItemRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WorkflowItem, error) {
	return r.get(ctx, tx, id)
}

func (r *ItemRepo) get(ctx context.Context, q Querier, id uuid.UUID) (*domain.WorkflowItem, error) {
	query := `SELECT ` + itemColumns + ` FROM workflow_items WHERE id = $1`
	return scanItem(q.QueryRow(ctx, query, id))
}

// ListByRunID возвращает все items run в порядке sequence_num.
func (r *ItemRepo) ListByRunID(ctx context.Context, runID uuid.UUID) ([]domain.WorkflowItem, error) {
	return r.list(ctx, r.pool, runID)
}

// ListByRunIDTx возвращает items run внутри открытой транзакции.
// Агрегатор читает полный набор items под блокировкой run.
func (r *ItemRepo) ListByRunIDTx(ctx context.Context, tx pgx.Tx, runID uuid.UUID) ([]domain.WorkflowItem, error) {
	return r.list(ctx, tx, runID)
}

func (r *ItemRepo) list(ctx context.Context, q Querier, runID uuid.UUID) ([]domain.WorkflowItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM workflow_items
		WHERE run_id = $1
		ORDER BY sequence_num ASC
	`
	rows, err := q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list items by run_id: %w", err)
	}
	defer rows.Close()

	var items []domain.WorkflowItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Update записывает изменяемые поля item внутри транзакции.
func (r *ItemRepo) Update(ctx context.Context, tx pgx.Tx, item *domain.WorkflowItem) error {
	query := `
		UPDATE workflow_items
		SET status = $2, assigned_user_id = $3, skipped_reason = $4,
		    form_session_id = $5, form_session_url = $6,
		    started_at = $7, submitted_at = $8
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, query,
		item.ID,
		item.Status,
		nullUUID(item.AssignedUserID),
		nullString(item.SkippedReason),
		nullString(item.FormSessionID),
		nullString(item.FormSessionURL),
		item.StartedAt,
		item.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextSequenceNum возвращает следующий свободный sequence_num для run.
// Вызывается под блокировкой run, поэтому гонок за номер нет.
func (r *ItemRepo) NextSequenceNum(ctx context.Context, tx pgx.Tx, runID uuid.UUID) (int, error) {
	var next int
	query := `
		SELECT COALESCE(MAX(sequence_num), 0) + 1
		FROM workflow_items
		WHERE run_id = $1
	`
	if err := tx.QueryRow(ctx, query, runID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sequence num: %w", err)
	}
	return next, nil
}

// scanItem сканирует строку в WorkflowItem.
func scanItem(row pgx.Row) (*domain.WorkflowItem, error) {
	var item domain.WorkflowItem
	var name, skippedReason, sessionID, sessionURL *string

	err := row.Scan(
		&item.ID,
		&item.RunID,
		&item.WorkflowFormID,
		&item.FormID,
		&name,
		&item.SequenceNum,
		&item.Required,
		&item.AllowMultiple,
		&item.Status,
		&item.AssignedUserID,
		&skippedReason,
		&sessionID,
		&sessionURL,
		&item.StartedAt,
		&item.SubmittedAt,
		&item.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}

	if name != nil {
		item.Name = *name
	}
	if skippedReason != nil {
		item.SkippedReason = *skippedReason
	}
	if sessionID != nil {
		item.FormSessionID = *sessionID
	}
	if sessionURL != nil {
		item.FormSessionURL = *sessionURL
	}
	return &item, nil
}
