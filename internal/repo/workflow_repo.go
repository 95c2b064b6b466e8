package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Formflow/internal/domain"
)

// WorkflowRepo — репозиторий для работы с шаблонами и их слотами.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// Create создаёт новый workflow.
func (r *WorkflowRepo) Create(ctx context.Context, w *domain.Workflow) error {
	query := `
		INSERT INTO workflows (id, title, key, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.Title,
		w.Key,
		nullString(w.Description),
		w.Status,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, title, key, description, status, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`
	return scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

// List возвращает все workflows, сначала новые.
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.Workflow, error) {
	query := `
		SELECT id, title, key, description, status, created_at, updated_at
		FROM workflows
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *w)
	}
	return workflows, rows.Err()
}

// UpdateMeta обновляет метаданные workflow.
// Правки шаблона не затрагивают существующие runs.
func (r *WorkflowRepo) UpdateMeta(ctx context.Context, w *domain.Workflow) error {
	query := `
		UPDATE workflows
		SET title = $2, description = $3, status = $4, updated_at = now()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		w.ID,
		w.Title,
		nullString(w.Description),
		w.Status,
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddForm добавляет слот формы в шаблон.
func (r *WorkflowRepo) AddForm(ctx context.Context, f *domain.WorkflowForm) error {
	query := `
		INSERT INTO workflow_forms (id, workflow_id, form_id, required, allow_multiple, sort_order, default_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		f.ID,
		f.WorkflowID,
		f.FormID,
		f.Required,
		f.AllowMultiple,
		f.SortOrder,
		nullString(f.DefaultName),
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow form: %w", err)
	}
	return nil
}

// ListForms возвращает слоты шаблона в порядке sort_order.
func (r *WorkflowRepo) ListForms(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowForm, error) {
	return r.listForms(ctx, r.pool, workflowID)
}

// ListFormsTx возвращает слоты шаблона внутри открытой транзакции.
// Используется фабрикой run, чтобы снапшот слотов и создание items
// были согласованы.
func (r *WorkflowRepo) ListFormsTx(ctx context.Context, tx pgx.Tx, workflowID uuid.UUID) ([]domain.WorkflowForm, error) {
	return r.listForms(ctx, tx, workflowID)
}

func (r *WorkflowRepo) listForms(ctx context.Context, q Querier, workflowID uuid.UUID) ([]domain.WorkflowForm, error) {
	query := `
		SELECT id, workflow_id, form_id, required, allow_multiple, sort_order, default_name, created_at
		FROM workflow_forms
		WHERE workflow_id = $1
		ORDER BY sort_order ASC
	`
	rows, err := q.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list workflow forms: %w", err)
	}
	defer rows.Close()

	var forms []domain.WorkflowForm
	for rows.Next() {
		var f domain.WorkflowForm
		var defaultName *string
		err := rows.Scan(
			&f.ID,
			&f.WorkflowID,
			&f.FormID,
			&f.Required,
			&f.AllowMultiple,
			&f.SortOrder,
			&defaultName,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan workflow form: %w", err)
		}
		if defaultName != nil {
			f.DefaultName = *defaultName
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// scanWorkflow сканирует строку в Workflow.
func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var w domain.Workflow
	var description *string

	err := row.Scan(
		&w.ID,
		&w.Title,
		&w.Key,
		&description,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if description != nil {
		w.Description = *description
	}
	return &w, nil
}

// isUniqueViolation проверяет ошибку уникальности (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
