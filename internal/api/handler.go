package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Formflow/internal/identity"
	"github.com/shaiso/Formflow/internal/lifecycle"
	"github.com/shaiso/Formflow/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflowRepo *repo.WorkflowRepo
	runRepo      *repo.RunRepo
	itemRepo     *repo.ItemRepo
	lifecycle    *lifecycle.Service
	directory    *identity.Directory
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	WorkflowRepo *repo.WorkflowRepo
	RunRepo      *repo.RunRepo
	ItemRepo     *repo.ItemRepo
	Lifecycle    *lifecycle.Service
	Directory    *identity.Directory
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		workflowRepo: cfg.WorkflowRepo,
		runRepo:      cfg.RunRepo,
		itemRepo:     cfg.ItemRepo,
		lifecycle:    cfg.Lifecycle,
		directory:    cfg.Directory,
		logger:       cfg.Logger,
	}
}

// actorID извлекает идентификатор действующего пользователя из
// заголовка X-Actor-Id. Авторство подтверждает Identity на периметре;
// движок заголовку доверяет, но требует его на каждой мутации.
func actorID(r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-Actor-Id")
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
