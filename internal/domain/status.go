package domain

// WorkflowStatus — статус шаблона workflow.
//
// Неактивные шаблоны нельзя инстанцировать: создание run
// для inactive workflow возвращает NotFound.
type WorkflowStatus string

const (
	// WorkflowStatusActive — шаблон доступен для создания runs.
	WorkflowStatusActive WorkflowStatus = "active"

	// WorkflowStatusInactive — шаблон выведен из оборота.
	WorkflowStatusInactive WorkflowStatus = "inactive"
)

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	not_started → in_progress → completed
//	           (или) → cancelled (из любого состояния, администратором)
//
// Статус выводится агрегатором из состояний items и никогда
// не меняется напрямую, кроме cancel.
type RunStatus string

const (
	// RunStatusNotStarted — ни один item ещё не тронут.
	RunStatusNotStarted RunStatus = "not_started"

	// RunStatusInProgress — хотя бы один item вышел из not_started.
	RunStatusInProgress RunStatus = "in_progress"

	// RunStatusCompleted — все обязательные слоты закрыты
	// (required_done == required_total, required_total > 0).
	RunStatusCompleted RunStatus = "completed"

	// RunStatusCancelled — run отменён. Терминальный статус:
	// никакие переходы items больше не принимаются.
	RunStatusCancelled RunStatus = "cancelled"
)

// ItemStatus — статус выполнения item.
//
// Жизненный цикл:
//
//	not_started → in_progress → submitted
//	                          ↘ skipped
//
// skip допустим и напрямую из not_started.
type ItemStatus string

const (
	// ItemStatusNotStarted — работа по item не начата.
	ItemStatusNotStarted ItemStatus = "not_started"

	// ItemStatusInProgress — выдана сессия заполнения формы.
	ItemStatusInProgress ItemStatus = "in_progress"

	// ItemStatusSubmitted — форма отправлена (callback от Form Service).
	ItemStatusSubmitted ItemStatus = "submitted"

	// ItemStatusSkipped — item пропущен оператором с указанием причины.
	ItemStatusSkipped ItemStatus = "skipped"
)

// IsTerminal возвращает true, если статус финальный.
// Терминальный item закрывает свой слот для подсчёта required_done.
func (s ItemStatus) IsTerminal() bool {
	switch s {
	case ItemStatusSubmitted, ItemStatusSkipped:
		return true
	default:
		return false
	}
}
