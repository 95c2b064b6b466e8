package engine

import (
	"github.com/google/uuid"

	"github.com/shaiso/Formflow/internal/domain"
)

// Progress — агрегатные счётчики run, выведенные из items.
type Progress struct {
	// RequiredTotal — количество обязательных слотов.
	RequiredTotal int

	// RequiredDone — количество обязательных слотов с хотя бы
	// одним терминальным item.
	RequiredDone int
}

// DeriveProgress вычисляет счётчики из полного набора items run.
//
// Единица подсчёта — слот (WorkflowFormID), не item: у повторяемого
// обязательного слота один терминальный item закрывает слот,
// дополнительные повторы второй раз не считаются.
func DeriveProgress(items []domain.WorkflowItem) Progress {
	satisfied := make(map[uuid.UUID]bool)
	for i := range items {
		item := &items[i]
		if !item.Required {
			continue
		}
		if _, ok := satisfied[item.WorkflowFormID]; !ok {
			satisfied[item.WorkflowFormID] = false
		}
		if item.IsFinished() {
			satisfied[item.WorkflowFormID] = true
		}
	}

	p := Progress{RequiredTotal: len(satisfied)}
	for _, done := range satisfied {
		if done {
			p.RequiredDone++
		}
	}
	return p
}

// DeriveRunStatus выводит статус run из items и счётчиков.
//
// Правила:
//   - cancelled не пересчитывается никогда;
//   - completed, если все обязательные слоты закрыты (и они есть);
//   - in_progress, если хотя бы один item вышел из not_started;
//   - иначе not_started.
func DeriveRunStatus(current domain.RunStatus, items []domain.WorkflowItem, p Progress) domain.RunStatus {
	if current == domain.RunStatusCancelled {
		return domain.RunStatusCancelled
	}
	if p.RequiredTotal > 0 && p.RequiredDone == p.RequiredTotal {
		return domain.RunStatusCompleted
	}
	for i := range items {
		if items[i].Status != domain.ItemStatusNotStarted {
			return domain.RunStatusInProgress
		}
	}
	return domain.RunStatusNotStarted
}

// Recompute пересчитывает агрегат run из полного набора его items.
//
// Единственная точка, где выводится run.Status и счётчики:
// вызывается агрегатором после каждой мутации item в той же
// транзакции, и тестами — без базы. Пересчёт всегда полный,
// инкрементальные поправки счётчиков запрещены (дрейф).
func Recompute(run *domain.WorkflowRun, items []domain.WorkflowItem) {
	p := DeriveProgress(items)
	run.RequiredTotal = p.RequiredTotal
	run.RequiredDone = p.RequiredDone
	run.Status = DeriveRunStatus(run.Status, items, p)
}
