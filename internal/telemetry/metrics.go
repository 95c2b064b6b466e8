package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики переходов жизненного цикла.
//
// operation: create_run, assign, start, skip, mark_submitted,
// add_repeat, lock, cancel.
// result: ok, conflict, bad_request, not_found, error.
var (
	// TransitionsTotal — счётчик переходов по операциям и исходам.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formflow_transitions_total",
		Help: "Lifecycle transitions by operation and result",
	}, []string{"operation", "result"})

	// TransitionRetriesTotal — счётчик внутренних повторов перехода
	// из-за конкуренции за run (lock timeout, version conflict).
	TransitionRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formflow_transition_retries_total",
		Help: "Internal transition retries caused by per-run contention",
	})
)

// ObserveTransition инкрементирует счётчик перехода.
func ObserveTransition(operation, result string) {
	TransitionsTotal.WithLabelValues(operation, result).Inc()
}
