package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/masfiktalukdar/Train-Tracker-sub000/journey"
)

var (
	evaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "train_tracker_evaluations_total",
		Help: "Number of journey evaluations performed.",
	})

	evaluationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "train_tracker_evaluation_errors_total",
		Help: "Number of journey evaluations that failed to load their inputs.",
	})

	trainsByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "train_tracker_trains_by_state",
		Help: "Trains currently in each journey state.",
	}, []string{"state"})
)

var knownStates = []journey.TrainState{
	journey.StatePending,
	journey.StateEnRoute,
	journey.StateAtStation,
	journey.StateAtTurnaround,
	journey.StateCompleted,
}

func recordStateCounts(counts map[journey.TrainState]int) {
	for _, state := range knownStates {
		trainsByState.WithLabelValues(string(state)).Set(float64(counts[state]))
	}
}
