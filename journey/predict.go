package journey

import (
	"fmt"
	"time"
)

const (
	// DwellTime is how long a train is assumed to remain at a station between
	// arrival and departure absent better data.
	DwellTime = 5 * time.Minute

	// lateGrace is how far past a scheduled time the clock may run before a
	// lateness warning is emitted.
	lateGrace = 5 * time.Minute

	// fallbackHopTime covers hops with neither usable history nor schedule.
	fallbackHopTime = 30 * time.Minute
)

// Engine classifies a train's current journey state and predicts arrival
// times for its remaining stops. Evaluations are cheap, synchronous and
// recomputed from scratch on every call; identical inputs and clock always
// produce identical output.
type Engine struct {
	estimator *Estimator
}

func NewEngine(estimator *Estimator) *Engine {
	return &Engine{estimator: estimator}
}

// Evaluate derives the train's state for the day of now.
//
// Precedence: a completed lap is terminal; zero arrivals means pending; more
// arrivals than departures means the train is standing at a station (the
// route's reversal point is reported as at_turnaround); equal non-zero counts
// mean it is between stations. A missing status is the same as an empty one,
// and a train whose route intersection is empty evaluates to nothing at all.
func (e *Engine) Evaluate(train Train, route Route, status *DailyStatus, history []HistoryRecord, now time.Time) Evaluation {
	path := BuildPath(route.Stations, train.Stoppages, train.Direction)
	if len(path) == 0 {
		return Evaluation{}
	}

	switch {
	case status != nil && status.LapCompleted:
		return Evaluation{State: StateCompleted, CurrentStationID: lastStationID(status)}
	case status == nil || len(status.Arrivals) == 0:
		return e.evaluatePending(train, path, history, now)
	case len(status.Arrivals) > len(status.Departures):
		return e.evaluateAtStation(train, path, status, history, now)
	default:
		return e.evaluateEnRoute(train, path, status, history, now)
	}
}

func (e *Engine) evaluatePending(train Train, path []Station, history []HistoryRecord, now time.Time) Evaluation {
	ev := Evaluation{State: StatePending}

	start := now
	if stop, ok := train.StoppageAt(path[0].StationID); ok {
		if t := ParseScheduleTime(stop.timeFor(train.Direction), now, false); !t.IsZero() {
			if t.Before(now) {
				ev.Warnings = append(ev.Warnings,
					fmt.Sprintf("%s is late to begin its journey", train.displayName()))
			} else {
				start = t
			}
		}
	}

	ev.Predictions = append(ev.Predictions, Prediction{
		StationID:     path[0].StationID,
		StationName:   path[0].StationName,
		PredictedTime: start,
		Type:          PredictionDefault,
	})
	ev.Predictions = append(ev.Predictions,
		e.predictOnward(train, path, history, 0, start.Add(DwellTime))...)
	return ev
}

func (e *Engine) evaluateAtStation(train Train, path []Station, status *DailyStatus, history []HistoryRecord, now time.Time) Evaluation {
	idx := len(status.Arrivals) - 1
	if idx > len(path)-1 {
		idx = len(path) - 1
	}
	current := status.Arrivals[len(status.Arrivals)-1]

	state := StateAtStation
	if idx == TurnaroundIndex(path) && len(path) > 1 {
		state = StateAtTurnaround
	}
	ev := Evaluation{State: state, CurrentStationID: current.StationID}

	// Ordinary stops depart a dwell after the actual arrival. The turnaround
	// departs a dwell after the return leg's scheduled start instead, since
	// the timetable restarts there.
	departAt := current.ArrivedAt.Add(DwellTime)
	if state == StateAtTurnaround {
		if stop, ok := train.StoppageAt(current.StationID); ok {
			if t := ParseScheduleTime(stop.timeFor(train.Direction.Opposite()), now, false); !t.IsZero() {
				departAt = t.Add(DwellTime)
			}
		}
	}

	if overdue := now.Sub(departAt); overdue > lateGrace {
		ev.Warnings = append(ev.Warnings,
			fmt.Sprintf("%s is getting late at %s, by %d minutes",
				train.displayName(), current.StationName, int(overdue.Minutes())))
		departAt = now
	}

	onward := e.predictOnward(train, path, history, idx, departAt)
	if len(onward) > 0 {
		ev.Predictions = append(ev.Predictions, Prediction{
			StationID:     current.StationID,
			StationName:   current.StationName,
			PredictedTime: current.ArrivedAt,
			Type:          PredictionArrived,
		})
		ev.Predictions = append(ev.Predictions, onward...)
	}
	return ev
}

func (e *Engine) evaluateEnRoute(train Train, path []Station, status *DailyStatus, history []HistoryRecord, now time.Time) Evaluation {
	idx := len(status.Arrivals) - 1
	if idx > len(path)-1 {
		idx = len(path) - 1
	}
	last := status.Departures[len(status.Departures)-1]

	ev := Evaluation{State: StateEnRoute, CurrentStationID: last.StationID}

	onward := e.predictOnward(train, path, history, idx, last.DepartedAt)
	if len(onward) > 0 && now.Sub(onward[0].PredictedTime) > lateGrace {
		ev.Warnings = append(ev.Warnings,
			fmt.Sprintf("%s is running late to reach %s",
				train.displayName(), onward[0].StationName))
	}
	ev.Predictions = onward
	return ev
}

// predictOnward walks the path from fromIdx to the end, accumulating
// predicted arrivals. departAt is the (actual or assumed) departure time from
// path[fromIdx]; each later hop starts a dwell after the predicted arrival.
func (e *Engine) predictOnward(train Train, path []Station, history []HistoryRecord, fromIdx int, departAt time.Time) []Prediction {
	var preds []Prediction
	turnaround := TurnaroundIndex(path)
	prev := departAt
	for i := fromIdx + 1; i < len(path); i++ {
		d, typ := e.hopDuration(train, path, history, i, turnaround)
		arrival := prev.Add(d)
		preds = append(preds, Prediction{
			StationID:     path[i].StationID,
			StationName:   path[i].StationName,
			PredictedTime: arrival,
			Type:          typ,
		})
		prev = arrival.Add(DwellTime)
	}
	return preds
}

// hopDuration estimates travel time for the hop ending at path index i:
// history average first, then the schedule for the leg being traversed, then
// the fixed fallback.
func (e *Engine) hopDuration(train Train, path []Station, history []HistoryRecord, i, turnaround int) (time.Duration, PredictionType) {
	from, to := path[i-1], path[i]

	if e.estimator != nil {
		if d, ok := e.estimator.AverageTravelTime(history, from.StationID, to.StationID); ok {
			return d, PredictionAverage
		}
	}

	legDir := train.Direction
	if i > turnaround {
		legDir = legDir.Opposite()
	}
	fromStop, okFrom := train.StoppageAt(from.StationID)
	toStop, okTo := train.StoppageAt(to.StationID)
	if okFrom && okTo {
		if d, ok := ScheduleTravelTime(fromStop, toStop, legDir); ok {
			return d, PredictionDefault
		}
	}
	return fallbackHopTime, PredictionDefault
}

func lastStationID(status *DailyStatus) string {
	if status.LastCompletedStationID != "" {
		return status.LastCompletedStationID
	}
	if n := len(status.Arrivals); n > 0 {
		return status.Arrivals[n-1].StationID
	}
	return ""
}
