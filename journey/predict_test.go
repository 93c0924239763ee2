package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture: a four-station route with an "up" train scheduled outbound
// 08:00 -> 09:30 and inbound 09:45 -> 11:15, thirty minutes per hop.
func testRoute() Route {
	return Route{ID: "r1", Name: "Blue Line", Stations: routeOf("a", "b", "c", "d")}
}

func testTrain() Train {
	return Train{
		ID:        "t1",
		Name:      "Morning Express",
		Direction: DirectionUp,
		Stoppages: []Stoppage{
			{StationID: "a", UpArrivalTime: "08:00", DownArrivalTime: "11:15"},
			{StationID: "b", UpArrivalTime: "08:30", DownArrivalTime: "10:45"},
			{StationID: "c", UpArrivalTime: "09:00", DownArrivalTime: "10:15"},
			{StationID: "d", UpArrivalTime: "09:30", DownArrivalTime: "09:45"},
		},
	}
}

func clock(h, m int) time.Time {
	return time.Date(2026, 8, 29, h, m, 0, 0, time.UTC)
}

func newTestEngine() *Engine {
	return NewEngine(NewEstimator(nil, 0))
}

func TestEvaluate_Pending(t *testing.T) {
	eval := newTestEngine().Evaluate(testTrain(), testRoute(), nil, nil, clock(7, 0))

	assert.Equal(t, StatePending, eval.State)
	assert.Empty(t, eval.Warnings)
	require.Len(t, eval.Predictions, 7)

	first := eval.Predictions[0]
	assert.Equal(t, "a", first.StationID)
	assert.Equal(t, clock(8, 0), first.PredictedTime)
	assert.Equal(t, PredictionDefault, first.Type)
	assert.NotEqual(t, PredictionArrived, first.Type)

	// Each hop is 30 minutes of schedule plus the 5 minute dwell.
	assert.Equal(t, clock(8, 35), eval.Predictions[1].PredictedTime)
	assert.Equal(t, clock(9, 10), eval.Predictions[2].PredictedTime)
	assert.Equal(t, clock(9, 45), eval.Predictions[3].PredictedTime)

	// Inbound leg uses the down-direction schedule.
	assert.Equal(t, "c", eval.Predictions[4].StationID)
	assert.Equal(t, clock(10, 20), eval.Predictions[4].PredictedTime)
	assert.Equal(t, "a", eval.Predictions[6].StationID)
	assert.Equal(t, clock(11, 30), eval.Predictions[6].PredictedTime)

	for _, p := range eval.Predictions {
		assert.Equal(t, PredictionDefault, p.Type)
	}
}

func TestEvaluate_PendingWithHistory(t *testing.T) {
	day := time.Date(2026, 8, 22, 8, 0, 0, 0, time.UTC)
	history := []HistoryRecord{
		historyDay("2026-08-22",
			arrivalAt("a", day),
			arrivalAt("b", day.Add(20*time.Minute))),
	}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), nil, history, clock(7, 0))

	require.Len(t, eval.Predictions, 7)
	second := eval.Predictions[1]
	assert.Equal(t, PredictionAverage, second.Type)
	assert.Equal(t, clock(8, 25), second.PredictedTime)
}

func TestEvaluate_PendingLateToBegin(t *testing.T) {
	eval := newTestEngine().Evaluate(testTrain(), testRoute(), nil, nil, clock(8, 30))

	assert.Equal(t, StatePending, eval.State)
	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "late to begin")

	// The stale 08:00 start is abandoned; the walk restarts from now.
	assert.Equal(t, clock(8, 30), eval.Predictions[0].PredictedTime)
}

func TestEvaluate_Completed(t *testing.T) {
	status := &DailyStatus{
		LapCompleted:           true,
		LastCompletedStationID: "a",
	}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), status, nil, clock(12, 0))

	assert.Equal(t, StateCompleted, eval.State)
	assert.Equal(t, "a", eval.CurrentStationID)
	assert.Empty(t, eval.Predictions)
	assert.Empty(t, eval.Warnings)
}

func TestEvaluate_AtStation(t *testing.T) {
	status := &DailyStatus{
		Arrivals: []ArrivalRecord{arrivalAt("a", clock(8, 1))},
	}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), status, nil, clock(8, 3))

	assert.Equal(t, StateAtStation, eval.State)
	assert.Equal(t, "a", eval.CurrentStationID)
	assert.Empty(t, eval.Warnings)

	require.Len(t, eval.Predictions, 7)
	assert.Equal(t, PredictionArrived, eval.Predictions[0].Type)
	assert.Equal(t, clock(8, 1), eval.Predictions[0].PredictedTime)

	// Departure is arrival plus dwell, then a 30 minute scheduled hop.
	assert.Equal(t, "b", eval.Predictions[1].StationID)
	assert.Equal(t, clock(8, 36), eval.Predictions[1].PredictedTime)
}

func TestEvaluate_AtStationGettingLate(t *testing.T) {
	status := &DailyStatus{
		Arrivals: []ArrivalRecord{arrivalAt("a", clock(8, 0))},
	}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), status, nil, clock(8, 15))

	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "getting late at Station a")
	assert.Contains(t, eval.Warnings[0], "by 10 minutes")

	// Predictions restart from now, not from the stale departure.
	assert.Equal(t, clock(8, 45), eval.Predictions[1].PredictedTime)
}

func TestEvaluate_AtTurnaround(t *testing.T) {
	status := &DailyStatus{
		Arrivals: []ArrivalRecord{
			arrivalAt("a", clock(8, 0)),
			arrivalAt("b", clock(8, 30)),
			arrivalAt("c", clock(9, 0)),
			arrivalAt("d", clock(9, 40)),
		},
		Departures: []DepartureRecord{
			{StationID: "a", DepartedAt: clock(8, 5)},
			{StationID: "b", DepartedAt: clock(8, 35)},
			{StationID: "c", DepartedAt: clock(9, 5)},
		},
	}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), status, nil, clock(9, 42))

	assert.Equal(t, StateAtTurnaround, eval.State)
	assert.Equal(t, "d", eval.CurrentStationID)
	assert.Empty(t, eval.Warnings)

	// The return leg restarts on the down schedule (09:45) plus dwell, not on
	// the actual arrival.
	require.Len(t, eval.Predictions, 4)
	assert.Equal(t, PredictionArrived, eval.Predictions[0].Type)
	assert.Equal(t, "c", eval.Predictions[1].StationID)
	assert.Equal(t, clock(10, 20), eval.Predictions[1].PredictedTime)
	assert.Equal(t, "a", eval.Predictions[3].StationID)
	assert.Equal(t, clock(11, 30), eval.Predictions[3].PredictedTime)
}

func TestEvaluate_EnRoute(t *testing.T) {
	status := &DailyStatus{
		Arrivals:   []ArrivalRecord{arrivalAt("a", clock(8, 0))},
		Departures: []DepartureRecord{{StationID: "a", DepartedAt: clock(8, 6)}},
	}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), status, nil, clock(8, 10))

	assert.Equal(t, StateEnRoute, eval.State)
	assert.Equal(t, "a", eval.CurrentStationID)
	assert.Empty(t, eval.Warnings)

	require.Len(t, eval.Predictions, 6)
	next := eval.Predictions[0]
	assert.Equal(t, "b", next.StationID)
	assert.Equal(t, clock(8, 36), next.PredictedTime)
	assert.Equal(t, PredictionDefault, next.Type)
}

func TestEvaluate_EnRouteRunningLate(t *testing.T) {
	status := &DailyStatus{
		Arrivals:   []ArrivalRecord{arrivalAt("a", clock(8, 0))},
		Departures: []DepartureRecord{{StationID: "a", DepartedAt: clock(8, 6)}},
	}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), status, nil, clock(8, 45))

	require.Len(t, eval.Warnings, 1)
	assert.Contains(t, eval.Warnings[0], "running late")
}

func TestEvaluate_FullLapAwaitsExplicitCompletion(t *testing.T) {
	// All seven path stations arrived at, but the lap flag is still off.
	arrivals := []ArrivalRecord{
		arrivalAt("a", clock(8, 0)),
		arrivalAt("b", clock(8, 30)),
		arrivalAt("c", clock(9, 0)),
		arrivalAt("d", clock(9, 30)),
		arrivalAt("c", clock(10, 15)),
		arrivalAt("b", clock(10, 45)),
		arrivalAt("a", clock(11, 15)),
	}
	var departures []DepartureRecord
	for _, a := range arrivals[:6] {
		departures = append(departures, DepartureRecord{
			StationID:  a.StationID,
			DepartedAt: a.ArrivedAt.Add(5 * time.Minute),
		})
	}
	status := &DailyStatus{Arrivals: arrivals, Departures: departures}

	eval := newTestEngine().Evaluate(testTrain(), testRoute(), status, nil, clock(11, 20))

	assert.NotEqual(t, StateCompleted, eval.State)
	assert.Equal(t, StateAtStation, eval.State)
	assert.Empty(t, eval.Predictions)
}

func TestEvaluate_Idempotent(t *testing.T) {
	engine := NewEngine(NewEstimator(NewMemoryCache(16), time.Hour))
	day := time.Date(2026, 8, 22, 8, 0, 0, 0, time.UTC)
	history := []HistoryRecord{
		historyDay("2026-08-22",
			arrivalAt("a", day),
			arrivalAt("b", day.Add(25*time.Minute))),
	}
	status := &DailyStatus{
		Arrivals:   []ArrivalRecord{arrivalAt("a", clock(8, 0))},
		Departures: []DepartureRecord{{StationID: "a", DepartedAt: clock(8, 5)}},
	}

	first := engine.Evaluate(testTrain(), testRoute(), status, history, clock(8, 10))
	second := engine.Evaluate(testTrain(), testRoute(), status, history, clock(8, 10))

	assert.Equal(t, first, second)
}

func TestEvaluate_NothingToPredict(t *testing.T) {
	engine := newTestEngine()

	// Train serves none of the route's stations.
	train := testTrain()
	train.Stoppages = nil
	eval := engine.Evaluate(train, testRoute(), nil, nil, clock(8, 0))
	assert.Equal(t, Evaluation{}, eval)

	// Route not loaded yet.
	eval = engine.Evaluate(testTrain(), Route{}, nil, nil, clock(8, 0))
	assert.Equal(t, Evaluation{}, eval)
}

func TestEvaluate_MissingScheduleFallsBack(t *testing.T) {
	train := testTrain()
	for i := range train.Stoppages {
		train.Stoppages[i].UpArrivalTime = ""
		train.Stoppages[i].DownArrivalTime = ""
	}

	eval := newTestEngine().Evaluate(train, testRoute(), nil, nil, clock(8, 0))

	assert.Equal(t, StatePending, eval.State)
	require.Len(t, eval.Predictions, 7)
	// No schedule at all: the journey starts now and every hop uses the
	// fixed 30 minute fallback.
	assert.Equal(t, clock(8, 0), eval.Predictions[0].PredictedTime)
	assert.Equal(t, clock(8, 35), eval.Predictions[1].PredictedTime)
	assert.Equal(t, PredictionDefault, eval.Predictions[1].Type)
}
