// Package journey derives the live state of a train from its static schedule
// and the day's recorded arrivals and departures. Everything here is a pure
// function of its inputs; persistence and transport live with the caller.
package journey

import (
	"time"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Opposite() Direction {
	if d == DirectionUp {
		return DirectionDown
	}
	return DirectionUp
}

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

type Station struct {
	StationID   string `json:"station_id"`
	StationName string `json:"station_name"`
}

// Stoppage is a scheduled stop of a train at a station, with one "HH:MM"
// arrival time per direction of travel.
type Stoppage struct {
	StationID       string `json:"station_id"`
	UpArrivalTime   string `json:"up_arrival_time"`
	DownArrivalTime string `json:"down_arrival_time"`
}

func (s Stoppage) timeFor(d Direction) string {
	if d == DirectionDown {
		return s.DownArrivalTime
	}
	return s.UpArrivalTime
}

// Train carries the primary scheduled direction and the unordered set of
// stations the train serves. Its daily path is derived with BuildPath.
type Train struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Direction Direction  `json:"direction"`
	Stoppages []Stoppage `json:"stoppages"`
}

func (t Train) StoppageAt(stationID string) (Stoppage, bool) {
	for _, s := range t.Stoppages {
		if s.StationID == stationID {
			return s, true
		}
	}
	return Stoppage{}, false
}

func (t Train) displayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// Route is the canonical ordered station sequence; the order defines the
// "up" direction.
type Route struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Stations []Station `json:"stations"`
}

type ArrivalRecord struct {
	ID          string    `json:"id"`
	StationID   string    `json:"station_id"`
	StationName string    `json:"station_name"`
	ArrivedAt   time.Time `json:"arrived_at"`
}

type DepartureRecord struct {
	ID          string    `json:"id"`
	StationID   string    `json:"station_id"`
	StationName string    `json:"station_name"`
	DepartedAt  time.Time `json:"departed_at"`
}

// DailyStatus aggregates one train's recorded events for one calendar date.
// Arrivals and departures are appended in journey order, so
// len(departures) <= len(arrivals) <= len(departures)+1 always holds.
type DailyStatus struct {
	Date                   string            `json:"date"`
	Arrivals               []ArrivalRecord   `json:"arrivals"`
	Departures             []DepartureRecord `json:"departures"`
	LapCompleted           bool              `json:"lap_completed"`
	LastCompletedStationID string            `json:"last_completed_station_id"`
}

// HistoryRecord is a past day's arrival log, read-only input to the
// travel-time estimator.
type HistoryRecord struct {
	Date     string          `json:"date"`
	Arrivals []ArrivalRecord `json:"arrivals"`
}

// PredictionType records the provenance of a predicted time.
type PredictionType string

const (
	// PredictionDefault marks a time derived from the static schedule or the
	// terminal fallback duration.
	PredictionDefault PredictionType = "default"
	// PredictionAverage marks a time derived from historical travel averages.
	PredictionAverage PredictionType = "average"
	// PredictionArrived marks an actual recorded arrival, not an estimate.
	PredictionArrived PredictionType = "arrived"
)

type Prediction struct {
	StationID     string         `json:"station_id"`
	StationName   string         `json:"station_name"`
	PredictedTime time.Time      `json:"predicted_time"`
	Type          PredictionType `json:"type"`
}

type TrainState string

const (
	StatePending      TrainState = "pending"
	StateEnRoute      TrainState = "en_route"
	StateAtStation    TrainState = "at_station"
	StateAtTurnaround TrainState = "at_turnaround"
	StateCompleted    TrainState = "completed"
)

// Evaluation is the engine's full output for one train at one instant.
type Evaluation struct {
	State            TrainState   `json:"state"`
	CurrentStationID string       `json:"current_station_id,omitempty"`
	Predictions      []Prediction `json:"predictions"`
	Warnings         []string     `json:"warnings,omitempty"`
}
