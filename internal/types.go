package internal

import (
	"context"
	"errors"
	"time"

	"github.com/masfiktalukdar/Train-Tracker-sub000/journey"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNotAtStation = errors.New("train is not at a station")
)

type Station struct {
	StationID string    `json:"station_id" db:"station_id" validate:"required"`
	Name      string    `json:"name" db:"name" validate:"required"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Station) Validate() error {
	if s.StationID == "" {
		return errors.New("station ID is required")
	}
	if s.Name == "" {
		return errors.New("station name is required")
	}
	return nil
}

type Route struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (r *Route) Validate() error {
	if r.ID == "" {
		return errors.New("route ID is required")
	}
	if r.Name == "" {
		return errors.New("route name is required")
	}
	return nil
}

type RouteWithStations struct {
	Route
	Stations []Station `json:"stations"`
}

type Train struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	RouteID   string    `json:"route_id" db:"route_id"`
	Direction string    `json:"direction" db:"direction"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (t *Train) Validate() error {
	if t.ID == "" {
		return errors.New("train ID is required")
	}
	if t.Name == "" {
		return errors.New("train name is required")
	}
	if t.RouteID == "" {
		return errors.New("route ID is required")
	}
	if !journey.Direction(t.Direction).Valid() {
		return errors.New(`direction must be "up" or "down"`)
	}
	return nil
}

// TrainStoppage binds a train to a station it serves, with one scheduled
// arrival time per travel direction in 24-hour "HH:MM" form.
type TrainStoppage struct {
	TrainID         string `json:"train_id" db:"train_id"`
	StationID       string `json:"station_id" db:"station_id"`
	UpArrivalTime   string `json:"up_arrival_time" db:"up_arrival_time"`
	DownArrivalTime string `json:"down_arrival_time" db:"down_arrival_time"`
}

func (ts *TrainStoppage) Validate() error {
	if ts.StationID == "" {
		return errors.New("station ID is required")
	}
	if ts.UpArrivalTime != "" && !journey.ValidScheduleTime(ts.UpArrivalTime) {
		return errors.New("up arrival time must be HH:MM")
	}
	if ts.DownArrivalTime != "" && !journey.ValidScheduleTime(ts.DownArrivalTime) {
		return errors.New("down arrival time must be HH:MM")
	}
	return nil
}

type TrainWithStoppages struct {
	Train
	Stoppages []TrainStoppage `json:"stoppages"`
}

// ArrivalEvent and DepartureEvent are append-only daily log entries, ordered
// by journey progress within a service date.
type ArrivalEvent struct {
	ID          string    `json:"id" db:"id"`
	TrainID     string    `json:"train_id" db:"train_id"`
	StationID   string    `json:"station_id" db:"station_id"`
	StationName string    `json:"station_name" db:"station_name"`
	ServiceDate string    `json:"service_date" db:"service_date"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
}

type DepartureEvent struct {
	ID          string    `json:"id" db:"id"`
	TrainID     string    `json:"train_id" db:"train_id"`
	StationID   string    `json:"station_id" db:"station_id"`
	StationName string    `json:"station_name" db:"station_name"`
	ServiceDate string    `json:"service_date" db:"service_date"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
}

// DailyTrainStatus aggregates one train's events for one service date. A nil
// status means nothing has been recorded yet that day.
type DailyTrainStatus struct {
	TrainID                string           `json:"train_id"`
	ServiceDate            string           `json:"service_date"`
	Arrivals               []ArrivalEvent   `json:"arrivals"`
	Departures             []DepartureEvent `json:"departures"`
	LapCompleted           bool             `json:"lap_completed"`
	LastCompletedStationID string           `json:"last_completed_station_id"`
}

type TrainDayHistory struct {
	ServiceDate string         `json:"service_date"`
	Arrivals    []ArrivalEvent `json:"arrivals"`
}

// LiveTrainStatus is what the public status endpoint serves.
type LiveTrainStatus struct {
	TrainID          string               `json:"train_id"`
	TrainName        string               `json:"train_name"`
	Date             string               `json:"date"`
	State            journey.TrainState   `json:"state"`
	CurrentStationID string               `json:"current_station_id,omitempty"`
	Predictions      []journey.Prediction `json:"predictions"`
	Warnings         []string             `json:"warnings,omitempty"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Focused repository interfaces following Interface Segregation Principle
type StationRepository interface {
	UpsertStations(ctx context.Context, stations []Station) error
	ListStations(ctx context.Context) ([]Station, error)
	DeleteStation(ctx context.Context, stationID string) error
}

type RouteRepository interface {
	CreateRoute(ctx context.Context, route Route) error
	ListRoutes(ctx context.Context) ([]Route, error)
	GetRoute(ctx context.Context, id string) (*RouteWithStations, error)
	SetRouteStations(ctx context.Context, routeID string, stationIDs []string) error
}

type TrainRepository interface {
	CreateTrain(ctx context.Context, train Train) error
	ListTrains(ctx context.Context) ([]Train, error)
	GetTrain(ctx context.Context, id string) (*TrainWithStoppages, error)
	SetStoppages(ctx context.Context, trainID string, stoppages []TrainStoppage) error
}

type StatusRepository interface {
	RecordArrival(ctx context.Context, trainID, stationID, serviceDate string, at time.Time) (*ArrivalEvent, error)
	RecordDeparture(ctx context.Context, trainID, stationID, serviceDate string, at time.Time) (*DepartureEvent, error)
	CompleteLap(ctx context.Context, trainID, serviceDate, lastStationID string) error
	GetDailyStatus(ctx context.Context, trainID, serviceDate string) (*DailyTrainStatus, error)
	GetHistory(ctx context.Context, trainID string, days int) ([]TrainDayHistory, error)
	PruneHistory(ctx context.Context, before string) error
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Close() error
}

// Combined interface for wiring and mocks
type DatabaseInterface interface {
	StationRepository
	RouteRepository
	TrainRepository
	StatusRepository
	HealthChecker
}

type TrainStatusServiceInterface interface {
	GetLiveStatus(ctx context.Context, trainID string) (*LiveTrainStatus, error)
	RefreshAll(ctx context.Context) error
}
