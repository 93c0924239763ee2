package internal

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/masfiktalukdar/Train-Tracker-sub000/journey"
)

// TrainStatusService assembles a train's route, schedule, daily log and
// history, and runs the journey engine over them. Results are kept per train
// and only replaced when an evaluation actually changed, so downstream
// consumers polling on the refresh tick see stable values.
type TrainStatusService struct {
	database DatabaseInterface
	engine   *journey.Engine
	config   *Config

	mu   sync.Mutex
	last map[string]*LiveTrainStatus
}

func NewTrainStatusService(database DatabaseInterface, engine *journey.Engine, config *Config) *TrainStatusService {
	return &TrainStatusService{
		database: database,
		engine:   engine,
		config:   config,
		last:     make(map[string]*LiveTrainStatus),
	}
}

func (s *TrainStatusService) GetLiveStatus(ctx context.Context, trainID string) (*LiveTrainStatus, error) {
	return s.evaluate(ctx, trainID, time.Now())
}

// RefreshAll re-evaluates every train. Individual failures are logged and
// skipped so one broken train cannot stall the refresh loop.
func (s *TrainStatusService) RefreshAll(ctx context.Context) error {
	trains, err := s.database.ListTrains(ctx)
	if err != nil {
		return fmt.Errorf("list trains: %w", err)
	}

	counts := make(map[journey.TrainState]int)
	for _, train := range trains {
		live, err := s.evaluate(ctx, train.ID, time.Now())
		if err != nil {
			evaluationErrors.Inc()
			log.Printf("Refresh failed for train %s: %v", train.ID, err)
			continue
		}
		counts[live.State]++
	}
	recordStateCounts(counts)
	return nil
}

func (s *TrainStatusService) evaluate(ctx context.Context, trainID string, now time.Time) (*LiveTrainStatus, error) {
	evaluationsTotal.Inc()

	train, err := s.database.GetTrain(ctx, trainID)
	if err != nil {
		return nil, fmt.Errorf("load train %s: %w", trainID, err)
	}
	route, err := s.database.GetRoute(ctx, train.RouteID)
	if err != nil {
		return nil, fmt.Errorf("load route %s: %w", train.RouteID, err)
	}

	date := now.Format("2006-01-02")
	var status *DailyTrainStatus
	var history []TrainDayHistory

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		status, err = s.database.GetDailyStatus(gctx, trainID, date)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.database.GetHistory(gctx, trainID, s.config.Timing.HistoryRetentionDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load daily data for train %s: %w", trainID, err)
	}

	eval := s.engine.Evaluate(toJourneyTrain(train), toJourneyRoute(route),
		toJourneyStatus(status), toJourneyHistory(history), now)

	live := &LiveTrainStatus{
		TrainID:          train.ID,
		TrainName:        train.Name,
		Date:             date,
		State:            eval.State,
		CurrentStationID: eval.CurrentStationID,
		Predictions:      eval.Predictions,
		Warnings:         eval.Warnings,
		UpdatedAt:        now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[trainID]; ok && sameEvaluation(prev, live) {
		return prev, nil
	}
	s.last[trainID] = live
	return live, nil
}

// sameEvaluation ignores UpdatedAt so an unchanged evaluation keeps its
// original timestamp.
func sameEvaluation(a, b *LiveTrainStatus) bool {
	return a.Date == b.Date &&
		a.State == b.State &&
		a.CurrentStationID == b.CurrentStationID &&
		reflect.DeepEqual(a.Predictions, b.Predictions) &&
		reflect.DeepEqual(a.Warnings, b.Warnings)
}

func toJourneyTrain(train *TrainWithStoppages) journey.Train {
	stoppages := make([]journey.Stoppage, len(train.Stoppages))
	for i, s := range train.Stoppages {
		stoppages[i] = journey.Stoppage{
			StationID:       s.StationID,
			UpArrivalTime:   s.UpArrivalTime,
			DownArrivalTime: s.DownArrivalTime,
		}
	}
	return journey.Train{
		ID:        train.ID,
		Name:      train.Name,
		Direction: journey.Direction(train.Direction),
		Stoppages: stoppages,
	}
}

func toJourneyRoute(route *RouteWithStations) journey.Route {
	stations := make([]journey.Station, len(route.Stations))
	for i, s := range route.Stations {
		stations[i] = journey.Station{StationID: s.StationID, StationName: s.Name}
	}
	return journey.Route{ID: route.ID, Name: route.Name, Stations: stations}
}

func toJourneyStatus(status *DailyTrainStatus) *journey.DailyStatus {
	if status == nil {
		return nil
	}
	out := &journey.DailyStatus{
		Date:                   status.ServiceDate,
		LapCompleted:           status.LapCompleted,
		LastCompletedStationID: status.LastCompletedStationID,
	}
	for _, a := range status.Arrivals {
		out.Arrivals = append(out.Arrivals, journey.ArrivalRecord{
			ID:          a.ID,
			StationID:   a.StationID,
			StationName: a.StationName,
			ArrivedAt:   a.RecordedAt,
		})
	}
	for _, d := range status.Departures {
		out.Departures = append(out.Departures, journey.DepartureRecord{
			ID:          d.ID,
			StationID:   d.StationID,
			StationName: d.StationName,
			DepartedAt:  d.RecordedAt,
		})
	}
	return out
}

func toJourneyHistory(history []TrainDayHistory) []journey.HistoryRecord {
	out := make([]journey.HistoryRecord, len(history))
	for i, day := range history {
		record := journey.HistoryRecord{Date: day.ServiceDate}
		for _, a := range day.Arrivals {
			record.Arrivals = append(record.Arrivals, journey.ArrivalRecord{
				ID:          a.ID,
				StationID:   a.StationID,
				StationName: a.StationName,
				ArrivedAt:   a.RecordedAt,
			})
		}
		out[i] = record
	}
	return out
}
