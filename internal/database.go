package internal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const (
	queryUpsertStation = `
        INSERT INTO stations (station_id, name, lat, lon)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (station_id)
        DO UPDATE SET
            name = EXCLUDED.name,
            lat = EXCLUDED.lat,
            lon = EXCLUDED.lon,
            updated_at = CURRENT_TIMESTAMP`

	queryInsertArrival = `
        INSERT INTO train_arrivals (id, train_id, station_id, service_date, recorded_at)
        VALUES ($1, $2, $3, $4, $5)`

	queryInsertDeparture = `
        INSERT INTO train_departures (id, train_id, station_id, service_date, recorded_at)
        VALUES ($1, $2, $3, $4, $5)`

	querySelectArrivals = `
        SELECT a.id, a.train_id, a.station_id, COALESCE(s.name, ''), a.service_date, a.recorded_at
        FROM train_arrivals a
        LEFT JOIN stations s ON s.station_id = a.station_id
        WHERE a.train_id = $1 AND a.service_date = $2
        ORDER BY a.recorded_at ASC`

	querySelectDepartures = `
        SELECT d.id, d.train_id, d.station_id, COALESCE(s.name, ''), d.service_date, d.recorded_at
        FROM train_departures d
        LEFT JOIN stations s ON s.station_id = d.station_id
        WHERE d.train_id = $1 AND d.service_date = $2
        ORDER BY d.recorded_at ASC`
)

type Database struct {
	db *sql.DB
}

func NewDatabase(cfg *Config) (*Database, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DB_URL is required but not provided")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for cloud database
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Successfully connected to database")
	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) withTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("Error rolling back transaction: %v", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *Database) UpsertStations(ctx context.Context, stations []Station) error {
	if len(stations) == 0 {
		return nil
	}

	return d.withTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, queryUpsertStation)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, station := range stations {
			_, err := stmt.ExecContext(ctx, station.StationID, station.Name, station.Lat, station.Lon)
			if err != nil {
				return fmt.Errorf("exec station %s: %w", station.StationID, err)
			}
		}
		return nil
	})
}

func (d *Database) ListStations(ctx context.Context) ([]Station, error) {
	query := `
		SELECT station_id, name, lat, lon, created_at, updated_at
		FROM stations
		ORDER BY name`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var station Station
		err := rows.Scan(&station.StationID, &station.Name, &station.Lat, &station.Lon,
			&station.CreatedAt, &station.UpdatedAt)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}

	return stations, rows.Err()
}

func (d *Database) DeleteStation(ctx context.Context, stationID string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM stations WHERE station_id = $1`, stationID)
	if err != nil {
		return fmt.Errorf("delete station %s: %w", stationID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) CreateRoute(ctx context.Context, route Route) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO routes (id, name) VALUES ($1, $2)`,
		route.ID, route.Name)
	if err != nil {
		return fmt.Errorf("create route %s: %w", route.ID, err)
	}
	return nil
}

func (d *Database) ListRoutes(ctx context.Context) ([]Route, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, name, created_at FROM routes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var route Route
		if err := rows.Scan(&route.ID, &route.Name, &route.CreatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

func (d *Database) GetRoute(ctx context.Context, id string) (*RouteWithStations, error) {
	var route RouteWithStations
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM routes WHERE id = $1`, id).
		Scan(&route.ID, &route.Name, &route.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query route %s: %w", id, err)
	}

	query := `
		SELECT s.station_id, s.name, s.lat, s.lon, s.created_at, s.updated_at
		FROM route_stations rs
		JOIN stations s ON s.station_id = rs.station_id
		WHERE rs.route_id = $1
		ORDER BY rs.position ASC`

	rows, err := d.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query route stations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var station Station
		err := rows.Scan(&station.StationID, &station.Name, &station.Lat, &station.Lon,
			&station.CreatedAt, &station.UpdatedAt)
		if err != nil {
			return nil, err
		}
		route.Stations = append(route.Stations, station)
	}

	return &route, rows.Err()
}

// SetRouteStations replaces the ordered station list of a route, covering
// add, remove and reorder in one write.
func (d *Database) SetRouteStations(ctx context.Context, routeID string, stationIDs []string) error {
	return d.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM route_stations WHERE route_id = $1`, routeID); err != nil {
			return fmt.Errorf("clear route stations: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO route_stations (route_id, station_id, position) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, stationID := range stationIDs {
			if _, err := stmt.ExecContext(ctx, routeID, stationID, i); err != nil {
				return fmt.Errorf("exec route station %s: %w", stationID, err)
			}
		}
		return nil
	})
}

func (d *Database) CreateTrain(ctx context.Context, train Train) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO trains (id, name, route_id, direction) VALUES ($1, $2, $3, $4)`,
		train.ID, train.Name, train.RouteID, train.Direction)
	if err != nil {
		return fmt.Errorf("create train %s: %w", train.ID, err)
	}
	return nil
}

func (d *Database) ListTrains(ctx context.Context) ([]Train, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, route_id, direction, created_at FROM trains ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trains []Train
	for rows.Next() {
		var train Train
		err := rows.Scan(&train.ID, &train.Name, &train.RouteID, &train.Direction, &train.CreatedAt)
		if err != nil {
			return nil, err
		}
		trains = append(trains, train)
	}

	return trains, rows.Err()
}

func (d *Database) GetTrain(ctx context.Context, id string) (*TrainWithStoppages, error) {
	var train TrainWithStoppages
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, route_id, direction, created_at FROM trains WHERE id = $1`, id).
		Scan(&train.ID, &train.Name, &train.RouteID, &train.Direction, &train.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query train %s: %w", id, err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT train_id, station_id, up_arrival_time, down_arrival_time
		FROM train_stoppages
		WHERE train_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query stoppages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stoppage TrainStoppage
		err := rows.Scan(&stoppage.TrainID, &stoppage.StationID,
			&stoppage.UpArrivalTime, &stoppage.DownArrivalTime)
		if err != nil {
			return nil, err
		}
		train.Stoppages = append(train.Stoppages, stoppage)
	}

	return &train, rows.Err()
}

func (d *Database) SetStoppages(ctx context.Context, trainID string, stoppages []TrainStoppage) error {
	return d.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM train_stoppages WHERE train_id = $1`, trainID); err != nil {
			return fmt.Errorf("clear stoppages: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO train_stoppages (train_id, station_id, up_arrival_time, down_arrival_time)
			VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, stoppage := range stoppages {
			_, err := stmt.ExecContext(ctx, trainID, stoppage.StationID,
				stoppage.UpArrivalTime, stoppage.DownArrivalTime)
			if err != nil {
				return fmt.Errorf("exec stoppage %s: %w", stoppage.StationID, err)
			}
		}
		return nil
	})
}

// RecordArrival appends an arrival to the day's log, creating the daily
// status row on the first arrival of the date.
func (d *Database) RecordArrival(ctx context.Context, trainID, stationID, serviceDate string, at time.Time) (*ArrivalEvent, error) {
	event := &ArrivalEvent{
		ID:          uuid.NewString(),
		TrainID:     trainID,
		StationID:   stationID,
		ServiceDate: serviceDate,
		RecordedAt:  at,
	}

	err := d.withTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_train_status (train_id, service_date)
			VALUES ($1, $2)
			ON CONFLICT (train_id, service_date) DO NOTHING`,
			trainID, serviceDate); err != nil {
			return fmt.Errorf("ensure daily status: %w", err)
		}

		if _, err := tx.ExecContext(ctx, queryInsertArrival,
			event.ID, trainID, stationID, serviceDate, at); err != nil {
			return fmt.Errorf("insert arrival: %w", err)
		}

		return tx.QueryRowContext(ctx,
			`SELECT COALESCE(name, '') FROM stations WHERE station_id = $1`, stationID).
			Scan(&event.StationName)
	})
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// RecordDeparture appends a departure. A departure is only legal while the
// train is standing at a station, i.e. arrivals outnumber departures.
func (d *Database) RecordDeparture(ctx context.Context, trainID, stationID, serviceDate string, at time.Time) (*DepartureEvent, error) {
	event := &DepartureEvent{
		ID:          uuid.NewString(),
		TrainID:     trainID,
		StationID:   stationID,
		ServiceDate: serviceDate,
		RecordedAt:  at,
	}

	err := d.withTransaction(ctx, func(tx *sql.Tx) error {
		var arrivals, departures int
		err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM train_arrivals WHERE train_id = $1 AND service_date = $2),
				(SELECT COUNT(*) FROM train_departures WHERE train_id = $1 AND service_date = $2)`,
			trainID, serviceDate).Scan(&arrivals, &departures)
		if err != nil {
			return fmt.Errorf("count events: %w", err)
		}
		if arrivals <= departures {
			return ErrNotAtStation
		}

		if _, err := tx.ExecContext(ctx, queryInsertDeparture,
			event.ID, trainID, stationID, serviceDate, at); err != nil {
			return fmt.Errorf("insert departure: %w", err)
		}

		return tx.QueryRowContext(ctx,
			`SELECT COALESCE(name, '') FROM stations WHERE station_id = $1`, stationID).
			Scan(&event.StationName)
	})
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (d *Database) CompleteLap(ctx context.Context, trainID, serviceDate, lastStationID string) error {
	result, err := d.db.ExecContext(ctx, `
		UPDATE daily_train_status
		SET lap_completed = TRUE, last_completed_station_id = $3
		WHERE train_id = $1 AND service_date = $2`,
		trainID, serviceDate, lastStationID)
	if err != nil {
		return fmt.Errorf("complete lap for train %s: %w", trainID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) GetDailyStatus(ctx context.Context, trainID, serviceDate string) (*DailyTrainStatus, error) {
	status := &DailyTrainStatus{TrainID: trainID, ServiceDate: serviceDate}

	err := d.db.QueryRowContext(ctx, `
		SELECT lap_completed, COALESCE(last_completed_station_id, '')
		FROM daily_train_status
		WHERE train_id = $1 AND service_date = $2`,
		trainID, serviceDate).
		Scan(&status.LapCompleted, &status.LastCompletedStationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query daily status: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, querySelectArrivals, trainID, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("query arrivals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a ArrivalEvent
		err := rows.Scan(&a.ID, &a.TrainID, &a.StationID, &a.StationName, &a.ServiceDate, &a.RecordedAt)
		if err != nil {
			return nil, err
		}
		status.Arrivals = append(status.Arrivals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	depRows, err := d.db.QueryContext(ctx, querySelectDepartures, trainID, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("query departures: %w", err)
	}
	defer depRows.Close()
	for depRows.Next() {
		var dep DepartureEvent
		err := depRows.Scan(&dep.ID, &dep.TrainID, &dep.StationID, &dep.StationName, &dep.ServiceDate, &dep.RecordedAt)
		if err != nil {
			return nil, err
		}
		status.Departures = append(status.Departures, dep)
	}

	return status, depRows.Err()
}

// GetHistory returns past arrival logs for the trailing number of days,
// excluding today, grouped by service date.
func (d *Database) GetHistory(ctx context.Context, trainID string, days int) ([]TrainDayHistory, error) {
	today := time.Now().Format("2006-01-02")
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	query := `
		SELECT a.id, a.train_id, a.station_id, COALESCE(s.name, ''), a.service_date, a.recorded_at
		FROM train_arrivals a
		LEFT JOIN stations s ON s.station_id = a.station_id
		WHERE a.train_id = $1 AND a.service_date >= $2 AND a.service_date < $3
		ORDER BY a.service_date ASC, a.recorded_at ASC`

	rows, err := d.db.QueryContext(ctx, query, trainID, since, today)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []TrainDayHistory
	for rows.Next() {
		var a ArrivalEvent
		err := rows.Scan(&a.ID, &a.TrainID, &a.StationID, &a.StationName, &a.ServiceDate, &a.RecordedAt)
		if err != nil {
			return nil, err
		}
		if len(history) == 0 || history[len(history)-1].ServiceDate != a.ServiceDate {
			history = append(history, TrainDayHistory{ServiceDate: a.ServiceDate})
		}
		history[len(history)-1].Arrivals = append(history[len(history)-1].Arrivals, a)
	}

	return history, rows.Err()
}

// PruneHistory drops event logs and status rows older than the retention
// window. before is an exclusive "YYYY-MM-DD" bound.
func (d *Database) PruneHistory(ctx context.Context, before string) error {
	return d.withTransaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"train_arrivals", "train_departures", "daily_train_status"} {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE service_date < $1`, table), before); err != nil {
				return fmt.Errorf("prune %s: %w", table, err)
			}
		}
		return nil
	})
}

func (d *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return d.db.PingContext(ctx)
}

func (d *Database) ExecMigration(ctx context.Context, sql string) error {
	_, err := d.db.ExecContext(ctx, sql)
	return err
}
