package internal

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/masfiktalukdar/Train-Tracker-sub000/journey"
)

type HTTPHandlers struct {
	database      DatabaseInterface
	statusService TrainStatusServiceInterface
	config        *Config
}

func NewHTTPHandlers(database DatabaseInterface, statusService TrainStatusServiceInterface, config *Config) *HTTPHandlers {
	return &HTTPHandlers{
		database:      database,
		statusService: statusService,
		config:        config,
	}
}

func (h *HTTPHandlers) handleError(c *gin.Context, statusCode int, message string, err error) {
	log.Printf("Error in %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(statusCode, gin.H{"error": message})
}

func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.database.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "train-tracker-api",
			"reason":  "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "train-tracker-api",
	})
}

func (h *HTTPHandlers) ListStations(c *gin.Context) {
	stations, err := h.database.ListStations(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch stations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": stations})
}

func (h *HTTPHandlers) UpsertStation(c *gin.Context) {
	var station Station
	if err := c.ShouldBindJSON(&station); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid station payload", err)
		return
	}
	if err := station.Validate(); err != nil {
		h.handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	if err := h.database.UpsertStations(c.Request.Context(), []Station{station}); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to store station", err)
		return
	}
	c.JSON(http.StatusCreated, station)
}

func (h *HTTPHandlers) DeleteStation(c *gin.Context) {
	err := h.database.DeleteStation(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Station not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to delete station", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Station deleted"})
}

func (h *HTTPHandlers) ListRoutes(c *gin.Context) {
	routes, err := h.database.ListRoutes(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch routes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

func (h *HTTPHandlers) CreateRoute(c *gin.Context) {
	var route Route
	if err := c.ShouldBindJSON(&route); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid route payload", err)
		return
	}
	if err := route.Validate(); err != nil {
		h.handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	if err := h.database.CreateRoute(c.Request.Context(), route); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to create route", err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

func (h *HTTPHandlers) GetRoute(c *gin.Context) {
	route, err := h.database.GetRoute(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Route not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch route", err)
		return
	}
	c.JSON(http.StatusOK, route)
}

// SetRouteStations replaces a route's ordered station list, covering add,
// remove and reorder from the admin UI.
func (h *HTTPHandlers) SetRouteStations(c *gin.Context) {
	var req struct {
		StationIDs []string `json:"station_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid station list payload", err)
		return
	}

	if err := h.database.SetRouteStations(c.Request.Context(), c.Param("id"), req.StationIDs); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to update route stations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route stations updated"})
}

func (h *HTTPHandlers) ListTrains(c *gin.Context) {
	trains, err := h.database.ListTrains(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch trains", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trains": trains})
}

func (h *HTTPHandlers) CreateTrain(c *gin.Context) {
	var train Train
	if err := c.ShouldBindJSON(&train); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid train payload", err)
		return
	}
	if err := train.Validate(); err != nil {
		h.handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	if err := h.database.CreateTrain(c.Request.Context(), train); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to create train", err)
		return
	}
	c.JSON(http.StatusCreated, train)
}

func (h *HTTPHandlers) GetTrain(c *gin.Context) {
	train, err := h.database.GetTrain(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Train not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch train", err)
		return
	}
	c.JSON(http.StatusOK, train)
}

func (h *HTTPHandlers) SetStoppages(c *gin.Context) {
	var req struct {
		Stoppages []TrainStoppage `json:"stoppages" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid stoppages payload", err)
		return
	}
	for i := range req.Stoppages {
		if err := req.Stoppages[i].Validate(); err != nil {
			h.handleError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
	}

	if err := h.database.SetStoppages(c.Request.Context(), c.Param("id"), req.Stoppages); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to update stoppages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stoppages updated"})
}

type trainEventRequest struct {
	StationID  string     `json:"station_id" binding:"required"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (r trainEventRequest) at() time.Time {
	if r.RecordedAt != nil {
		return *r.RecordedAt
	}
	return time.Now()
}

func (h *HTTPHandlers) RecordArrival(c *gin.Context) {
	var req trainEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid arrival payload", err)
		return
	}

	at := req.at()
	event, err := h.database.RecordArrival(c.Request.Context(),
		c.Param("id"), req.StationID, at.Format("2006-01-02"), at)
	if errors.Is(err, ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Station not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to record arrival", err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *HTTPHandlers) RecordDeparture(c *gin.Context) {
	var req trainEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid departure payload", err)
		return
	}

	at := req.at()
	event, err := h.database.RecordDeparture(c.Request.Context(),
		c.Param("id"), req.StationID, at.Format("2006-01-02"), at)
	if errors.Is(err, ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Station not found", err)
		return
	}
	if errors.Is(err, ErrNotAtStation) {
		h.handleError(c, http.StatusConflict, "Train is not at a station", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to record departure", err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// CompleteLap marks the day's round trip finished. The full journey path must
// have been arrived at first; until then the request is rejected.
func (h *HTTPHandlers) CompleteLap(c *gin.Context) {
	ctx := c.Request.Context()
	trainID := c.Param("id")

	train, err := h.database.GetTrain(ctx, trainID)
	if errors.Is(err, ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Train not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch train", err)
		return
	}
	route, err := h.database.GetRoute(ctx, train.RouteID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch route", err)
		return
	}

	date := time.Now().Format("2006-01-02")
	status, err := h.database.GetDailyStatus(ctx, trainID, date)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to fetch daily status", err)
		return
	}

	path := journey.BuildPath(toJourneyRoute(route).Stations, toJourneyTrain(train).Stoppages,
		journey.Direction(train.Direction))
	if status == nil || len(status.Arrivals) < len(path) {
		h.handleError(c, http.StatusConflict, "Round trip is not finished yet",
			errors.New("arrivals do not cover the journey path"))
		return
	}

	lastStationID := status.Arrivals[len(status.Arrivals)-1].StationID
	if err := h.database.CompleteLap(ctx, trainID, date, lastStationID); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to complete lap", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lap completed"})
}

func (h *HTTPHandlers) GetTrainStatus(c *gin.Context) {
	live, err := h.statusService.GetLiveStatus(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		h.handleError(c, http.StatusNotFound, "Train not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to evaluate train status", err)
		return
	}
	c.JSON(http.StatusOK, live)
}
