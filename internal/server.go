package internal

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	router        *gin.Engine
	handlers      *HTTPHandlers
	statusService TrainStatusServiceInterface
	database      DatabaseInterface
	config        *Config
}

func NewServer(config *Config, handlers *HTTPHandlers, statusService TrainStatusServiceInterface, database DatabaseInterface) (*Server, error) {
	if config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	return &Server{
		router:        router,
		handlers:      handlers,
		statusService: statusService,
		database:      database,
		config:        config,
	}, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/stations", s.handlers.ListStations)
		api.GET("/routes", s.handlers.ListRoutes)
		api.GET("/routes/:id", s.handlers.GetRoute)
		api.GET("/trains", s.handlers.ListTrains)
		api.GET("/trains/:id", s.handlers.GetTrain)
		api.GET("/trains/:id/status", s.handlers.GetTrainStatus)
	}

	admin := s.router.Group("/api/admin")
	{
		admin.POST("/stations", s.handlers.UpsertStation)
		admin.DELETE("/stations/:id", s.handlers.DeleteStation)
		admin.POST("/routes", s.handlers.CreateRoute)
		admin.PUT("/routes/:id/stations", s.handlers.SetRouteStations)
		admin.POST("/trains", s.handlers.CreateTrain)
		admin.PUT("/trains/:id/stoppages", s.handlers.SetStoppages)
		admin.POST("/trains/:id/arrivals", s.handlers.RecordArrival)
		admin.POST("/trains/:id/departures", s.handlers.RecordDeparture)
		admin.POST("/trains/:id/complete-lap", s.handlers.CompleteLap)
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())

	// The SPA frontend is served from a different origin.
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) Start() error {
	s.setupMiddleware()
	s.setupRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.startStatusRefresh(ctx)
	s.startHistoryPruning(ctx)

	server := &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: s.router,
	}

	go func() {
		log.Printf("Server starting on port %s", s.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(s.config.Timing.ServerShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}

// startStatusRefresh re-evaluates every train on a coarse tick so live
// statuses stay current even while nobody is polling.
func (s *Server) startStatusRefresh(ctx context.Context) {
	interval := time.Duration(s.config.Timing.StatusRefreshIntervalSec) * time.Second

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("Status refresh service running - evaluating every %v", interval)

		for {
			select {
			case <-ctx.Done():
				log.Println("Status refresh service shutting down")
				return
			case <-ticker.C:
				if err := s.statusService.RefreshAll(context.Background()); err != nil {
					log.Printf("Scheduled status refresh failed: %v", err)
				}
			}
		}
	}()
}

// startHistoryPruning drops arrival logs past the retention window once a day.
func (s *Server) startHistoryPruning(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		prune := func() {
			before := time.Now().
				AddDate(0, 0, -s.config.Timing.HistoryRetentionDays).
				Format("2006-01-02")
			if err := s.database.PruneHistory(context.Background(), before); err != nil {
				log.Printf("History pruning failed: %v", err)
			} else {
				log.Printf("Pruned history older than %s", before)
			}
		}

		prune()
		for {
			select {
			case <-ctx.Done():
				log.Println("History pruning service shutting down")
				return
			case <-ticker.C:
				prune()
			}
		}
	}()
}
