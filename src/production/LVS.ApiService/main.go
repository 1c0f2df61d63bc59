package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/controllers"
	snapshot "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/implementation/snapshot"
	telemetry "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/implementation/telemetry"
	bus "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Bus"
	container "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Container"
	lvsingestor "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Ingestor"
	implementation "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Repository/Implementation"
	stream "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.Stream"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewApiContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting Livestock API Service")

	// Initialize database schema
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	eventsColl, err := ctr.GetEventsCollection()
	if err != nil {
		logger.FatalWithError(err, "Failed to connect to MongoDB event log")
	}

	// Create repositories
	animalRepo := implementation.NewPostgresAnimalRepository(db)
	readingRepo := implementation.NewPostgresReadingRepository(db)
	eventRepo := implementation.NewMongoEventRepository(eventsColl)

	config := ctr.GetConfig()

	// Event bus and domain services
	eventBus := bus.New()
	telemetryService := telemetry.NewService(animalRepo, readingRepo, eventRepo, eventBus, logger)
	snapshotService := snapshot.NewService(animalRepo, readingRepo, config.Stream.SnapshotWindow, config.Stream.RecentLimit)

	// WebSocket hub
	hub := stream.NewHub(eventBus, snapshotService, config.Stream, logger)

	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to initialize health checker")
	}

	// Optional embedded MQTT ingest path
	ingestorCtx, ingestorCancel := context.WithCancel(context.Background())
	defer ingestorCancel()
	var ingestor *lvsingestor.Ingestor
	if config.MQTT.Enabled {
		ingestor = lvsingestor.New(config.MQTT, telemetryService, logger)
		if err := ingestor.Start(ingestorCtx); err != nil {
			logger.FatalWithError(err, "Failed to start MQTT ingestor")
		}
		logger.Info("MQTT ingestor started")
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Create controllers and register routes
	sensorController := controllers.NewSensorController(telemetryService, readingRepo, eventRepo, logger)
	animalController := controllers.NewAnimalController(animalRepo, logger)
	streamController := controllers.NewStreamController(hub)
	healthController := controllers.NewHealthController(healthChecker)

	sensorController.RegisterRoutes(router)
	animalController.RegisterRoutes(router)
	streamController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)

	port := config.Server.Port

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("API service running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	if ingestor != nil {
		ingestorCancel()
		ingestor.Stop()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
