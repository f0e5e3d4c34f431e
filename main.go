package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/module-grading-service/internal/config"
	"github.com/SAP-F-2025/module-grading-service/internal/events"
	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
	"github.com/SAP-F-2025/module-grading-service/internal/handlers"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/module-grading-service/internal/scheduler"
	"github.com/SAP-F-2025/module-grading-service/internal/services"
	"github.com/SAP-F-2025/module-grading-service/internal/utils"
	"github.com/SAP-F-2025/module-grading-service/internal/validator"
	"github.com/SAP-F-2025/module-grading-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg.DatabaseURL, slogLogger, cfg.LogLevel == slog.LevelDebug)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg.RedisURL, slogLogger)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	v := validator.New()

	// Initialize gradebook client, cached through redis when available
	var gbClient gradebook.Client = gradebook.NewRESTClient(gradebook.RESTConfig{
		BaseURL: cfg.Gradebook.BaseURL,
		Token:   cfg.Gradebook.Token,
		Timeout: cfg.Gradebook.Timeout,
	})
	if redisClient != nil {
		gbClient = gradebook.NewCachedClient(gbClient, redisClient)
	}

	// Initialize event publisher
	var publisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize kafka publisher: %v", err)
		}
	} else {
		publisher = events.NewGoChannelPublisher(slogLogger)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(
		db, repoManager.GetRepository(), gbClient, publisher, slogLogger, v,
		services.ServiceManagerConfig{
			GradingUserID:       cfg.GradingUserID,
			Weights:             services.DefaultGradeWeights,
			SweepTrailingWindow: cfg.Sweep.TrailingWindow,
			SweepWorkers:        cfg.Sweep.Workers,
			DefaultTimeout:      30 * time.Second,
		})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, v, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	// Start the nightly sweep
	sweepScheduler := scheduler.NewSweepScheduler(serviceManager.Sync(), slogLogger, 0)
	if err := sweepScheduler.Start(cfg.Sweep.Schedule); err != nil {
		log.Fatalf("Failed to start sweep scheduler: %v", err)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := sweepScheduler.Stop(ctx); err != nil {
		log.Printf("Failed to stop sweep scheduler: %v", err)
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Closes the database and redis connections as well.
	if err := repoManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown repositories: %v", err)
	}

	logger.Info("Server exited")
}
