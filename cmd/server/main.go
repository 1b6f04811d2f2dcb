package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medisupply/inventory/internal/config"
	"github.com/medisupply/inventory/internal/db"
	"github.com/medisupply/inventory/internal/events"
	"github.com/medisupply/inventory/internal/importer"
	"github.com/medisupply/inventory/internal/middleware"
	"github.com/medisupply/inventory/internal/repository"
	"github.com/medisupply/inventory/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Blob store
	blobs, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket: cfg.Storage.Bucket,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	// Message channel
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Events.RedisAddr,
		Password: cfg.Events.RedisPassword,
		DB:       cfg.Events.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	channel := events.NewRedisChannel(redisClient, cfg.Events.ImportTopic)

	// Create repositories
	jobRepo := repository.NewImportJobRepository(conn.Pool)
	productRepo := repository.NewProductRepository(conn.Pool)

	// Create services
	submissions := importer.NewSubmissionService(jobRepo, blobs, channel, cfg.Storage, cfg.Import)
	consumer := importer.NewConsumer(jobRepo, productRepo, blobs, cfg.Storage.PublicBaseURL)
	handler := importer.NewHTTPHandler(submissions, consumer, jobRepo)

	// Consume delivered events in-process
	go func() {
		if err := channel.Listen(ctx, consumer.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Event listener stopped: %v", err)
		}
	}()

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	handler.Mount(r)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting inventory server on :%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Failed to close redis client: %v", err)
	}

	log.Println("Server exited")
}
