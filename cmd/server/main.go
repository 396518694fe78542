package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/program-engine/internal/api"
	"alcyxob/program-engine/internal/archive"
	"alcyxob/program-engine/internal/config"
	"alcyxob/program-engine/internal/engine"
	storemongo "alcyxob/program-engine/internal/store/mongo"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Program Engine Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := storemongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := storemongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := storemongo.EnsureIndexes(ctx, appDB); err != nil {
			log.Printf("WARN: Index creation failed: %v", err)
			return
		}
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Store ---
	docStore := storemongo.NewMongoStore(appDB)

	// --- Initialize Snapshot Archiver (optional) ---
	var archiver engine.SubtreeArchiver
	if cfg.S3.Enabled {
		log.Println("Initializing snapshot archiver...")
		archiver, err = archive.NewS3Archiver(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 archiver: %v", err)
		}
	}

	// --- Initialize Engine ---
	log.Println("Initializing replication engine...")
	eng := engine.New(docStore, archiver, engine.Options{
		BatchLimit:         cfg.Engine.BatchLimit,
		KeepStrengthWeight: cfg.Engine.KeepStrengthWeight,
	})

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, eng)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
