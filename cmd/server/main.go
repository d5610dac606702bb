package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/karanveer09/unilink/backend/internal/realtime"
	"github.com/karanveer09/unilink/backend/internal/router"
	"github.com/karanveer09/unilink/backend/internal/services"
	"github.com/karanveer09/unilink/backend/pkg/cache"
	"github.com/karanveer09/unilink/backend/pkg/config"
	"github.com/karanveer09/unilink/backend/pkg/firebase"
	"github.com/karanveer09/unilink/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logrus.New()
	if cfg.Env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Redis cache for enrichment metadata
	metaCache := cache.New(&cache.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	defer metaCache.Close()

	// Firebase cloud messaging is optional; without credentials the
	// websocket hub is the only push channel.
	var fcm services.Notifier
	if cfg.FirebaseCredentialsPath != "" {
		ctx := context.Background()
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		fcm = realtime.NewFCMNotifier(firebaseApp.MessagingClient, logger)
	} else {
		log.Println("Firebase credentials not configured, device push disabled.")
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Postgres: db.Postgres,
		Mongo:    db.Mongo,
		Cache:    metaCache,
		FCM:      fcm,
		Logger:   logger,
		Config:   cfg,
	})

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
