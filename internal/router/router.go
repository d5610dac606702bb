package router

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/karanveer09/unilink/backend/internal/handlers"
	"github.com/karanveer09/unilink/backend/internal/middleware"
	"github.com/karanveer09/unilink/backend/internal/models"
	"github.com/karanveer09/unilink/backend/internal/realtime"
	"github.com/karanveer09/unilink/backend/internal/repositories"
	"github.com/karanveer09/unilink/backend/internal/services"
	"github.com/karanveer09/unilink/backend/pkg/cache"
	"github.com/karanveer09/unilink/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// Dependencies carries the external handles the router wires together.
type Dependencies struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	Cache    *cache.Cache
	FCM      services.Notifier // nil when firebase is not configured
	Logger   *logrus.Logger
	Config   *config.Config
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	// AutoMigrate PostgreSQL models
	if err := deps.Postgres.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	mongoDB := deps.Mongo.Database(deps.Config.MongoDatabase)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	subscriptionRepo := repositories.NewMongoSubscriptionRepository(mongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB)

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := subscriptionRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create subscription indexes: %v", err)
	}
	if err := notificationRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create notification indexes: %v", err)
	}
	log.Println("MongoDB indexes ensured.")

	// --- Real-time push gateway ---
	hub := realtime.NewHub(deps.Logger)
	notifiers := services.MultiNotifier{hub}
	if deps.FCM != nil {
		notifiers = append(notifiers, deps.FCM)
	}

	// --- Services ---
	var metaCache services.MetadataCache
	if deps.Cache != nil {
		metaCache = deps.Cache
	}
	enricher := services.NewEnricher(userRepo, postRepo, metaCache, deps.Logger)
	notificationService := services.NewNotificationService(subscriptionRepo, notificationRepo, enricher, notifiers, deps.Logger)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// Websocket attach point; token is carried as a query parameter.
	e.GET("/ws/notifications", hub.ServeWS(deps.Config.JWTSecret))

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Config.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Notification + subscription routes
	notificationHandler := handlers.NewNotificationHandler(notificationService, subscriptionRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Post routes (fan-out trigger)
	postHandler := handlers.NewPostHandler(postRepo, notificationService)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// User profile routes (enrichment metadata source)
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	log.Println("All routes configured.")
}
