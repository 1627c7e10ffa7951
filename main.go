package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"catalogo/internal/handlers"
	"catalogo/internal/middleware"
	"catalogo/internal/models"
	"catalogo/internal/repositories"
	"catalogo/internal/services"
	"catalogo/internal/storage"
	"catalogo/pkg/logger"
	"catalogo/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("PUBLIC_STORAGE_URL", "http://localhost:8080")
	viper.SetDefault("STORAGE_ROOT", "./storage/app/public")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	storageRoot := viper.GetString("STORAGE_ROOT")
	publicURL := viper.GetString("PUBLIC_STORAGE_URL")

	appLog := logger.New(logger.Config{
		Env:   viper.GetString("APP_ENV"),
		Level: viper.GetString("LOG_LEVEL"),
	})

	// --- Blob Store ---
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		appLog.Fatal().Err(err).Str("root", storageRoot).Msg("failed to create storage root")
	}
	blobFs := afero.NewBasePathFs(afero.NewOsFs(), storageRoot)
	blobStore := storage.NewFileBlobStore(blobFs, publicURL)

	// --- Repositories ---
	var productRepo repositories.ProductRepository
	var userRepo repositories.UserRepository

	dsn := viper.GetString("DATABASE_DSN")
	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			appLog.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
			appLog.Fatal().Err(err).Msg("failed to migrate database")
		}
		productRepo = repositories.NewGORMProductRepository(db)
		userRepo = repositories.NewGORMUserRepository(db)
	} else {
		// Demo mode: in-memory catalog, no auth endpoints.
		appLog.Warn().Msg("DATABASE_DSN not configured, running with an in-memory catalog")
		mockRepo := repositories.NewMockProductRepository()
		seedProducts(mockRepo, appLog)
		productRepo = mockRepo
	}

	// --- RabbitMQ ---
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		var err error
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			appLog.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
	} else {
		appLog.Info().Msg("RABBITMQ_URL not configured, product events disabled")
	}

	// --- Services ---
	imageService := services.NewImageService(blobStore)
	productService := services.NewProductService(productRepo, imageService, mqClient, appLog)

	// --- Handlers ---
	policy := middleware.AllowAllPolicy{}
	productHandler := handlers.NewProductHandler(productService, policy, publicURL)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(fiberlogger.New())

	// Serve stored images under the public /storage prefix.
	app.Static("/storage", storageRoot)

	apiV1 := app.Group("/api/v1")

	if userRepo != nil {
		authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"), appLog)
		authHandler := handlers.NewAuthHandler(authService, appLog)
		authHandler.RegisterRoutes(apiV1)
	}
	productHandler.RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Product Event Consumer ---
	if mqClient != nil {
		go func() {
			appLog.Info().Msg("starting product event consumer")
			messageHandler := func(msg amqp.Delivery) error {
				appLog.Info().
					Str("type", msg.Type).
					Uint64("tag", msg.DeliveryTag).
					Msg("received product event")
				return nil
			}
			if err := mqClient.ConsumeProductEvents(messageHandler); err != nil {
				appLog.Error().Err(err).Msg("failed to start product event consumer")
			}
		}()
	}

	// --- Start HTTP Server ---
	appLog.Info().Str("port", appPort).Msg("starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			appLog.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	appLog.Info().Msg("shutting down server")

	if err := app.Shutdown(); err != nil {
		appLog.Error().Err(err).Msg("error during Fiber shutdown")
	}

	appLog.Info().Msg("server gracefully stopped")
}

// seedProducts populates the in-memory repository with demo data.
func seedProducts(repo repositories.ProductRepository, appLog *logger.Logger) {
	products := []models.Product{
		{Name: "Laptop Pro", Slug: "laptop-pro", Description: "High performance laptop", Price: decimal.NewFromFloat(1200.00), Stock: 10},
		{Name: "Mechanical Keyboard", Slug: "mechanical-keyboard", Description: "Mechanical keyboard", Price: decimal.NewFromFloat(75.00), Stock: 25},
		{Name: "Wireless Mouse", Slug: "wireless-mouse", Description: "Ergonomic wireless mouse", Price: decimal.NewFromFloat(25.00), Stock: 50},
	}

	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			appLog.Error().Err(err).Str("name", products[i].Name).Msg("error seeding product")
		}
	}
}
