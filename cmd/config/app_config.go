package config

import (
	"Larder-Backend/internal/api/handlers"
	"Larder-Backend/internal/api/routes"
	"Larder-Backend/internal/middleware"
	"Larder-Backend/internal/utils"
	"Larder-Backend/internal/utils/storage"
	"Larder-Backend/pkg/inventory"
	"Larder-Backend/pkg/jwt"
	"Larder-Backend/pkg/notifier"
	"Larder-Backend/pkg/user"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, notifier.Notifier, inventory.InventoryService, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	// Repository
	userRepository := user.NewUserRepository(db)
	inventoryRepository := inventory.NewInventoryRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	inventoryService := inventory.NewInventoryService(inventoryRepository, s3)
	expiryNotifier := notifier.NewNotifier(inventoryService, userRepository)

	// Handler
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, validator)

	// routes
	routesConfig := routes.Config{
		App:              app,
		InventoryHandler: inventoryHandler,
		Middleware:       middlewares,
		JWTService:       jwtService,
	}
	routesConfig.Setup()
	return app, expiryNotifier, inventoryService, nil
}
