package routes

import (
	"Larder-Backend/internal/api/handlers"
	"Larder-Backend/internal/middleware"
	"Larder-Backend/pkg/jwt"
	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App              *fiber.App
	InventoryHandler handlers.InventoryHandler
	Middleware       middleware.Middleware
	JWTService       jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Inventory()
	c.GuestRoute()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}

func (c *Config) Inventory() {
	inv := c.App.Group("/api/v1/inventory", c.Middleware.AuthMiddleware(c.JWTService))

	// Cross-kind expiration views
	inv.Get("/expiring-soon", c.InventoryHandler.FindExpiringSoon)
	inv.Get("/expired", c.InventoryHandler.FindExpired)
	inv.Post("/sweep", c.InventoryHandler.SweepExpiredStatus)

	// Ingredient stacks
	ingredients := inv.Group("/ingredients")
	{
		ingredients.Post("", c.InventoryHandler.AddIngredientStacks)
		ingredients.Get("", c.InventoryHandler.ListIngredients)
		ingredients.Get("/:name", c.InventoryHandler.GetIngredientDetail)
		ingredients.Post("/:name/consume", c.InventoryHandler.ConsumeIngredientStack)
		ingredients.Delete("/:name", c.InventoryHandler.DeleteIngredientStack)
	}

	// Food portions
	foods := inv.Group("/foods")
	{
		foods.Post("", c.InventoryHandler.AddFoodPortions)
		foods.Get("", c.InventoryHandler.ListFoods)
		foods.Post("/image", c.InventoryHandler.UploadFoodImage)
		foods.Get("/:name", c.InventoryHandler.GetFoodDetail)
		foods.Post("/:name/consume", c.InventoryHandler.ConsumeFoodPortion)
		foods.Patch("/:name/image", c.InventoryHandler.AttachFoodImage)
		foods.Delete("/:name", c.InventoryHandler.DeleteFoodPortion)
	}
}
