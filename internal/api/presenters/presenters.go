package presenters

import (
	"github.com/gofiber/fiber/v2"
)

func SuccessResponse(c *fiber.Ctx, data any, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	res := fiber.Map{
		"status":  "error",
		"message": message,
	}
	if err != nil {
		res["error"] = err.Error()
	}
	return c.Status(status).JSON(res)
}
