package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the HTTP app with routes and middleware wired. Uploads are
// capped at 32MB, which is far beyond any real statement.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "bookkeep",
		BodyLimit: 32 << 20,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/api/health", HandleHealth)
	app.Post("/api/convert", HandleConvert)
	return app
}
