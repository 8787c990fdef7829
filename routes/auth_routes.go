package routes

import (
	"github.com/altairlabs/payhub/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1/auth")
	api.Post("/login", handlers.LoginUser)
}
