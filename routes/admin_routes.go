package routes

import (
	"github.com/altairlabs/payhub/handlers"
	"github.com/altairlabs/payhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	admin := app.Group("/api/v1/admin", middleware.Protected(), middleware.AdminRequired())

	channels := admin.Group("/channels")
	channels.Get("/", handlers.ListChannelsAdmin)
	channels.Post("/", handlers.CreateChannelAdmin)
	channels.Put("/:channelId", handlers.UpdateChannelAdmin)
	channels.Delete("/:channelId", handlers.DeleteChannelAdmin)
	channels.Get("/:channelId/config", handlers.GetChannelConfigAdmin)
	channels.Post("/:channelId/config", handlers.SetChannelConfigAdmin)
	channels.Delete("/:channelId/config/:key", handlers.DeleteChannelConfigAdmin)

	plugins := admin.Group("/plugins")
	plugins.Get("/", handlers.ListPluginsAdmin)
	plugins.Patch("/:code/status", handlers.UpdatePluginStatusAdmin)
	plugins.Post("/:code/reload", handlers.ReloadPluginAdmin)
}
