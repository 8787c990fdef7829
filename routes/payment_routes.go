package routes

import (
	"github.com/altairlabs/payhub/handlers"
	"github.com/altairlabs/payhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Provider-facing endpoints are unauthenticated; the signature on
	// the callback data is the authentication.
	api.Post("/payments/callback/:channelCode", handlers.PaymentCallbackHandler)
	api.Get("/payments/return/:channelCode", handlers.PaymentReturnHandler)

	api.Get("/payments/channels", handlers.ListPaymentChannelsHandler)

	protected := api.Group("/payments", middleware.Protected())
	protected.Post("/", handlers.CreatePaymentHandler)
	protected.Get("/:orderNo", handlers.QueryPaymentHandler)
	protected.Post("/:orderNo/refund", middleware.AdminRequired(), handlers.RefundPaymentHandler)
}
