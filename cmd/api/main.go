package main

import (
	"log"
	"time"

	config "github.com/altairlabs/payhub/configs"
	"github.com/altairlabs/payhub/database"
	"github.com/altairlabs/payhub/handlers"
	"github.com/altairlabs/payhub/jobs"
	"github.com/altairlabs/payhub/payments"
	"github.com/altairlabs/payhub/payments/demopay"
	"github.com/altairlabs/payhub/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()

	cipher, err := payments.NewConfigCipher(config.Config("PAYMENT_ENCRYPT_KEY"))
	if err != nil {
		log.Fatalf("🔥 Failed to initialize payment config cipher: %v", err)
	}

	resolver := payments.NewResolver(database.DB, cipher)
	registry := payments.NewRegistry(database.DB)
	orderTTL := time.Duration(config.ConfigInt("PAYMENT_ORDER_TTL_MINUTES", 30)) * time.Minute
	store := payments.NewOrderStore(database.DB, orderTTL)
	pluginTimeout := time.Duration(config.ConfigInt("PAYMENT_PLUGIN_TIMEOUT_SECONDS", 30)) * time.Second
	engine := payments.NewEngine(database.DB, registry, resolver, store, pluginTimeout)

	if err := registry.Register(demopay.ProviderCode, demopay.New); err != nil {
		log.Fatalf("🔥 Failed to register payment plugin: %v", err)
	}
	if err := registry.SyncPlugins(); err != nil {
		log.Fatalf("🔥 Failed to sync payment plugins: %v", err)
	}
	registry.LoadActive()

	handlers.InitPayments(engine, resolver, registry)
	jobs.InitPaymentJobs(engine, store)

	c := cron.New()
	c.AddFunc("* * * * *", jobs.ExpireStaleOrders)
	c.AddFunc("*/5 * * * *", jobs.ReconcileProcessingOrders)
	go c.Start()
	log.Println("✅ Cron jobs for payment maintenance scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "PayHub",
		CaseSensitive:     true,
		StrictRouting:     false,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to PayHub API",
		})
	})

	routes.AuthRoutes(app)
	routes.PaymentRoutes(app)
	routes.AdminRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
