package routes

import (
	"github.com/gofiber/fiber/v2"

	"montoit-backend/controllers"
	"montoit-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.RequestTx())

	// Properties
	protected.Post("/properties", controllers.CreateProperty)
	protected.Get("/properties", controllers.GetProperties)
	protected.Get("/property/:id", controllers.GetProperty)
	protected.Put("/property/:id", controllers.UpdateProperty)

	// Mandates (dual-party signature workflow)
	protected.Post("/mandates", controllers.CreateMandate)
	protected.Get("/mandates", controllers.GetMandates)
	protected.Get("/mandate/:id", controllers.GetMandate)
	protected.Post("/mandate/:id/sign", controllers.SignMandate)
	protected.Get("/mandate/:id/attempts", controllers.GetMandateAttempts)
}
