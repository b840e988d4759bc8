package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"healthadmin-backend/controllers"
	"healthadmin-backend/middlewares"
)

// Register wires all HTTP routes. authn authenticates protected routes.
func Register(app *fiber.App, ctl *controllers.Controller, authn fiber.Handler, db *gorm.DB) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", ctl.Register)
	api.Post("/login", ctl.Login)
	api.Post("/logout", ctl.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(authn)

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency(db))

	// Per-request tenant transaction for plain CRUD routes. Ledger routes
	// open their own transactions and must not run inside one.
	tx := middlewares.TenantTx(db)

	// Staff (public users table)
	protected.Post("/staff", middlewares.RequireAdmin(), ctl.CreateStaff)
	protected.Get("/staff", ctl.GetStaff)

	// Providers
	protected.Post("/provider", tx, ctl.CreateProvider)
	protected.Get("/providers", tx, ctl.GetProviders)
	protected.Put("/provider/:id", tx, ctl.UpdateProvider)

	// Clients
	protected.Post("/client", tx, ctl.CreateClient)
	protected.Get("/clients", tx, ctl.GetClients)
	protected.Get("/client/:id", tx, ctl.GetClient)
	protected.Put("/client/:id", tx, ctl.UpdateClient)

	// Enrollees
	protected.Post("/enrollee", tx, ctl.CreateEnrollee)
	protected.Get("/enrollees", tx, ctl.GetEnrollees)
	protected.Get("/enrollee/:id", tx, ctl.GetEnrollee)

	// Services (tariff catalog)
	protected.Post("/services", tx, ctl.CreateServices) // batch create
	protected.Get("/services", tx, ctl.GetServices)
	protected.Put("/services/:id", tx, ctl.UpdateService)

	// Invoices
	inv := ctl.Invoices
	protected.Post("/invoices", inv.Create)
	protected.Get("/invoices", inv.List)
	protected.Get("/invoices/:id", inv.Get)
	protected.Delete("/invoices/:id", inv.Delete)
	protected.Post("/invoices/:id/items", inv.AddEntry)
	protected.Put("/invoice-items/:id", inv.UpdateEntry)
	protected.Delete("/invoice-items/:id", inv.DeleteEntry)
	protected.Put("/invoices/:id/issue", inv.Issue)
	protected.Put("/invoices/:id/cancel", inv.Cancel)
	protected.Post("/invoices/:id/payments", inv.RecordPayment)
	protected.Get("/invoices/:id/payments", inv.ListPayments)
	protected.Post("/invoices/:id/recalculate", inv.Recalculate)

	// Payment batches and their provider details (claims are the line entries)
	det := ctl.Details
	protected.Post("/payment-batches", tx, ctl.CreatePaymentBatch)
	protected.Get("/payment-batches", tx, ctl.GetPaymentBatches)
	protected.Post("/payment-batches/:id/details", det.Create)
	protected.Get("/payment-batch-details", det.List)
	protected.Get("/payment-batch-details/:id", det.Get)
	protected.Delete("/payment-batch-details/:id", det.Delete)
	protected.Post("/payment-batch-details/:id/claims", det.AddEntry)
	protected.Put("/claims/:id", det.UpdateEntry)
	protected.Delete("/claims/:id", det.DeleteEntry)
	protected.Put("/payment-batch-details/:id/issue", det.Issue)
	protected.Put("/payment-batch-details/:id/cancel", det.Cancel)
	protected.Post("/payment-batch-details/:id/payments", det.RecordPayment)
	protected.Get("/payment-batch-details/:id/payments", det.ListPayments)
	protected.Post("/payment-batch-details/:id/recalculate", det.Recalculate)
}
