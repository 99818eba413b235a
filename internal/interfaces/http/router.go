package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine         *inventory.Engine
	Reporting      *inventory.ReportingUseCase
	Fulfillment    *inventory.FulfillmentChecker
	Audit          *inventory.AuditUseCase
	Replenishment  *inventory.ReplenishmentUseCase
	MetricsHandler nethttp.Handler // opcional: expuesto en /metrics sin auth
	Logger         *logger.Logger
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	h := NewInventoryHandler(deps.Engine, deps.Reporting, deps.Fulfillment, deps.Audit, deps.Replenishment, deps.Logger)
	anyRole := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor)
	warehouse := RequireRole(RoleAdmin, RoleBodeguero)

	inv := protected.Group("/inventory")

	// Vistas; las rutas fijas van antes de /:variantId
	inv.Get("/overview", anyRole, h.Overview)
	inv.Get("/low-stock", anyRole, h.LowStock)
	inv.Get("/replenishment", warehouse, h.Replenishment)
	inv.Get("/transactions", warehouse, h.TransactionsByDateRange)
	inv.Get("/references/:type/:id/transactions", anyRole, h.TransactionsByReference)
	inv.Post("/check-fulfillment", anyRole, h.CheckFulfillment)
	inv.Post("/bulk-levels", anyRole, h.BulkLevels)
	inv.Post("/variants", warehouse, h.RegisterVariant)

	inv.Get("/:variantId", anyRole, h.GetLevel)
	inv.Get("/:variantId/audit", RequireRole(RoleAdmin), h.Audit)
	inv.Get("/:variantId/transactions", anyRole, h.TransactionHistory)

	// Mutaciones: reservas y ventas las originan las órdenes; ajustes y compras son de bodega
	inv.Post("/:variantId/reserve", anyRole, h.Reserve)
	inv.Post("/:variantId/release", anyRole, h.Release)
	inv.Post("/:variantId/sale", anyRole, h.Sale)
	inv.Post("/:variantId/adjust", warehouse, h.Adjust)
	inv.Post("/:variantId/purchase", warehouse, h.Purchase)
}
