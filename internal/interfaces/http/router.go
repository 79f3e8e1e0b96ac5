package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Workflow     *replenishment.RequestWorkflow
	DeliveryNote *replenishment.DeliveryNoteUseCase
	Ledger       *inventory.LedgerUseCase
	JWTSecret    string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Pedidos de reposición
	requests := api.Group("/stock-requests")
	h := NewStockRequestHandler(deps.Workflow, deps.DeliveryNote)
	requests.Post("/", RequireRole(entity.RoleStore, entity.RoleAdmin), h.Create)
	// rutas fijas antes de /:id
	requests.Get("/mine", RequireRole(entity.RoleStore), h.ListMine)
	requests.Get("/all", RequireRole(entity.RoleAdmin, entity.RolePlant, entity.RoleDeliverer), h.ListAll)
	requests.Get("/pending", RequireRole(entity.RoleAdmin, entity.RolePlant), h.ListPending)
	requests.Get("/:id", RequireRole(entity.RoleAdmin, entity.RoleStore, entity.RolePlant, entity.RoleDeliverer), h.GetByID)
	requests.Get("/:id/delivery-note", RequireRole(entity.RoleAdmin, entity.RoleStore, entity.RolePlant, entity.RoleDeliverer), h.DeliveryNote)
	requests.Put("/:id/state", RequireRole(entity.RoleAdmin, entity.RolePlant, entity.RoleDeliverer), h.ChangeState)
	requests.Put("/:id/finalize-preparation", RequireRole(entity.RoleAdmin, entity.RolePlant), h.FinalizePreparation)
	requests.Put("/:id/deliver", RequireRole(entity.RoleAdmin, entity.RoleStore, entity.RoleDeliverer), h.Deliver)

	// Inventario del obrador
	inv := api.Group("/inventory")
	ih := NewInventoryHandler(deps.Ledger)
	inv.Get("/", RequireRole(entity.RoleAdmin, entity.RolePlant), ih.List)
	inv.Get("/:productId", RequireRole(entity.RoleAdmin, entity.RolePlant), ih.Get)
	inv.Get("/:productId/movements", RequireRole(entity.RoleAdmin, entity.RolePlant), ih.ListMovements)
	inv.Post("/:productId/lots", RequireRole(entity.RoleAdmin, entity.RolePlant), ih.RecordProduction)
	inv.Put("/:productId/lots/:date", RequireRole(entity.RoleAdmin, entity.RolePlant), ih.AdjustLot)
}
