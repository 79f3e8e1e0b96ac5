package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/inventory"
)

// InventoryHandler libro de inventario por lotes del obrador (protegido).
type InventoryHandler struct {
	uc *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// List godoc
// @Summary      Listar libros de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.LedgerResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.uc.ListLedgers(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LedgerResponse, 0, len(list))
	for _, l := range list {
		out = append(out, dto.FromLedger(l))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Libro de inventario de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	l, err := h.uc.GetLedger(c.UserContext(), c.Params("productId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromLedger(l))
}

// ListMovements godoc
// @Summary      Diario de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/{productId}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.uc.ListMovements(c.UserContext(), c.Params("productId"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromMovements(list))
}

// RecordProduction godoc
// @Summary      Registrar producción
// @Description  Alta de unidades en el lote del día indicado (entrada). Crea el libro si no existe.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                       true  "ID del producto"
// @Param        body       body  dto.RecordProductionRequest  true  "Fecha de producción y cantidad"
// @Success      201  {object}  dto.LedgerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/lots [post]
func (h *InventoryHandler) RecordProduction(c *fiber.Ctx) error {
	var in dto.RecordProductionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	l, err := h.uc.RecordProductionFromRequest(c.UserContext(), GetUserID(c), c.Params("productId"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromLedger(l))
}

// AdjustLot godoc
// @Summary      Ajustar lote
// @Description  Corrige lo producido de un lote (mermas, recuentos). No puede quedar por debajo de lo reservado.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                true  "ID del producto"
// @Param        date       path  string                true  "Fecha de producción (YYYY-MM-DD)"
// @Param        body       body  dto.AdjustLotRequest  true  "Nuevo producido y motivo"
// @Success      200  {object}  dto.LedgerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/lots/{date} [put]
func (h *InventoryHandler) AdjustLot(c *fiber.Ctx) error {
	var in dto.AdjustLotRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	l, err := h.uc.AdjustLotFromRequest(c.UserContext(), GetUserID(c), c.Params("productId"), c.Params("date"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromLedger(l))
}
