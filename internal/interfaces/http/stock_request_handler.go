package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// StockRequestHandler maneja los pedidos de reposición tienda → obrador (protegido).
type StockRequestHandler struct {
	workflow     *replenishment.RequestWorkflow
	deliveryNote *replenishment.DeliveryNoteUseCase
}

// NewStockRequestHandler construye el handler.
func NewStockRequestHandler(workflow *replenishment.RequestWorkflow, deliveryNote *replenishment.DeliveryNoteUseCase) *StockRequestHandler {
	return &StockRequestHandler{workflow: workflow, deliveryNote: deliveryNote}
}

// Create godoc
// @Summary      Crear pedido de reposición
// @Description  La tienda del token pide productos al obrador. El pedido nace en estado pendiente.
// @Tags         stock-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequestRequest  true  "Líneas del pedido"
// @Success      201   {object}  dto.StockRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/stock-requests [post]
func (h *StockRequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.workflow.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromStockRequest(out))
}

// GetByID godoc
// @Summary      Obtener pedido por ID
// @Tags         stock-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.StockRequestResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id} [get]
func (h *StockRequestHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.workflow.Get(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStockRequest(out))
}

// ListMine godoc
// @Summary      Pedidos de mi tienda
// @Tags         stock-requests
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.StockRequestListResponse
// @Router       /api/stock-requests/mine [get]
func (h *StockRequestHandler) ListMine(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.workflow.ListMine(c.UserContext(), GetActor(c), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(listResponse(list, limit, offset))
}

// ListAll godoc
// @Summary      Todos los pedidos
// @Tags         stock-requests
// @Security     Bearer
// @Produce      json
// @Param        state   query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockRequestListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-requests/all [get]
func (h *StockRequestHandler) ListAll(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.workflow.ListAll(c.UserContext(), c.Query("state"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(listResponse(list, limit, offset))
}

// ListPending godoc
// @Summary      Cola de pedidos pendientes
// @Description  Pedidos pendientes de todas las tiendas, del más antiguo al más reciente.
// @Tags         stock-requests
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockRequestListResponse
// @Router       /api/stock-requests/pending [get]
func (h *StockRequestHandler) ListPending(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, err := h.workflow.ListPending(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(listResponse(list, limit, offset))
}

// ChangeState godoc
// @Summary      Cambiar estado del pedido
// @Description  Transiciones sin efecto en inventario (aceptado, en-proceso, en-preparacion, en-reparto, rechazada).
// @Tags         stock-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del pedido"
// @Param        body  body  dto.ChangeStateRequest  true  "Estado destino"
// @Success      200   {object}  dto.StockRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id}/state [put]
func (h *StockRequestHandler) ChangeState(c *fiber.Ctx) error {
	var in dto.ChangeStateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.workflow.ChangeState(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStockRequest(out))
}

// FinalizePreparation godoc
// @Summary      Finalizar preparación
// @Description  Reserva los lotes del manifiesto y deja el pedido en preparado. Todo o nada.
// @Tags         stock-requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID del pedido"
// @Param        body  body  dto.FinalizePreparationRequest  true  "Manifiesto de entrega por lotes"
// @Success      200   {object}  dto.StockRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id}/finalize-preparation [put]
func (h *StockRequestHandler) FinalizePreparation(c *fiber.Ctx) error {
	var in dto.FinalizePreparationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.workflow.FinalizePreparation(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStockRequest(out))
}

// Deliver godoc
// @Summary      Confirmar entrega
// @Description  Consume los lotes reservados y marca el pedido como entregado.
// @Tags         stock-requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.StockRequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id}/deliver [put]
func (h *StockRequestHandler) Deliver(c *fiber.Ctx) error {
	out, err := h.workflow.Deliver(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStockRequest(out))
}

// DeliveryNote godoc
// @Summary      Albarán de entrega (PDF)
// @Tags         stock-requests
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-requests/{id}/delivery-note [get]
func (h *StockRequestHandler) DeliveryNote(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.deliveryNote.Generate(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="albaran-`+id+`.pdf"`)
	return c.Send(pdf)
}

func listResponse(list []*entity.StockRequest, limit, offset int) dto.StockRequestListResponse {
	return dto.StockRequestListResponse{
		Items: dto.FromStockRequests(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
}
