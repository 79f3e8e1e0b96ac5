package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/domain"
)

// writeError traduce errores de dominio a status y código HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var (
		verr *domain.ValidationError
		terr *domain.StateTransitionError
		lerr *domain.LotError
		serr *domain.StockError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "datos inválidos", Fields: verr.Fields,
		})
	case errors.As(err, &terr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INVALID_STATE_TRANSITION", Message: "transición de estado no permitida",
			Details: map[string]any{"from": terr.From, "to": terr.To},
		})
	case errors.As(err, &lerr):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code: "LOT_NOT_FOUND", Message: "lote no encontrado",
			Details: map[string]any{
				"product_id":      lerr.ProductID,
				"production_date": lerr.ProductionDate.Format(dto.DateLayout),
			},
		})
	case errors.As(err, &serr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente en el lote",
			Details: map[string]any{
				"product_id":      serr.ProductID,
				"production_date": serr.ProductionDate.Format(dto.DateLayout),
				"requested":       serr.Requested.String(),
				"available":       serr.Available.String(),
			},
		})
	case errors.Is(err, domain.ErrTransactionConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TRANSACTION_CONFLICT", Message: "operación concurrente, reintente"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// pageParams limit/offset de la query. Valores ilegibles o fuera de rango caen en los de dto.PageRequest.
func pageParams(c *fiber.Ctx) (limit, offset int) {
	var p dto.PageRequest
	if err := c.QueryParser(&p); err != nil {
		p = dto.PageRequest{}
	}
	p.DefaultPage()
	return p.Limit, p.Offset
}
