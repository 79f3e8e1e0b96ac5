package replenishment

import (
	"context"
	"fmt"

	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// DeliveryNoteUseCase genera el albarán de un pedido preparado, en reparto o entregado.
type DeliveryNoteUseCase struct {
	workflow  *RequestWorkflow
	generator DeliveryNoteGenerator
}

// NewDeliveryNoteUseCase construye el caso de uso.
func NewDeliveryNoteUseCase(workflow *RequestWorkflow, generator DeliveryNoteGenerator) *DeliveryNoteUseCase {
	return &DeliveryNoteUseCase{workflow: workflow, generator: generator}
}

// Generate devuelve el PDF. Sin manifiesto todavía no hay albarán: ErrNotFound.
func (uc *DeliveryNoteUseCase) Generate(ctx context.Context, actor entity.Actor, id string) ([]byte, error) {
	req, err := uc.workflow.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch req.State {
	case entity.RequestStatePrepared, entity.RequestStateInDelivery, entity.RequestStateDelivered:
	default:
		return nil, domain.ErrNotFound
	}
	pdf, err := uc.generator.GenerateDeliveryNote(req)
	if err != nil {
		return nil, fmt.Errorf("generar albarán: %w", err)
	}
	return pdf, nil
}
