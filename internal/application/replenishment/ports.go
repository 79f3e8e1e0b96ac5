package replenishment

import (
	"context"
	"time"

	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una sola transacción con los repositorios de libros y pedidos atados a ella.
// Si otro escritor modificó lo leído, devuelve domain.ErrTransactionConflict y no aplica nada.
type TxRunner interface {
	RunReplenishment(ctx context.Context, fn func(
		ledgerRepo repository.InventoryLedgerRepository,
		requestRepo repository.StockRequestRepository,
	) error) error
}

// StateChangedEvent se publica después de cada commit que cambia el estado de un pedido.
// From vacío indica creación.
type StateChangedEvent struct {
	RequestID  string    `json:"request_id"`
	StoreID    string    `json:"store_id"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher puerto de publicación de eventos del flujo. Best-effort: un fallo no revierte el cambio.
type EventPublisher interface {
	PublishStateChanged(ctx context.Context, evt StateChangedEvent) error
}

// DeliveryNoteGenerator genera el albarán (PDF) de un pedido con manifiesto.
type DeliveryNoteGenerator interface {
	GenerateDeliveryNote(req *entity.StockRequest) ([]byte, error)
}
