// Package events publica los cambios de estado de los pedidos hacia el log, Redis y Kafka.
package events

import (
	"context"
	"errors"

	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

var (
	_ replenishment.EventPublisher = (*LogPublisher)(nil)
	_ replenishment.EventPublisher = (MultiPublisher)(nil)
)

// LogPublisher escribe cada evento en el log estructurado.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// PublishStateChanged registra el evento.
func (p *LogPublisher) PublishStateChanged(_ context.Context, evt replenishment.StateChangedEvent) error {
	p.log.Info().
		Str("event", EventTypeStateChanged).
		Str("request_id", evt.RequestID).
		Str("store_id", evt.StoreID).
		Str("from", evt.From).
		Str("to", evt.To).
		Str("actor_id", evt.ActorID).
		Time("occurred_at", evt.OccurredAt).
		Msg("cambio de estado de pedido")
	return nil
}

// MultiPublisher reparte el evento a todos los publicadores; junta los errores.
type MultiPublisher []replenishment.EventPublisher

// PublishStateChanged publica en cada destino aunque alguno falle.
func (m MultiPublisher) PublishStateChanged(ctx context.Context, evt replenishment.StateChangedEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishStateChanged(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EventTypeStateChanged nombre del evento en headers y logs.
const EventTypeStateChanged = "stock_request.state_changed"
