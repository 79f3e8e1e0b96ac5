package replenishment

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/inventory"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

// FulfillmentCoordinator consume lo reservado en el manifiesto y marca el pedido entregado.
// Si falta un libro o un lote, la entrega completa se aborta (el pedido queda como estaba).
type FulfillmentCoordinator struct {
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewFulfillmentCoordinator construye el coordinador.
func NewFulfillmentCoordinator(txRunner TxRunner, log *logger.Logger) *FulfillmentCoordinator {
	return &FulfillmentCoordinator{
		txRunner: txRunner,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Deliver confirma la entrega del pedido requestID. Devuelve el pedido actualizado y el estado previo.
func (c *FulfillmentCoordinator) Deliver(ctx context.Context, requestID, actorID string) (*entity.StockRequest, string, error) {
	ctx, span := tracer.Start(ctx, "replenishment.Deliver")
	defer span.End()
	span.SetAttributes(attribute.String("stock_request.id", requestID))

	var (
		out  *entity.StockRequest
		prev string
	)
	err := c.txRunner.RunReplenishment(ctx, func(
		ledgerRepo repository.InventoryLedgerRepository,
		requestRepo repository.StockRequestRepository,
	) error {
		now := c.now()
		req, err := requestRepo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if !req.CanBeDelivered() {
			return &domain.StateTransitionError{From: req.State, To: entity.RequestStateDelivered}
		}

		demands := inventory.AggregateManifest(req.DeliveryManifest)
		ledgers, err := loadLedgers(ctx, ledgerRepo, demands)
		if err != nil {
			return err
		}
		for _, d := range demands {
			for _, lq := range d.Lots {
				if _, err := ledgers[d.ProductID].FindLot(lq.ProductionDate); err != nil {
					return err
				}
			}
		}

		for _, d := range demands {
			ledger := ledgers[d.ProductID]
			before := ledger.TotalProduced()
			for _, lq := range d.Lots {
				res, err := ledger.Consume(lq.ProductionDate, lq.Quantity)
				if err != nil {
					return err
				}
				if res.HasAnomaly() {
					c.log.Warn().
						Str("request_id", req.ID).
						Str("product_id", d.ProductID).
						Str("production_date", lq.ProductionDate.Format(time.DateOnly)).
						Str("quantity", lq.Quantity.String()).
						Str("reserved_shortfall", res.ReservedShortfall.String()).
						Str("produced_shortfall", res.ProducedShortfall.String()).
						Msg("anomalía de inventario al entregar: contador truncado a cero")
				}
			}
			ledger.UpdatedAt = now
			if _, err := ledger.RecordMovement(entity.Movement{
				Type:         entity.MovementTypeSalidaTienda,
				Quantity:     d.Total,
				StockBefore:  before,
				StockAfter:   ledger.TotalProduced(),
				Reason:       fmt.Sprintf("entrega pedido %s a tienda %s", req.ID, req.StoreID),
				RequestID:    req.ID,
				CreatedBy:    actorID,
				LotBreakdown: d.Lots,
				Timestamp:    now,
			}); err != nil {
				return err
			}
			if err := ledgerRepo.Save(ctx, ledger); err != nil {
				return err
			}
		}

		prev = req.State
		if err := req.MarkDelivered(now); err != nil {
			return err
		}
		if err := requestRepo.Update(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, "", err
	}
	c.log.Info().
		Str("request_id", requestID).
		Str("store_id", out.StoreID).
		Str("actor_id", actorID).
		Msg("pedido entregado")
	return out, prev, nil
}
