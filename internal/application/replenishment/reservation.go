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

// ReservationCoordinator reserva lotes concretos para un pedido y lo deja preparado.
// Todo ocurre en una transacción: primero se valida cada asignación y solo después se muta.
// No reintenta; el conflicto de concurrencia sube al llamador.
type ReservationCoordinator struct {
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewReservationCoordinator construye el coordinador.
func NewReservationCoordinator(txRunner TxRunner, log *logger.Logger) *ReservationCoordinator {
	return &ReservationCoordinator{
		txRunner: txRunner,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Reserve aplica el manifiesto al pedido requestID. Devuelve el pedido actualizado y el estado previo.
func (c *ReservationCoordinator) Reserve(ctx context.Context, requestID string, manifest []entity.ManifestEntry, actorID string) (*entity.StockRequest, string, error) {
	ctx, span := tracer.Start(ctx, "replenishment.Reserve")
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
		if !req.CanBePrepared() {
			return &domain.StateTransitionError{From: req.State, To: entity.RequestStatePrepared}
		}
		if err := inventory.ValidateManifest(req, manifest); err != nil {
			return err
		}

		demands := inventory.AggregateManifest(manifest)
		ledgers, err := loadLedgers(ctx, ledgerRepo, demands)
		if err != nil {
			return err
		}

		// Validación completa antes de tocar cualquier lote.
		for _, d := range demands {
			ledger := ledgers[d.ProductID]
			for _, lq := range d.Lots {
				if err := ledger.CheckReserve(lq.ProductionDate, lq.Quantity); err != nil {
					return err
				}
			}
		}

		for _, d := range demands {
			ledger := ledgers[d.ProductID]
			before := ledger.TotalAvailable()
			for _, lq := range d.Lots {
				if err := ledger.Reserve(lq.ProductionDate, lq.Quantity); err != nil {
					return err
				}
			}
			ledger.UpdatedAt = now
			if _, err := ledger.RecordMovement(entity.Movement{
				Type:         entity.MovementTypeReserva,
				Quantity:     d.Total,
				StockBefore:  before,
				StockAfter:   ledger.TotalAvailable(),
				Reason:       fmt.Sprintf("reserva pedido %s", req.ID),
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
		if err := req.MarkPrepared(inventory.NormalizeManifest(manifest), now); err != nil {
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
		Str("actor_id", actorID).
		Int("products", len(out.DeliveryManifest)).
		Msg("lotes reservados, pedido preparado")
	return out, prev, nil
}

// loadLedgers bloquea los libros en el orden de demands (ordenado por producto).
// Un producto sin libro no tiene lotes: LotError con la primera fecha pedida.
func loadLedgers(ctx context.Context, ledgerRepo repository.InventoryLedgerRepository, demands []inventory.ProductDemand) (map[string]*entity.InventoryLedger, error) {
	ledgers := make(map[string]*entity.InventoryLedger, len(demands))
	for _, d := range demands {
		ledger, err := ledgerRepo.GetForUpdate(ctx, d.ProductID)
		if err != nil {
			return nil, err
		}
		if ledger == nil {
			var day time.Time
			if len(d.Lots) > 0 {
				day = d.Lots[0].ProductionDate
			}
			return nil, &domain.LotError{ProductID: d.ProductID, ProductionDate: day}
		}
		ledgers[d.ProductID] = ledger
	}
	return ledgers, nil
}
