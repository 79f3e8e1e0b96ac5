package replenishment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/txretry"
	"github.com/jhoicas/obrador-api/internal/application/validation"
	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/obrador-api/internal/application/replenishment")

// RequestWorkflow ciclo de vida del pedido de reposición: alta, consultas, transiciones simples
// y las dos operaciones de inventario (finalizar preparación y entregar).
// Los conflictos de concurrencia de los coordinadores se reintentan aquí, hasta retries veces.
type RequestWorkflow struct {
	txRunner    TxRunner
	requestRepo repository.StockRequestRepository
	productRepo repository.ProductRepository
	reservation *ReservationCoordinator
	fulfillment *FulfillmentCoordinator
	publisher   EventPublisher
	log         *logger.Logger
	retries     int
	now         func() time.Time
}

// NewRequestWorkflow construye el flujo.
func NewRequestWorkflow(
	txRunner TxRunner,
	requestRepo repository.StockRequestRepository,
	productRepo repository.ProductRepository,
	reservation *ReservationCoordinator,
	fulfillment *FulfillmentCoordinator,
	publisher EventPublisher,
	log *logger.Logger,
	retries int,
) *RequestWorkflow {
	return &RequestWorkflow{
		txRunner:    txRunner,
		requestRepo: requestRepo,
		productRepo: productRepo,
		reservation: reservation,
		fulfillment: fulfillment,
		publisher:   publisher,
		log:         log,
		retries:     retries,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj del flujo (tests).
func (w *RequestWorkflow) SetClock(now func() time.Time) { w.now = now }

// Create registra un pedido en estado pendiente para la tienda del actor.
// El nombre de cada producto se copia del catálogo; la unidad por defecto es la del catálogo.
func (w *RequestWorkflow) Create(ctx context.Context, actor entity.Actor, in dto.CreateStockRequestRequest) (*entity.StockRequest, error) {
	ctx, span := tracer.Start(ctx, "replenishment.Create")
	defer span.End()

	if actor.StoreID == "" {
		return nil, domain.ErrForbidden
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	seen := make(map[string]bool, len(in.Items))
	items := make([]entity.LineItem, 0, len(in.Items))
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d].product_id", i)
		if seen[it.ProductID] {
			verr.Add(field, "producto repetido en el pedido")
			continue
		}
		seen[it.ProductID] = true
		product, err := w.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("buscar producto: %w", err)
		}
		if product == nil {
			verr.Add(field, "no existe en el catálogo")
			continue
		}
		unit := it.Unit
		if unit == "" {
			unit = product.UnitMeasure
		}
		items = append(items, entity.LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    it.Quantity,
			Unit:        unit,
		})
	}
	if verr.HasErrors() {
		return nil, verr
	}

	now := w.now()
	req := &entity.StockRequest{
		ID:          uuid.New().String(),
		StoreID:     actor.StoreID,
		RequesterID: actor.UserID,
		Items:       items,
		State:       entity.RequestStatePending,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := w.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("stock_request.id", req.ID))
	w.log.Info().
		Str("request_id", req.ID).
		Str("store_id", req.StoreID).
		Int("items", len(req.Items)).
		Msg("pedido de reposición creado")
	w.publish(ctx, req, "", actor.UserID)
	return req, nil
}

// Get devuelve un pedido. Una tienda solo ve los suyos.
func (w *RequestWorkflow) Get(ctx context.Context, actor entity.Actor, id string) (*entity.StockRequest, error) {
	req, err := w.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if actor.IsStore() && req.StoreID != actor.StoreID {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

// ListMine pedidos de la tienda del actor, del más reciente al más antiguo.
func (w *RequestWorkflow) ListMine(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.StockRequest, error) {
	if actor.StoreID == "" {
		return nil, domain.ErrForbidden
	}
	return w.requestRepo.ListByStore(ctx, actor.StoreID, limit, offset)
}

// ListAll todos los pedidos, opcionalmente filtrados por estado.
func (w *RequestWorkflow) ListAll(ctx context.Context, state string, limit, offset int) ([]*entity.StockRequest, error) {
	if state != "" && !entity.IsValidRequestState(state) {
		return nil, domain.NewValidationError("state", "estado desconocido")
	}
	return w.requestRepo.List(ctx, repository.StockRequestFilter{State: state}, limit, offset)
}

// ListPending cola de pedidos pendientes de todas las tiendas, del más antiguo al más reciente.
func (w *RequestWorkflow) ListPending(ctx context.Context, limit, offset int) ([]*entity.StockRequest, error) {
	return w.requestRepo.List(ctx, repository.StockRequestFilter{
		State:       entity.RequestStatePending,
		OldestFirst: true,
	}, limit, offset)
}

// ChangeState aplica una transición simple (sin efectos en inventario).
// preparado y entregado tienen sus propias operaciones y aquí se rechazan.
// El repartidor solo puede pasar un pedido de preparado a en-reparto.
func (w *RequestWorkflow) ChangeState(ctx context.Context, actor entity.Actor, id string, in dto.ChangeStateRequest) (*entity.StockRequest, error) {
	ctx, span := tracer.Start(ctx, "replenishment.ChangeState")
	defer span.End()
	span.SetAttributes(attribute.String("stock_request.id", id), attribute.String("stock_request.to", in.State))

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !entity.IsValidRequestState(in.State) {
		return nil, domain.NewValidationError("state", "estado desconocido")
	}

	var (
		out  *entity.StockRequest
		prev string
	)
	err := txretry.Do(ctx, w.retries, func() error {
		return w.txRunner.RunReplenishment(ctx, func(
			_ repository.InventoryLedgerRepository,
			requestRepo repository.StockRequestRepository,
		) error {
			req, err := requestRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if req == nil {
				return domain.ErrNotFound
			}
			if actor.IsStore() && req.StoreID != actor.StoreID {
				return domain.ErrForbidden
			}
			// aceptar, rechazar y preparar son decisiones del obrador; reparto solo sale a entregar.
			if actor.Role == entity.RoleDeliverer &&
				(req.State != entity.RequestStatePrepared || in.State != entity.RequestStateInDelivery) {
				return domain.ErrForbidden
			}
			prev = req.State
			if err := req.TransitionTo(in.State, w.now()); err != nil {
				return err
			}
			if err := requestRepo.Update(ctx, req); err != nil {
				return err
			}
			out = req
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	w.log.Info().
		Str("request_id", id).
		Str("from", prev).
		Str("to", out.State).
		Str("actor_id", actor.UserID).
		Msg("estado de pedido actualizado")
	w.publish(ctx, out, prev, actor.UserID)
	return out, nil
}

// FinalizePreparation reserva los lotes del manifiesto y deja el pedido preparado.
func (w *RequestWorkflow) FinalizePreparation(ctx context.Context, actor entity.Actor, id string, in dto.FinalizePreparationRequest) (*entity.StockRequest, error) {
	ctx, span := tracer.Start(ctx, "replenishment.FinalizePreparation")
	defer span.End()
	span.SetAttributes(attribute.String("stock_request.id", id))

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	manifest, err := manifestFromRequest(in)
	if err != nil {
		return nil, err
	}

	var (
		out  *entity.StockRequest
		prev string
	)
	err = txretry.Do(ctx, w.retries, func() error {
		var err error
		out, prev, err = w.reservation.Reserve(ctx, id, manifest, actor.UserID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	w.publish(ctx, out, prev, actor.UserID)
	return out, nil
}

// Deliver confirma la recepción: consume los lotes reservados y marca el pedido entregado.
// Una tienda solo puede confirmar sus propios pedidos.
func (w *RequestWorkflow) Deliver(ctx context.Context, actor entity.Actor, id string) (*entity.StockRequest, error) {
	ctx, span := tracer.Start(ctx, "replenishment.Deliver")
	defer span.End()
	span.SetAttributes(attribute.String("stock_request.id", id))

	if actor.IsStore() {
		if _, err := w.Get(ctx, actor, id); err != nil {
			return nil, err
		}
	}

	var (
		out  *entity.StockRequest
		prev string
	)
	err := txretry.Do(ctx, w.retries, func() error {
		var err error
		out, prev, err = w.fulfillment.Deliver(ctx, id, actor.UserID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	w.publish(ctx, out, prev, actor.UserID)
	return out, nil
}

// publish best-effort: el cambio ya está confirmado, un fallo solo se registra.
func (w *RequestWorkflow) publish(ctx context.Context, req *entity.StockRequest, from, actorID string) {
	if w.publisher == nil {
		return
	}
	evt := StateChangedEvent{
		RequestID:  req.ID,
		StoreID:    req.StoreID,
		From:       from,
		To:         req.State,
		ActorID:    actorID,
		OccurredAt: req.UpdatedAt,
	}
	if err := w.publisher.PublishStateChanged(ctx, evt); err != nil {
		w.log.Warn().Err(err).
			Str("request_id", req.ID).
			Str("to", req.State).
			Msg("no se pudo publicar el cambio de estado")
	}
}

func manifestFromRequest(in dto.FinalizePreparationRequest) ([]entity.ManifestEntry, error) {
	verr := &domain.ValidationError{}
	out := make([]entity.ManifestEntry, 0, len(in.DeliveryManifest))
	for i, e := range in.DeliveryManifest {
		entry := entity.ManifestEntry{ProductID: e.ProductID}
		for j, a := range e.LotAllocations {
			day, err := dto.ParseDate(a.ProductionDate)
			if err != nil {
				verr.Add(fmt.Sprintf("delivery_manifest[%d].lot_allocations[%d].production_date", i, j), "datetime")
				continue
			}
			entry.LotAllocations = append(entry.LotAllocations, entity.LotAllocation{ProductionDate: day, Quantity: a.Quantity})
		}
		out = append(out, entry)
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return out, nil
}
