package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/obrador-api/internal/application/txretry"
	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/obrador-api/internal/application/inventory")

// LedgerUseCase entradas de producción, ajustes de lote y consultas del libro.
// Nunca modifica el reservado: eso es exclusivo de los coordinadores de reserva y entrega.
type LedgerUseCase struct {
	txRunner    TxRunner
	ledgerRepo  repository.InventoryLedgerRepository
	productRepo repository.ProductRepository
	log         *logger.Logger
	retries     int
	now         func() time.Time
}

// NewLedgerUseCase construye el caso de uso. retries = reintentos ante conflicto de concurrencia.
func NewLedgerUseCase(
	txRunner TxRunner,
	ledgerRepo repository.InventoryLedgerRepository,
	productRepo repository.ProductRepository,
	log *logger.Logger,
	retries int,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:    txRunner,
		ledgerRepo:  ledgerRepo,
		productRepo: productRepo,
		log:         log,
		retries:     retries,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ProductionInput entrada de producción a un lote.
type ProductionInput struct {
	ProductID      string
	UserID         string
	ProductionDate time.Time
	Quantity       decimal.Decimal
	ExpiryDate     *time.Time
	Reason         string
}

// AdjustInput ajuste del producido de un lote existente.
type AdjustInput struct {
	ProductID      string
	UserID         string
	ProductionDate time.Time
	Produced       decimal.Decimal
	Reason         string
}

// RecordProduction suma producción al lote del día (o lo crea) y registra una entrada.
// El libro del producto se crea la primera vez.
func (uc *LedgerUseCase) RecordProduction(ctx context.Context, in ProductionInput) (*entity.InventoryLedger, error) {
	ctx, span := tracer.Start(ctx, "inventory.RecordProduction")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", in.ProductID))

	verr := &domain.ValidationError{}
	if in.ProductID == "" {
		verr.Add("product_id", "requerido")
	}
	if in.ProductionDate.IsZero() {
		verr.Add("production_date", "requerido")
	}
	if !in.Quantity.IsPositive() {
		verr.Add("quantity", "debe ser mayor que cero")
	} else if !entity.HasQuantityScale(in.Quantity) {
		verr.Add("quantity", "máximo 3 decimales")
	}
	if in.ExpiryDate != nil && entity.ProductionDay(*in.ExpiryDate).Before(entity.ProductionDay(in.ProductionDate)) {
		verr.Add("expiry_date", "no puede ser anterior a la fecha de producción")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("buscar producto: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	var out *entity.InventoryLedger
	err = txretry.Do(ctx, uc.retries, func() error {
		return uc.txRunner.Run(ctx, func(ledgerRepo repository.InventoryLedgerRepository) error {
			now := uc.now()
			ledger, err := ledgerRepo.GetForUpdate(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if ledger == nil {
				ledger = entity.NewInventoryLedger(product.ID, product.Name, product.UnitMeasure, now)
			}
			before := ledger.TotalProduced()
			lot := ledger.ReceiveStock(in.ProductionDate, in.Quantity, in.ExpiryDate)
			ledger.UpdatedAt = now
			if _, err := ledger.RecordMovement(entity.Movement{
				Type:         entity.MovementTypeEntrada,
				Quantity:     in.Quantity,
				StockBefore:  before,
				StockAfter:   ledger.TotalProduced(),
				Reason:       in.Reason,
				CreatedBy:    in.UserID,
				LotBreakdown: []entity.LotQuantity{{ProductionDate: lot.ProductionDate, Quantity: in.Quantity}},
				Timestamp:    now,
			}); err != nil {
				return err
			}
			if err := ledgerRepo.Save(ctx, ledger); err != nil {
				return err
			}
			out = ledger
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("production_date", entity.ProductionDay(in.ProductionDate).Format(time.DateOnly)).
		Str("quantity", in.Quantity.String()).
		Msg("entrada de producción registrada")
	return out, nil
}

// AdjustLot fija el producido de un lote y registra un ajuste con la diferencia.
func (uc *LedgerUseCase) AdjustLot(ctx context.Context, in AdjustInput) (*entity.InventoryLedger, error) {
	ctx, span := tracer.Start(ctx, "inventory.AdjustLot")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", in.ProductID))

	verr := &domain.ValidationError{}
	if in.ProductID == "" {
		verr.Add("product_id", "requerido")
	}
	if in.ProductionDate.IsZero() {
		verr.Add("production_date", "requerido")
	}
	if in.Produced.IsNegative() {
		verr.Add("produced", "no puede ser negativo")
	} else if !entity.HasQuantityScale(in.Produced) {
		verr.Add("produced", "máximo 3 decimales")
	}
	if in.Reason == "" {
		verr.Add("reason", "requerido")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var out *entity.InventoryLedger
	err := txretry.Do(ctx, uc.retries, func() error {
		return uc.txRunner.Run(ctx, func(ledgerRepo repository.InventoryLedgerRepository) error {
			now := uc.now()
			ledger, err := ledgerRepo.GetForUpdate(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if ledger == nil {
				return &domain.LotError{ProductID: in.ProductID, ProductionDate: entity.ProductionDay(in.ProductionDate)}
			}
			lot, err := ledger.FindLot(in.ProductionDate)
			if err != nil {
				return err
			}
			delta := in.Produced.Sub(lot.Produced)
			before := ledger.TotalProduced()
			if err := ledger.Adjust(in.ProductionDate, in.Produced); err != nil {
				return err
			}
			ledger.UpdatedAt = now
			if _, err := ledger.RecordMovement(entity.Movement{
				Type:         entity.MovementTypeAjuste,
				Quantity:     delta,
				StockBefore:  before,
				StockAfter:   ledger.TotalProduced(),
				Reason:       in.Reason,
				CreatedBy:    in.UserID,
				LotBreakdown: []entity.LotQuantity{{ProductionDate: entity.ProductionDay(in.ProductionDate), Quantity: delta}},
				Timestamp:    now,
			}); err != nil {
				return err
			}
			if err := ledgerRepo.Save(ctx, ledger); err != nil {
				return err
			}
			out = ledger
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("production_date", entity.ProductionDay(in.ProductionDate).Format(time.DateOnly)).
		Str("produced", in.Produced.String()).
		Str("reason", in.Reason).
		Msg("ajuste de lote registrado")
	return out, nil
}

// GetLedger devuelve el libro de un producto.
func (uc *LedgerUseCase) GetLedger(ctx context.Context, productID string) (*entity.InventoryLedger, error) {
	ledger, err := uc.ledgerRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, domain.ErrNotFound
	}
	return ledger, nil
}

// ListLedgers lista libros paginados.
func (uc *LedgerUseCase) ListLedgers(ctx context.Context, limit, offset int) ([]*entity.InventoryLedger, error) {
	return uc.ledgerRepo.List(ctx, limit, offset)
}

// ListMovements lista el diario de un producto, del más reciente al más antiguo.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, productID string, limit, offset int) ([]entity.Movement, error) {
	ledger, err := uc.ledgerRepo.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, domain.ErrNotFound
	}
	return uc.ledgerRepo.ListMovements(ctx, productID, limit, offset)
}
