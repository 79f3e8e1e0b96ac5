package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/infrastructure/memory"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

func newUseCase(t *testing.T) (*inventory.LedgerUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "pan", SKU: "PAN-001", Name: "Pan de masa madre", UnitMeasure: "unidad"})
	return inventory.NewLedgerUseCase(store, store.Ledgers(), store.Products(), logger.Nop(), 3), store
}

func day(s string) time.Time {
	d, _ := dto.ParseDate(s)
	return d
}

func TestRecordProduction_CreaLibroYLote(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	ledger, err := uc.RecordProduction(ctx, inventory.ProductionInput{
		ProductID:      "pan",
		UserID:         "u-obrador",
		ProductionDate: day("2024-01-10"),
		Quantity:       decimal.NewFromInt(100),
		Reason:         "hornada de la mañana",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pan de masa madre", ledger.ProductName)
	require.Len(t, ledger.Lots, 1)
	assert.True(t, ledger.Lots[0].Produced.Equal(decimal.NewFromInt(100)))
	assert.True(t, ledger.Lots[0].Reserved.IsZero())

	_, err = uc.RecordProduction(ctx, inventory.ProductionInput{
		ProductID:      "pan",
		ProductionDate: day("2024-01-10"),
		Quantity:       decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	got, err := uc.GetLedger(ctx, "pan")
	require.NoError(t, err)
	require.Len(t, got.Lots, 1)
	assert.True(t, got.Lots[0].Produced.Equal(decimal.NewFromInt(120)))

	movs, err := uc.ListMovements(ctx, "pan", 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeEntrada, m.Type)
	}
}

func TestRecordProduction_Validaciones(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.RecordProduction(ctx, inventory.ProductionInput{ProductID: "pan", ProductionDate: day("2024-01-10")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "quantity")

	expiry := day("2024-01-09")
	_, err = uc.RecordProduction(ctx, inventory.ProductionInput{
		ProductID: "pan", ProductionDate: day("2024-01-10"), Quantity: decimal.NewFromInt(1), ExpiryDate: &expiry,
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "expiry_date")

	_, err = uc.RecordProduction(ctx, inventory.ProductionInput{
		ProductID: "pan", ProductionDate: day("2024-01-10"), Quantity: decimal.RequireFromString("0.0004"),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "máximo 3 decimales", verr.Fields["quantity"])

	_, err = uc.AdjustLot(ctx, inventory.AdjustInput{
		ProductID: "pan", ProductionDate: day("2024-01-10"), Produced: decimal.RequireFromString("1.2345"), Reason: "conteo",
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "máximo 3 decimales", verr.Fields["produced"])

	_, err = uc.RecordProduction(ctx, inventory.ProductionInput{
		ProductID: "baguette", ProductionDate: day("2024-01-10"), Quantity: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordProductionFromRequest(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	ledger, err := uc.RecordProductionFromRequest(ctx, "u-obrador", "pan", dto.RecordProductionRequest{
		ProductionDate: "2024-01-10",
		Quantity:       decimal.RequireFromString("12.5"),
		ExpiryDate:     "2024-01-12",
	})
	require.NoError(t, err)
	require.NotNil(t, ledger.Lots[0].ExpiryDate)
	assert.Equal(t, "2024-01-12", ledger.Lots[0].ExpiryDate.Format(time.DateOnly))

	_, err = uc.RecordProductionFromRequest(ctx, "u-obrador", "pan", dto.RecordProductionRequest{
		ProductionDate: "10-01-2024",
		Quantity:       decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustLot(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	_, err := uc.RecordProduction(ctx, inventory.ProductionInput{
		ProductID: "pan", ProductionDate: day("2024-01-10"), Quantity: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// Reserva hecha por un pedido.
	ledger, err := store.Ledgers().Get(ctx, "pan")
	require.NoError(t, err)
	require.NoError(t, ledger.Reserve(day("2024-01-10"), decimal.NewFromInt(30)))
	require.NoError(t, store.Ledgers().Save(ctx, ledger))

	out, err := uc.AdjustLotFromRequest(ctx, "u-obrador", "pan", "2024-01-10", dto.AdjustLotRequest{
		Produced: decimal.NewFromInt(95),
		Reason:   "merma",
	})
	require.NoError(t, err)
	assert.True(t, out.Lots[0].Produced.Equal(decimal.NewFromInt(95)))
	assert.True(t, out.Lots[0].Reserved.Equal(decimal.NewFromInt(30)), "el ajuste no toca el reservado")

	movs, err := uc.ListMovements(ctx, "pan", 1, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeAjuste, movs[0].Type)
	assert.Equal(t, "-5", movs[0].Quantity.String())

	_, err = uc.AdjustLot(ctx, inventory.AdjustInput{
		ProductID: "pan", ProductionDate: day("2024-01-10"), Produced: decimal.NewFromInt(29), Reason: "conteo",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = uc.AdjustLot(ctx, inventory.AdjustInput{
		ProductID: "pan", ProductionDate: day("2024-01-11"), Produced: decimal.NewFromInt(1), Reason: "conteo",
	})
	assert.ErrorIs(t, err, domain.ErrLotNotFound)

	_, err = uc.AdjustLot(ctx, inventory.AdjustInput{
		ProductID: "croissant", ProductionDate: day("2024-01-10"), Produced: decimal.NewFromInt(1), Reason: "conteo",
	})
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestConsultas_SinLibro(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.GetLedger(ctx, "pan")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.ListMovements(ctx, "pan", 10, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.ListLedgers(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
