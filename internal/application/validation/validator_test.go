package validation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/validation"
	"github.com/jhoicas/obrador-api/internal/domain"
)

func TestStruct_Valido(t *testing.T) {
	err := validation.Struct(dto.CreateStockRequestRequest{
		Items: []dto.LineItemRequest{{ProductID: "pan", Quantity: decimal.NewFromFloat(0.5)}},
	})
	assert.NoError(t, err)
}

func TestStruct_CamposConNombreJSON(t *testing.T) {
	err := validation.Struct(dto.CreateStockRequestRequest{
		Items: []dto.LineItemRequest{
			{ProductID: "pan", Quantity: decimal.NewFromInt(1)},
			{Quantity: decimal.Zero},
		},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["items[1].product_id"])
	assert.Equal(t, "gt", verr.Fields["items[1].quantity"])
	assert.Len(t, verr.Fields, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStruct_FechaDeLote(t *testing.T) {
	err := validation.Struct(dto.FinalizePreparationRequest{DeliveryManifest: []dto.ManifestEntryRequest{{
		ProductID:      "pan",
		LotAllocations: []dto.LotAllocationRequest{{ProductionDate: "2024-13-01", Quantity: decimal.NewFromInt(1)}},
	}}})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "datetime", verr.Fields["delivery_manifest[0].lot_allocations[0].production_date"])
}

func TestStruct_AjusteAceptaCero(t *testing.T) {
	assert.NoError(t, validation.Struct(dto.AdjustLotRequest{Produced: decimal.Zero, Reason: "conteo"}))

	err := validation.Struct(dto.AdjustLotRequest{Produced: decimal.NewFromInt(-1)})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "gte", verr.Fields["produced"])
	assert.Equal(t, "required", verr.Fields["reason"])
}

func TestStruct_EscalaDecimal(t *testing.T) {
	manifest := func(q string) dto.FinalizePreparationRequest {
		return dto.FinalizePreparationRequest{DeliveryManifest: []dto.ManifestEntryRequest{{
			ProductID:      "pan",
			LotAllocations: []dto.LotAllocationRequest{{ProductionDate: "2024-01-10", Quantity: decimal.RequireFromString(q)}},
		}}}
	}
	const field = "delivery_manifest[0].lot_allocations[0].quantity"

	assert.NoError(t, validation.Struct(manifest("0.001")))
	assert.NoError(t, validation.Struct(manifest("1.5000")), "los ceros a la derecha no cuentan")

	var verr *domain.ValidationError
	require.ErrorAs(t, validation.Struct(manifest("0.0004")), &verr)
	assert.Equal(t, "decimal_scale", verr.Fields[field])

	require.ErrorAs(t, validation.Struct(manifest("123456789012345")), &verr)
	assert.Equal(t, "lt", verr.Fields[field])
}

func TestStruct_EscalaEnAltaYAjuste(t *testing.T) {
	var verr *domain.ValidationError
	err := validation.Struct(dto.CreateStockRequestRequest{
		Items: []dto.LineItemRequest{{ProductID: "pan", Quantity: decimal.RequireFromString("2.0001")}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "decimal_scale", verr.Fields["items[0].quantity"])

	err = validation.Struct(dto.RecordProductionRequest{ProductionDate: "2024-01-10", Quantity: decimal.RequireFromString("3.14159")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "decimal_scale", verr.Fields["quantity"])

	err = validation.Struct(dto.AdjustLotRequest{Produced: decimal.RequireFromString("0.12345"), Reason: "conteo"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "decimal_scale", verr.Fields["produced"])

	assert.NoError(t, validation.Struct(dto.AdjustLotRequest{Produced: decimal.RequireFromString("99999999999.999"), Reason: "conteo"}))
}
