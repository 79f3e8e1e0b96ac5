package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordProductionRequest body para POST /api/inventory/:productId/lots.
type RecordProductionRequest struct {
	ProductionDate string          `json:"production_date" validate:"required,datetime=2006-01-02"`
	Quantity       decimal.Decimal `json:"quantity" validate:"gt=0,lt=100000000000,decimal_scale=3"`
	ExpiryDate     string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Reason         string          `json:"reason,omitempty" validate:"max=200"`
}

// AdjustLotRequest body para PUT /api/inventory/:productId/lots/:date.
type AdjustLotRequest struct {
	Produced decimal.Decimal `json:"produced" validate:"gte=0,lt=100000000000,decimal_scale=3"`
	Reason   string          `json:"reason" validate:"required,max=200"`
}

// LotResponse lote de producción con su disponible.
type LotResponse struct {
	ProductionDate string          `json:"production_date"`
	Produced       decimal.Decimal `json:"produced"`
	Reserved       decimal.Decimal `json:"reserved"`
	Available      decimal.Decimal `json:"available"`
	ExpiryDate     *string         `json:"expiry_date,omitempty"`
}

// LedgerResponse libro de inventario de un producto.
type LedgerResponse struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Unit           string          `json:"unit"`
	Lots           []LotResponse   `json:"lots"`
	TotalProduced  decimal.Decimal `json:"total_produced"`
	TotalReserved  decimal.Decimal `json:"total_reserved"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LotQuantityResponse cantidad imputada a un lote en un movimiento.
type LotQuantityResponse struct {
	ProductionDate string          `json:"production_date"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// MovementResponse registro del diario de inventario.
type MovementResponse struct {
	ID           string                `json:"id"`
	ProductID    string                `json:"product_id"`
	Type         string                `json:"type"`
	Quantity     decimal.Decimal       `json:"quantity"`
	StockBefore  decimal.Decimal       `json:"stock_before"`
	StockAfter   decimal.Decimal       `json:"stock_after"`
	Reason       string                `json:"reason,omitempty"`
	RequestID    string                `json:"request_id,omitempty"`
	CreatedBy    string                `json:"created_by,omitempty"`
	LotBreakdown []LotQuantityResponse `json:"lot_breakdown,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}
