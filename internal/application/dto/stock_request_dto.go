package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout formato de fechas de producción en la API (YYYY-MM-DD).
const DateLayout = time.DateOnly

// LineItemRequest línea de un pedido nuevo.
type LineItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0,lt=100000000000,decimal_scale=3"`
	Unit      string          `json:"unit,omitempty" validate:"max=20"`
}

// CreateStockRequestRequest body para POST /api/stock-requests.
type CreateStockRequestRequest struct {
	Items []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes string            `json:"notes,omitempty" validate:"max=500"`
}

// ChangeStateRequest body para PUT /api/stock-requests/:id/state.
type ChangeStateRequest struct {
	State string `json:"state" validate:"required"`
}

// LotAllocationRequest cantidad tomada de un lote.
type LotAllocationRequest struct {
	ProductionDate string          `json:"production_date" validate:"required,datetime=2006-01-02"`
	Quantity       decimal.Decimal `json:"quantity" validate:"gt=0,lt=100000000000,decimal_scale=3"`
}

// ManifestEntryRequest asignación por lotes de un producto.
type ManifestEntryRequest struct {
	ProductID      string                 `json:"product_id" validate:"required"`
	LotAllocations []LotAllocationRequest `json:"lot_allocations" validate:"required,min=1,dive"`
}

// FinalizePreparationRequest body para PUT /api/stock-requests/:id/finalize-preparation.
type FinalizePreparationRequest struct {
	DeliveryManifest []ManifestEntryRequest `json:"delivery_manifest" validate:"required,min=1,dive"`
}

// LineItemResponse línea de pedido.
type LineItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

// LotAllocationResponse asignación a lote.
type LotAllocationResponse struct {
	ProductionDate string          `json:"production_date"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// ManifestEntryResponse entrada del manifiesto de entrega.
type ManifestEntryResponse struct {
	ProductID      string                  `json:"product_id"`
	LotAllocations []LotAllocationResponse `json:"lot_allocations"`
}

// StockRequestResponse pedido de reposición.
type StockRequestResponse struct {
	ID               string                  `json:"id"`
	StoreID          string                  `json:"store_id"`
	RequesterID      string                  `json:"requester_id"`
	Items            []LineItemResponse      `json:"items"`
	State            string                  `json:"state"`
	DeliveryManifest []ManifestEntryResponse `json:"delivery_manifest,omitempty"`
	Notes            string                  `json:"notes,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	SentAt           *time.Time              `json:"sent_at,omitempty"`
	ReceivedAt       *time.Time              `json:"received_at,omitempty"`
}

// StockRequestListResponse listado paginado.
type StockRequestListResponse struct {
	Items []StockRequestResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
