package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del diario de inventario.
const (
	MovementTypeEntrada      = "entrada"       // producción recibida
	MovementTypeSalida       = "salida"        // salida genérica
	MovementTypeAjuste       = "ajuste"        // corrección por conteo
	MovementTypeVenta        = "venta"         // venta directa en obrador
	MovementTypeReserva      = "reserva"       // reserva para pedido de tienda
	MovementTypeSalidaTienda = "salida-tienda" // entrega a tienda
)

// IsValidMovementType indica si el tipo pertenece al diario.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeEntrada, MovementTypeSalida, MovementTypeAjuste,
		MovementTypeVenta, MovementTypeReserva, MovementTypeSalidaTienda:
		return true
	}
	return false
}

// Movement registro del diario. StockBefore/StockAfter son una foto informativa:
// disponible total para reserva, producido total para el resto. No se usan para recalcular estado.
type Movement struct {
	ID           string
	ProductID    string
	Type         string
	Quantity     decimal.Decimal
	StockBefore  decimal.Decimal
	StockAfter   decimal.Decimal
	Reason       string
	RequestID    string
	CreatedBy    string
	LotBreakdown []LotQuantity
	Timestamp    time.Time
}
