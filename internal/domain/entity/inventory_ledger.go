package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/obrador-api/internal/domain"
)

// ProductionDay normaliza una fecha de producción al día calendario (medianoche UTC).
// Se usa el día en la zona horaria del valor recibido.
func ProductionDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Lot lote de producción de un producto, identificado por su día de producción.
type Lot struct {
	ProductionDate time.Time
	Produced       decimal.Decimal
	Reserved       decimal.Decimal
	ExpiryDate     *time.Time
}

// Available cantidad producida no reservada. Nunca negativa.
func (l *Lot) Available() decimal.Decimal {
	a := l.Produced.Sub(l.Reserved)
	if a.IsNegative() {
		return decimal.Zero
	}
	return a
}

// LotQuantity cantidad imputada a un lote dentro de un movimiento.
type LotQuantity struct {
	ProductionDate time.Time
	Quantity       decimal.Decimal
}

// ConsumeResult faltantes detectados al consumir un lote (reservado o producido por debajo de lo pedido).
// Valores distintos de cero indican una anomalía de datos.
type ConsumeResult struct {
	ReservedShortfall decimal.Decimal
	ProducedShortfall decimal.Decimal
}

// HasAnomaly indica si hubo que truncar a cero algún contador.
func (r ConsumeResult) HasAnomaly() bool {
	return r.ReservedShortfall.IsPositive() || r.ProducedShortfall.IsPositive()
}

// InventoryLedger libro de inventario de un producto en el obrador: lotes y diario de movimientos.
// Invariante: para cada lote 0 <= Reserved <= Produced.
// Version es el token de concurrencia optimista; el repositorio lo incrementa en cada Save.
type InventoryLedger struct {
	ProductID   string
	ProductName string
	Unit        string
	Lots        []Lot
	Movements   []Movement
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewInventoryLedger crea un libro vacío (se crea la primera vez que entra stock del producto).
func NewInventoryLedger(productID, productName, unit string, now time.Time) *InventoryLedger {
	return &InventoryLedger{
		ProductID:   productID,
		ProductName: productName,
		Unit:        unit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FindLot busca el lote por día de producción. El puntero queda válido mientras no se agreguen lotes.
func (l *InventoryLedger) FindLot(productionDate time.Time) (*Lot, error) {
	day := ProductionDay(productionDate)
	for i := range l.Lots {
		if ProductionDay(l.Lots[i].ProductionDate).Equal(day) {
			return &l.Lots[i], nil
		}
	}
	return nil, &domain.LotError{ProductID: l.ProductID, ProductionDate: day}
}

// CheckReserve valida que el lote exista y tenga disponible suficiente, sin mutar.
func (l *InventoryLedger) CheckReserve(productionDate time.Time, qty decimal.Decimal) error {
	lot, err := l.FindLot(productionDate)
	if err != nil {
		return err
	}
	if lot.Available().LessThan(qty) {
		return &domain.StockError{
			ProductID:      l.ProductID,
			ProductionDate: ProductionDay(productionDate),
			Requested:      qty,
			Available:      lot.Available(),
		}
	}
	return nil
}

// Reserve incrementa el reservado del lote. Falla antes de mutar si no alcanza el disponible.
func (l *InventoryLedger) Reserve(productionDate time.Time, qty decimal.Decimal) error {
	if err := l.CheckReserve(productionDate, qty); err != nil {
		return err
	}
	lot, _ := l.FindLot(productionDate)
	lot.Reserved = lot.Reserved.Add(qty)
	return nil
}

// Consume descuenta qty del reservado y del producido del lote, truncando a cero.
// Los faltantes se devuelven para que el llamador los registre como anomalía.
func (l *InventoryLedger) Consume(productionDate time.Time, qty decimal.Decimal) (ConsumeResult, error) {
	lot, err := l.FindLot(productionDate)
	if err != nil {
		return ConsumeResult{}, err
	}
	var res ConsumeResult
	if lot.Reserved.LessThan(qty) {
		res.ReservedShortfall = qty.Sub(lot.Reserved)
		lot.Reserved = decimal.Zero
	} else {
		lot.Reserved = lot.Reserved.Sub(qty)
	}
	if lot.Produced.LessThan(qty) {
		res.ProducedShortfall = qty.Sub(lot.Produced)
		lot.Produced = decimal.Zero
	} else {
		lot.Produced = lot.Produced.Sub(qty)
	}
	return res, nil
}

// ReceiveStock suma producción al lote del día o crea uno nuevo.
func (l *InventoryLedger) ReceiveStock(productionDate time.Time, qty decimal.Decimal, expiry *time.Time) *Lot {
	if lot, err := l.FindLot(productionDate); err == nil {
		lot.Produced = lot.Produced.Add(qty)
		if expiry != nil {
			e := ProductionDay(*expiry)
			lot.ExpiryDate = &e
		}
		return lot
	}
	lot := Lot{
		ProductionDate: ProductionDay(productionDate),
		Produced:       qty,
		Reserved:       decimal.Zero,
	}
	if expiry != nil {
		e := ProductionDay(*expiry)
		lot.ExpiryDate = &e
	}
	l.Lots = append(l.Lots, lot)
	return &l.Lots[len(l.Lots)-1]
}

// Adjust fija el producido de un lote (conteo físico). No puede quedar por debajo del reservado.
func (l *InventoryLedger) Adjust(productionDate time.Time, produced decimal.Decimal) error {
	lot, err := l.FindLot(productionDate)
	if err != nil {
		return err
	}
	if produced.LessThan(lot.Reserved) {
		return &domain.StockError{
			ProductID:      l.ProductID,
			ProductionDate: ProductionDay(productionDate),
			Requested:      lot.Reserved,
			Available:      produced,
		}
	}
	lot.Produced = produced
	return nil
}

// QuantityScale decimales con que se guardan las cantidades (NUMERIC(14, 3)).
const QuantityScale = 3

// HasQuantityScale indica si q no tiene más decimales que QuantityScale.
func HasQuantityScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}

// RecordMovement agrega un movimiento al diario. Asigna ID y timestamp si faltan;
// un tipo vacío o desconocido se rechaza sin tocar el diario.
func (l *InventoryLedger) RecordMovement(m Movement) (Movement, error) {
	if !IsValidMovementType(m.Type) {
		return Movement{}, domain.NewValidationError("type", "tipo de movimiento desconocido")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	m.ProductID = l.ProductID
	l.Movements = append(l.Movements, m)
	return m, nil
}

// TotalProduced suma del producido de todos los lotes.
func (l *InventoryLedger) TotalProduced() decimal.Decimal {
	total := decimal.Zero
	for i := range l.Lots {
		total = total.Add(l.Lots[i].Produced)
	}
	return total
}

// TotalReserved suma del reservado de todos los lotes.
func (l *InventoryLedger) TotalReserved() decimal.Decimal {
	total := decimal.Zero
	for i := range l.Lots {
		total = total.Add(l.Lots[i].Reserved)
	}
	return total
}

// TotalAvailable suma del disponible de todos los lotes.
func (l *InventoryLedger) TotalAvailable() decimal.Decimal {
	total := decimal.Zero
	for i := range l.Lots {
		total = total.Add(l.Lots[i].Available())
	}
	return total
}

// Clone copia profunda del libro.
func (l *InventoryLedger) Clone() *InventoryLedger {
	if l == nil {
		return nil
	}
	c := *l
	c.Lots = make([]Lot, len(l.Lots))
	for i, lot := range l.Lots {
		if lot.ExpiryDate != nil {
			e := *lot.ExpiryDate
			lot.ExpiryDate = &e
		}
		c.Lots[i] = lot
	}
	c.Movements = make([]Movement, len(l.Movements))
	for i, m := range l.Movements {
		m.LotBreakdown = append([]LotQuantity(nil), m.LotBreakdown...)
		c.Movements[i] = m
	}
	return &c
}
