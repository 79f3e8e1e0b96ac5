package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/obrador-api/internal/domain"
)

// Estados del pedido de reposición.
const (
	RequestStatePending       = "pendiente"
	RequestStateAccepted      = "aceptado"
	RequestStateInProcess     = "en-proceso"
	RequestStateInPreparation = "en-preparacion"
	RequestStatePrepared      = "preparado"
	RequestStateInDelivery    = "en-reparto"
	RequestStateDelivered     = "entregado"
	RequestStateRejected      = "rechazada"
)

// simpleTransitions transiciones que no tocan inventario. preparado y entregado
// solo se alcanzan a través de los coordinadores de reserva y entrega.
var simpleTransitions = map[string][]string{
	RequestStatePending:   {RequestStateAccepted, RequestStateRejected},
	RequestStateAccepted:  {RequestStateInPreparation, RequestStateInProcess, RequestStateRejected},
	RequestStateInProcess: {RequestStateInPreparation},
	RequestStatePrepared:  {RequestStateInDelivery},
}

// IsValidRequestState indica si s es un estado conocido.
func IsValidRequestState(s string) bool {
	switch s {
	case RequestStatePending, RequestStateAccepted, RequestStateInProcess, RequestStateInPreparation,
		RequestStatePrepared, RequestStateInDelivery, RequestStateDelivered, RequestStateRejected:
		return true
	}
	return false
}

// CanTransition indica si from -> to es una transición simple permitida.
func CanTransition(from, to string) bool {
	for _, s := range simpleTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LineItem línea del pedido. ProductName es una copia del catálogo al momento de crear.
type LineItem struct {
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	Unit        string
}

// LotAllocation cantidad tomada de un lote concreto.
type LotAllocation struct {
	ProductionDate time.Time
	Quantity       decimal.Decimal
}

// ManifestEntry asignación por lotes de un producto del pedido.
type ManifestEntry struct {
	ProductID      string
	LotAllocations []LotAllocation
}

// Total suma de las asignaciones de la entrada.
func (e ManifestEntry) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range e.LotAllocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// StockRequest pedido de reposición de una tienda al obrador.
type StockRequest struct {
	ID               string
	StoreID          string
	RequesterID      string
	Items            []LineItem
	State            string
	DeliveryManifest []ManifestEntry
	Notes            string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SentAt           *time.Time
	ReceivedAt       *time.Time
}

// IsTerminal entregado y rechazada no admiten más transiciones.
func (r *StockRequest) IsTerminal() bool {
	return r.State == RequestStateDelivered || r.State == RequestStateRejected
}

// HasItem indica si el producto forma parte del pedido.
func (r *StockRequest) HasItem(productID string) bool {
	for _, it := range r.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// TransitionTo aplica una transición simple. No muta nada si la transición no está permitida.
func (r *StockRequest) TransitionTo(to string, now time.Time) error {
	if !CanTransition(r.State, to) {
		return &domain.StateTransitionError{From: r.State, To: to}
	}
	r.State = to
	r.UpdatedAt = now
	if to == RequestStateInDelivery {
		t := now
		r.SentAt = &t
	}
	return nil
}

// CanBePrepared estados desde los que se puede finalizar la preparación.
func (r *StockRequest) CanBePrepared() bool {
	switch r.State {
	case RequestStateAccepted, RequestStateInProcess, RequestStateInPreparation:
		return len(r.DeliveryManifest) == 0
	}
	return false
}

// CanBeDelivered estados desde los que se puede confirmar la entrega.
func (r *StockRequest) CanBeDelivered() bool {
	switch r.State {
	case RequestStatePrepared, RequestStateInDelivery:
		return len(r.DeliveryManifest) > 0
	}
	return false
}

// MarkPrepared guarda el manifiesto (una sola vez) y pasa a preparado.
func (r *StockRequest) MarkPrepared(manifest []ManifestEntry, now time.Time) error {
	if !r.CanBePrepared() {
		return &domain.StateTransitionError{From: r.State, To: RequestStatePrepared}
	}
	r.DeliveryManifest = manifest
	r.State = RequestStatePrepared
	r.UpdatedAt = now
	return nil
}

// MarkDelivered pasa a entregado y registra la recepción.
func (r *StockRequest) MarkDelivered(now time.Time) error {
	if !r.CanBeDelivered() {
		return &domain.StateTransitionError{From: r.State, To: RequestStateDelivered}
	}
	r.State = RequestStateDelivered
	r.UpdatedAt = now
	t := now
	r.ReceivedAt = &t
	return nil
}

// Clone copia profunda del pedido.
func (r *StockRequest) Clone() *StockRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.Items = append([]LineItem(nil), r.Items...)
	c.DeliveryManifest = make([]ManifestEntry, len(r.DeliveryManifest))
	for i, e := range r.DeliveryManifest {
		e.LotAllocations = append([]LotAllocation(nil), e.LotAllocations...)
		c.DeliveryManifest[i] = e
	}
	if r.DeliveryManifest == nil {
		c.DeliveryManifest = nil
	}
	if r.SentAt != nil {
		t := *r.SentAt
		c.SentAt = &t
	}
	if r.ReceivedAt != nil {
		t := *r.ReceivedAt
		c.ReceivedAt = &t
	}
	return &c
}
