package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// ProductDemand demanda agregada de un producto del manifiesto, por lote.
type ProductDemand struct {
	ProductID string
	Lots      []entity.LotQuantity
	Total     decimal.Decimal
}

// ValidateManifest valida la forma del manifiesto (sin consultar inventario).
// Los productos deben pertenecer al pedido.
func ValidateManifest(req *entity.StockRequest, manifest []entity.ManifestEntry) error {
	verr := &domain.ValidationError{}
	if len(manifest) == 0 {
		verr.Add("delivery_manifest", "el manifiesto no puede estar vacío")
		return verr
	}
	for i, e := range manifest {
		prefix := fmt.Sprintf("delivery_manifest[%d]", i)
		if e.ProductID == "" {
			verr.Add(prefix+".product_id", "requerido")
		} else if req != nil && !req.HasItem(e.ProductID) {
			verr.Add(prefix+".product_id", "el producto no pertenece al pedido")
		}
		if len(e.LotAllocations) == 0 {
			verr.Add(prefix+".lot_allocations", "se requiere al menos un lote")
		}
		for j, a := range e.LotAllocations {
			ap := fmt.Sprintf("%s.lot_allocations[%d]", prefix, j)
			if a.ProductionDate.IsZero() {
				verr.Add(ap+".production_date", "requerido")
			}
			if !a.Quantity.IsPositive() {
				verr.Add(ap+".quantity", "debe ser mayor que cero")
			} else if !entity.HasQuantityScale(a.Quantity) {
				verr.Add(ap+".quantity", "máximo 3 decimales")
			}
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// AggregateManifest agrupa asignaciones por producto y día de producción.
// El resultado va ordenado por ProductID (orden de bloqueo estable); los lotes conservan su orden de aparición.
func AggregateManifest(manifest []entity.ManifestEntry) []ProductDemand {
	byProduct := make(map[string]*ProductDemand)
	for _, e := range manifest {
		d, ok := byProduct[e.ProductID]
		if !ok {
			d = &ProductDemand{ProductID: e.ProductID, Total: decimal.Zero}
			byProduct[e.ProductID] = d
		}
		for _, a := range e.LotAllocations {
			day := entity.ProductionDay(a.ProductionDate)
			d.Total = d.Total.Add(a.Quantity)
			if idx := lotIndex(d.Lots, day); idx >= 0 {
				d.Lots[idx].Quantity = d.Lots[idx].Quantity.Add(a.Quantity)
				continue
			}
			d.Lots = append(d.Lots, entity.LotQuantity{ProductionDate: day, Quantity: a.Quantity})
		}
	}
	out := make([]ProductDemand, 0, len(byProduct))
	for _, d := range byProduct {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// NormalizeManifest devuelve una copia con las fechas truncadas al día.
func NormalizeManifest(manifest []entity.ManifestEntry) []entity.ManifestEntry {
	out := make([]entity.ManifestEntry, len(manifest))
	for i, e := range manifest {
		allocs := make([]entity.LotAllocation, len(e.LotAllocations))
		for j, a := range e.LotAllocations {
			allocs[j] = entity.LotAllocation{ProductionDate: entity.ProductionDay(a.ProductionDate), Quantity: a.Quantity}
		}
		out[i] = entity.ManifestEntry{ProductID: e.ProductID, LotAllocations: allocs}
	}
	return out
}

func lotIndex(lots []entity.LotQuantity, day time.Time) int {
	for i := range lots {
		if lots[i].ProductionDate.Equal(day) {
			return i
		}
	}
	return -1
}
