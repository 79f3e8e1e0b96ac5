package dto

import (
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// FromStockRequest convierte la entidad en respuesta HTTP.
func FromStockRequest(r *entity.StockRequest) StockRequestResponse {
	out := StockRequestResponse{
		ID:          r.ID,
		StoreID:     r.StoreID,
		RequesterID: r.RequesterID,
		Items:       make([]LineItemResponse, 0, len(r.Items)),
		State:       r.State,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		SentAt:      r.SentAt,
		ReceivedAt:  r.ReceivedAt,
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, LineItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
		})
	}
	for _, e := range r.DeliveryManifest {
		me := ManifestEntryResponse{ProductID: e.ProductID}
		for _, a := range e.LotAllocations {
			me.LotAllocations = append(me.LotAllocations, LotAllocationResponse{
				ProductionDate: a.ProductionDate.Format(DateLayout),
				Quantity:       a.Quantity,
			})
		}
		out.DeliveryManifest = append(out.DeliveryManifest, me)
	}
	return out
}

// FromStockRequests convierte un listado.
func FromStockRequests(list []*entity.StockRequest) []StockRequestResponse {
	out := make([]StockRequestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, FromStockRequest(r))
	}
	return out
}

// FromLedger convierte el libro de inventario.
func FromLedger(l *entity.InventoryLedger) LedgerResponse {
	out := LedgerResponse{
		ProductID:      l.ProductID,
		ProductName:    l.ProductName,
		Unit:           l.Unit,
		Lots:           make([]LotResponse, 0, len(l.Lots)),
		TotalProduced:  l.TotalProduced(),
		TotalReserved:  l.TotalReserved(),
		TotalAvailable: l.TotalAvailable(),
		UpdatedAt:      l.UpdatedAt,
	}
	for i := range l.Lots {
		lot := &l.Lots[i]
		lr := LotResponse{
			ProductionDate: lot.ProductionDate.Format(DateLayout),
			Produced:       lot.Produced,
			Reserved:       lot.Reserved,
			Available:      lot.Available(),
		}
		if lot.ExpiryDate != nil {
			s := lot.ExpiryDate.Format(DateLayout)
			lr.ExpiryDate = &s
		}
		out.Lots = append(out.Lots, lr)
	}
	return out
}

// FromMovements convierte movimientos del diario.
func FromMovements(list []entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		mr := MovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			RequestID:   m.RequestID,
			CreatedBy:   m.CreatedBy,
			Timestamp:   m.Timestamp,
		}
		for _, lq := range m.LotBreakdown {
			mr.LotBreakdown = append(mr.LotBreakdown, LotQuantityResponse{
				ProductionDate: lq.ProductionDate.Format(DateLayout),
				Quantity:       lq.Quantity,
			})
		}
		out = append(out, mr)
	}
	return out
}
