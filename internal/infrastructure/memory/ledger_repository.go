package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

var _ repository.InventoryLedgerRepository = (*ledgerRepo)(nil)

// ledgerRepo con tx == nil opera directo sobre el estado confirmado.
type ledgerRepo struct {
	store *Store
	tx    *tx
}

func (r *ledgerRepo) Get(_ context.Context, productID string) (*entity.InventoryLedger, error) {
	if r.tx != nil {
		if w, ok := r.tx.ledgerWrites[productID]; ok {
			return w.Clone(), nil
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.ledgers[productID]
	if r.tx != nil {
		if _, seen := r.tx.ledgerReads[productID]; !seen {
			r.tx.ledgerReads[productID] = currentLedgerVersion(r.store.ledgers, productID)
		}
	}
	if !ok {
		return nil, nil
	}
	return l.Clone(), nil
}

// GetForUpdate no bloquea: el conflicto se detecta al confirmar.
func (r *ledgerRepo) GetForUpdate(ctx context.Context, productID string) (*entity.InventoryLedger, error) {
	return r.Get(ctx, productID)
}

func (r *ledgerRepo) Save(_ context.Context, ledger *entity.InventoryLedger) error {
	if r.tx != nil {
		c := ledger.Clone()
		if w, ok := r.tx.ledgerWrites[ledger.ProductID]; ok {
			c.Version = w.Version
		} else {
			c.Version = ledger.Version + 1
		}
		ledger.Version = c.Version
		r.tx.ledgerWrites[ledger.ProductID] = c
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if currentLedgerVersion(r.store.ledgers, ledger.ProductID) != ledger.Version {
		return domain.ErrTransactionConflict
	}
	c := ledger.Clone()
	c.Version = ledger.Version + 1
	ledger.Version = c.Version
	r.store.ledgers[ledger.ProductID] = c
	return nil
}

func (r *ledgerRepo) List(_ context.Context, limit, offset int) ([]*entity.InventoryLedger, error) {
	r.store.mu.Lock()
	list := make([]*entity.InventoryLedger, 0, len(r.store.ledgers))
	for _, l := range r.store.ledgers {
		list = append(list, l.Clone())
	}
	r.store.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return page(list, limit, offset), nil
}

func (r *ledgerRepo) ListMovements(_ context.Context, productID string, limit, offset int) ([]entity.Movement, error) {
	r.store.mu.Lock()
	l, ok := r.store.ledgers[productID]
	var movs []entity.Movement
	if ok {
		movs = l.Clone().Movements
	}
	r.store.mu.Unlock()
	if !ok {
		return []entity.Movement{}, nil
	}
	sort.SliceStable(movs, func(i, j int) bool { return movs[i].Timestamp.After(movs[j].Timestamp) })
	return page(movs, limit, offset), nil
}
