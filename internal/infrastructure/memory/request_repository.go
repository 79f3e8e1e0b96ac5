package memory

import (
	"context"

	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

var _ repository.StockRequestRepository = (*requestRepo)(nil)

type requestRepo struct {
	store *Store
	tx    *tx
}

func (r *requestRepo) Create(_ context.Context, req *entity.StockRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.requests[req.ID]; ok {
		return domain.ErrTransactionConflict
	}
	c := req.Clone()
	c.Version = 1
	req.Version = 1
	if r.tx != nil {
		r.tx.requestWrites[req.ID] = c
		return nil
	}
	r.store.requests[req.ID] = c
	return nil
}

func (r *requestRepo) GetByID(_ context.Context, id string) (*entity.StockRequest, error) {
	if r.tx != nil {
		if w, ok := r.tx.requestWrites[id]; ok {
			return w.Clone(), nil
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[id]
	if r.tx != nil {
		if _, seen := r.tx.requestReads[id]; !seen {
			r.tx.requestReads[id] = currentRequestVersion(r.store.requests, id)
		}
	}
	if !ok {
		return nil, nil
	}
	return req.Clone(), nil
}

func (r *requestRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepo) Update(_ context.Context, req *entity.StockRequest) error {
	if r.tx != nil {
		c := req.Clone()
		if w, ok := r.tx.requestWrites[req.ID]; ok {
			c.Version = w.Version
		} else {
			c.Version = req.Version + 1
		}
		req.Version = c.Version
		r.tx.requestWrites[req.ID] = c
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if currentRequestVersion(r.store.requests, req.ID) != req.Version {
		return domain.ErrTransactionConflict
	}
	c := req.Clone()
	c.Version = req.Version + 1
	req.Version = c.Version
	r.store.requests[req.ID] = c
	return nil
}

func (r *requestRepo) ListByStore(_ context.Context, storeID string, limit, offset int) ([]*entity.StockRequest, error) {
	r.store.mu.Lock()
	list := make([]*entity.StockRequest, 0)
	for _, req := range r.store.requests {
		if req.StoreID == storeID {
			list = append(list, req.Clone())
		}
	}
	r.store.mu.Unlock()
	sortRequests(list, false)
	return page(list, limit, offset), nil
}

func (r *requestRepo) List(_ context.Context, filter repository.StockRequestFilter, limit, offset int) ([]*entity.StockRequest, error) {
	r.store.mu.Lock()
	list := make([]*entity.StockRequest, 0)
	for _, req := range r.store.requests {
		if filter.State == "" || req.State == filter.State {
			list = append(list, req.Clone())
		}
	}
	r.store.mu.Unlock()
	sortRequests(list, filter.OldestFirst)
	return page(list, limit, offset), nil
}
