package memory

import (
	"context"

	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct {
	store *Store
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) Upsert(_ context.Context, p *entity.Product) error {
	r.store.AddProduct(*p)
	return nil
}
