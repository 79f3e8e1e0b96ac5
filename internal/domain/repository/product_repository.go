package repository

import (
	"context"

	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// ProductRepository catálogo de productos (id -> nombre, unidad).
// El flujo solo lee; Upsert lo usan el importador y la carga inicial en memoria.
type ProductRepository interface {
	// GetByID devuelve nil, nil si el producto no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Upsert(ctx context.Context, p *entity.Product) error
}
