package repository

import (
	"context"

	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// StockRequestFilter filtros del listado general de pedidos.
type StockRequestFilter struct {
	State       string // vacío = todos
	OldestFirst bool   // cola FIFO (pendientes)
}

// StockRequestRepository puerto de persistencia de pedidos de reposición.
type StockRequestRepository interface {
	Create(ctx context.Context, req *entity.StockRequest) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockRequest, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockRequest, error)
	// Update compara Version; devuelve domain.ErrTransactionConflict si cambió.
	Update(ctx context.Context, req *entity.StockRequest) error
	ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.StockRequest, error)
	List(ctx context.Context, filter StockRequestFilter, limit, offset int) ([]*entity.StockRequest, error)
}
