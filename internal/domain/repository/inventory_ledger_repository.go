package repository

import (
	"context"

	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// InventoryLedgerRepository puerto de persistencia del libro de inventario por producto.
// Las implementaciones atadas a una transacción se obtienen desde los TxRunner de la capa de aplicación.
type InventoryLedgerRepository interface {
	// Get devuelve nil, nil si el producto aún no tiene libro.
	Get(ctx context.Context, productID string) (*entity.InventoryLedger, error)
	// GetForUpdate igual que Get pero bloquea el libro hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID string) (*entity.InventoryLedger, error)
	// Save inserta (Version == 0) o actualiza comparando Version; si otro escritor ganó
	// devuelve domain.ErrTransactionConflict. Los movimientos nuevos se agregan al diario.
	Save(ctx context.Context, ledger *entity.InventoryLedger) error
	List(ctx context.Context, limit, offset int) ([]*entity.InventoryLedger, error)
	// ListMovements del más reciente al más antiguo.
	ListMovements(ctx context.Context, productID string, limit, offset int) ([]entity.Movement, error)
}
