package inventory

import (
	"context"

	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando el repositorio de libros atado a esa tx.
// Garantiza atomicidad para entradas y ajustes de lote.
type TxRunner interface {
	Run(ctx context.Context, fn func(ledgerRepo repository.InventoryLedgerRepository) error) error
}
