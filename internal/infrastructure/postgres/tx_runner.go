package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner and replenishment.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ replenishment.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED + SELECT FOR UPDATE).
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con el repo de libros atado a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ledgerRepo repository.InventoryLedgerRepository) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewInventoryLedgerRepository(tx))
	})
}

// RunReplenishment inicia una transacción con libros y pedidos (reserva, entrega y transiciones).
func (r *TxRunner) RunReplenishment(ctx context.Context, fn func(
	ledgerRepo repository.InventoryLedgerRepository,
	requestRepo repository.StockRequestRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewInventoryLedgerRepository(tx), NewStockRequestRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
