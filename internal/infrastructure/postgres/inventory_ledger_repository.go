package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

var _ repository.InventoryLedgerRepository = (*InventoryLedgerRepo)(nil)

// InventoryLedgerRepo libro de inventario sobre PostgreSQL (usable con pool o tx).
// Tablas: inventory_ledgers (cabecera + version), inventory_lots, inventory_movements.
type InventoryLedgerRepo struct {
	q Querier
}

// NewInventoryLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryLedgerRepository(q Querier) *InventoryLedgerRepo {
	return &InventoryLedgerRepo{q: q}
}

type lotQuantityJSON struct {
	ProductionDate string          `json:"production_date"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// Get obtiene el libro con sus lotes (sin el diario). nil, nil si no existe.
func (r *InventoryLedgerRepo) Get(ctx context.Context, productID string) (*entity.InventoryLedger, error) {
	return r.get(ctx, productID, false)
}

// GetForUpdate obtiene el libro y bloquea su fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *InventoryLedgerRepo) GetForUpdate(ctx context.Context, productID string) (*entity.InventoryLedger, error) {
	return r.get(ctx, productID, true)
}

func (r *InventoryLedgerRepo) get(ctx context.Context, productID string, forUpdate bool) (*entity.InventoryLedger, error) {
	query := `
		SELECT product_id, product_name, unit, version, created_at, updated_at
		FROM inventory_ledgers WHERE product_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var l entity.InventoryLedger
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&l.ProductID, &l.ProductName, &l.Unit, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	lots, err := r.lots(ctx, []string{productID})
	if err != nil {
		return nil, err
	}
	l.Lots = lots[productID]
	return &l, nil
}

func (r *InventoryLedgerRepo) lots(ctx context.Context, productIDs []string) (map[string][]entity.Lot, error) {
	query := `
		SELECT product_id, production_date, produced, reserved, expiry_date
		FROM inventory_lots WHERE product_id = ANY($1)
		ORDER BY product_id, production_date`
	rows, err := r.q.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.Lot, len(productIDs))
	for rows.Next() {
		var (
			productID string
			lot       entity.Lot
		)
		if err := rows.Scan(&productID, &lot.ProductionDate, &lot.Produced, &lot.Reserved, &lot.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lot.ProductionDate = entity.ProductionDay(lot.ProductionDate)
		out[productID] = append(out[productID], lot)
	}
	return out, rows.Err()
}

// Save inserta o actualiza la cabecera comparando version, hace upsert de los lotes
// y agrega los movimientos que aún no existan (idempotente por id).
func (r *InventoryLedgerRepo) Save(ctx context.Context, l *entity.InventoryLedger) error {
	if l.Version == 0 {
		query := `
			INSERT INTO inventory_ledgers (product_id, product_name, unit, version, created_at, updated_at)
			VALUES ($1, $2, $3, 1, $4, $5)`
		if _, err := r.q.Exec(ctx, query, l.ProductID, l.ProductName, l.Unit, l.CreatedAt, l.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrTransactionConflict
			}
			return fmt.Errorf("insert ledger: %w", err)
		}
		l.Version = 1
	} else {
		query := `
			UPDATE inventory_ledgers
			SET product_name = $2, unit = $3, version = version + 1, updated_at = $4
			WHERE product_id = $1 AND version = $5`
		tag, err := r.q.Exec(ctx, query, l.ProductID, l.ProductName, l.Unit, l.UpdatedAt, l.Version)
		if err != nil {
			return fmt.Errorf("update ledger: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTransactionConflict
		}
		l.Version++
	}

	for _, lot := range l.Lots {
		query := `
			INSERT INTO inventory_lots (product_id, production_date, produced, reserved, expiry_date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (product_id, production_date)
			DO UPDATE SET produced = EXCLUDED.produced, reserved = EXCLUDED.reserved, expiry_date = EXCLUDED.expiry_date`
		if _, err := r.q.Exec(ctx, query, l.ProductID, lot.ProductionDate, lot.Produced, lot.Reserved, lot.ExpiryDate); err != nil {
			return fmt.Errorf("upsert lot: %w", err)
		}
	}

	for _, m := range l.Movements {
		breakdown := make([]lotQuantityJSON, 0, len(m.LotBreakdown))
		for _, lq := range m.LotBreakdown {
			breakdown = append(breakdown, lotQuantityJSON{
				ProductionDate: lq.ProductionDate.Format(time.DateOnly),
				Quantity:       lq.Quantity,
			})
		}
		raw, err := json.Marshal(breakdown)
		if err != nil {
			return fmt.Errorf("marshal lot breakdown: %w", err)
		}
		query := `
			INSERT INTO inventory_movements (id, product_id, type, quantity, stock_before, stock_after, reason, request_id, created_by, lot_breakdown, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING`
		if _, err := r.q.Exec(ctx, query,
			m.ID, l.ProductID, m.Type, m.Quantity, m.StockBefore, m.StockAfter,
			m.Reason, nullString(m.RequestID), nullString(m.CreatedBy), raw, m.Timestamp,
		); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
	}
	return nil
}

// List lista libros por product_id con sus lotes.
func (r *InventoryLedgerRepo) List(ctx context.Context, limit, offset int) ([]*entity.InventoryLedger, error) {
	query := `
		SELECT product_id, product_name, unit, version, created_at, updated_at
		FROM inventory_ledgers ORDER BY product_id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	var (
		list []*entity.InventoryLedger
		ids  []string
	)
	for rows.Next() {
		var l entity.InventoryLedger
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Unit, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		list = append(list, &l)
		ids = append(ids, l.ProductID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entity.InventoryLedger{}, nil
	}
	lots, err := r.lots(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range list {
		l.Lots = lots[l.ProductID]
	}
	return list, nil
}

// ListMovements lista el diario de un producto, del más reciente al más antiguo.
func (r *InventoryLedgerRepo) ListMovements(ctx context.Context, productID string, limit, offset int) ([]entity.Movement, error) {
	query := `
		SELECT id, product_id, type, quantity, stock_before, stock_after, reason, request_id, created_by, lot_breakdown, created_at
		FROM inventory_movements WHERE product_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]entity.Movement, 0)
	for rows.Next() {
		var (
			m                    entity.Movement
			requestID, createdBy *string
			raw                  []byte
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.StockBefore, &m.StockAfter,
			&m.Reason, &requestID, &createdBy, &raw, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if requestID != nil {
			m.RequestID = *requestID
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		var breakdown []lotQuantityJSON
		if err := json.Unmarshal(raw, &breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal lot breakdown: %w", err)
		}
		for _, b := range breakdown {
			day, err := time.ParseInLocation(time.DateOnly, b.ProductionDate, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("parse lot date: %w", err)
			}
			m.LotBreakdown = append(m.LotBreakdown, entity.LotQuantity{ProductionDate: day, Quantity: b.Quantity})
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
