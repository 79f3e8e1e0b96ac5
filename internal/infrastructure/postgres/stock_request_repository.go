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

var _ repository.StockRequestRepository = (*StockRequestRepo)(nil)

// StockRequestRepo pedidos de reposición sobre PostgreSQL (usable con pool o tx).
// Líneas y manifiesto se guardan como JSONB.
type StockRequestRepo struct {
	q Querier
}

// NewStockRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRequestRepository(q Querier) *StockRequestRepo {
	return &StockRequestRepo{q: q}
}

type lineItemJSON struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

type manifestEntryJSON struct {
	ProductID      string            `json:"product_id"`
	LotAllocations []lotQuantityJSON `json:"lot_allocations"`
}

const stockRequestColumns = `id, store_id, requester_id, items, state, delivery_manifest, notes, version, created_at, updated_at, sent_at, received_at`

// Create persiste un pedido nuevo con version 1.
func (r *StockRequestRepo) Create(ctx context.Context, req *entity.StockRequest) error {
	items, manifest, err := encodeRequest(req)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO stock_requests (` + stockRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9, $10, $11)`
	_, err = r.q.Exec(ctx, query,
		req.ID, req.StoreID, req.RequesterID, items, req.State, manifest, req.Notes,
		req.CreatedAt, req.UpdatedAt, req.SentAt, req.ReceivedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTransactionConflict
		}
		return fmt.Errorf("insert stock request: %w", err)
	}
	req.Version = 1
	return nil
}

// GetByID obtiene un pedido. nil, nil si no existe.
func (r *StockRequestRepo) GetByID(ctx context.Context, id string) (*entity.StockRequest, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene el pedido y bloquea su fila hasta el fin de la tx.
func (r *StockRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRequest, error) {
	return r.get(ctx, id, true)
}

func (r *StockRequestRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.StockRequest, error) {
	query := `SELECT ` + stockRequestColumns + ` FROM stock_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	req, err := scanStockRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock request: %w", err)
	}
	return req, nil
}

// Update guarda el pedido si su version no cambió desde que se leyó.
func (r *StockRequestRepo) Update(ctx context.Context, req *entity.StockRequest) error {
	items, manifest, err := encodeRequest(req)
	if err != nil {
		return err
	}
	query := `
		UPDATE stock_requests
		SET items = $2, state = $3, delivery_manifest = $4, notes = $5, version = version + 1,
		    updated_at = $6, sent_at = $7, received_at = $8
		WHERE id = $1 AND version = $9`
	tag, err := r.q.Exec(ctx, query,
		req.ID, items, req.State, manifest, req.Notes, req.UpdatedAt, req.SentAt, req.ReceivedAt, req.Version,
	)
	if err != nil {
		return fmt.Errorf("update stock request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionConflict
	}
	req.Version++
	return nil
}

// ListByStore pedidos de una tienda, del más reciente al más antiguo.
func (r *StockRequestRepo) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.StockRequest, error) {
	query := `SELECT ` + stockRequestColumns + ` FROM stock_requests WHERE store_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, storeID, limit, offset)
}

// List todos los pedidos, con filtro opcional por estado.
func (r *StockRequestRepo) List(ctx context.Context, filter repository.StockRequestFilter, limit, offset int) ([]*entity.StockRequest, error) {
	order := "created_at DESC, id"
	if filter.OldestFirst {
		order = "created_at ASC, id"
	}
	if filter.State != "" {
		query := `SELECT ` + stockRequestColumns + ` FROM stock_requests WHERE state = $1
			ORDER BY ` + order + ` LIMIT $2 OFFSET $3`
		return r.list(ctx, query, filter.State, limit, offset)
	}
	query := `SELECT ` + stockRequestColumns + ` FROM stock_requests
		ORDER BY ` + order + ` LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *StockRequestRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockRequest, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock requests: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockRequest, 0)
	for rows.Next() {
		req, err := scanStockRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock request: %w", err)
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

func scanStockRequest(row pgx.Row) (*entity.StockRequest, error) {
	var req entity.StockRequest
	var itemsRaw, manRaw []byte
	if err := row.Scan(&req.ID, &req.StoreID, &req.RequesterID, &itemsRaw, &req.State, &manRaw,
		&req.Notes, &req.Version, &req.CreatedAt, &req.UpdatedAt, &req.SentAt, &req.ReceivedAt); err != nil {
		return nil, err
	}
	var items []lineItemJSON
	if err := json.Unmarshal(itemsRaw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	for _, it := range items {
		req.Items = append(req.Items, entity.LineItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
		})
	}
	if len(manRaw) > 0 {
		var entries []manifestEntryJSON
		if err := json.Unmarshal(manRaw, &entries); err != nil {
			return nil, fmt.Errorf("unmarshal manifest: %w", err)
		}
		for _, e := range entries {
			me := entity.ManifestEntry{ProductID: e.ProductID}
			for _, a := range e.LotAllocations {
				day, err := time.ParseInLocation(time.DateOnly, a.ProductionDate, time.UTC)
				if err != nil {
					return nil, fmt.Errorf("parse manifest date: %w", err)
				}
				me.LotAllocations = append(me.LotAllocations, entity.LotAllocation{ProductionDate: day, Quantity: a.Quantity})
			}
			req.DeliveryManifest = append(req.DeliveryManifest, me)
		}
	}
	return &req, nil
}

// encodeRequest serializa líneas y manifiesto. Sin manifiesto se guarda NULL.
func encodeRequest(req *entity.StockRequest) (items, manifest []byte, err error) {
	li := make([]lineItemJSON, 0, len(req.Items))
	for _, it := range req.Items {
		li = append(li, lineItemJSON{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
		})
	}
	items, err = json.Marshal(li)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	if len(req.DeliveryManifest) == 0 {
		return items, nil, nil
	}
	entries := make([]manifestEntryJSON, 0, len(req.DeliveryManifest))
	for _, e := range req.DeliveryManifest {
		me := manifestEntryJSON{ProductID: e.ProductID}
		for _, a := range e.LotAllocations {
			me.LotAllocations = append(me.LotAllocations, lotQuantityJSON{
				ProductionDate: a.ProductionDate.Format(time.DateOnly),
				Quantity:       a.Quantity,
			})
		}
		entries = append(entries, me)
	}
	manifest, err = json.Marshal(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return items, manifest, nil
}
