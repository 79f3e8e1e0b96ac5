// Package memory almacén en memoria con concurrencia optimista: cada transacción trabaja sobre
// copias y, al confirmar, compara las versiones de todo lo que leyó o escribió.
// Se usa con STORE_DRIVER=memory y en los tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner     = (*Store)(nil)
	_ replenishment.TxRunner = (*Store)(nil)
)

// Store estado confirmado. Los repositorios sin transacción leen y escriben aquí directamente.
type Store struct {
	mu       sync.Mutex
	ledgers  map[string]*entity.InventoryLedger
	requests map[string]*entity.StockRequest
	products map[string]entity.Product

	// commitHook se invoca antes de validar versiones en cada commit (tests de concurrencia).
	commitHook func()
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		ledgers:  make(map[string]*entity.InventoryLedger),
		requests: make(map[string]*entity.StockRequest),
		products: make(map[string]entity.Product),
	}
}

// AddProduct carga un producto en el catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SetCommitHook registra una función que corre justo antes de confirmar cada transacción.
func (s *Store) SetCommitHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = fn
}

// Ledgers repositorio de libros fuera de transacción.
func (s *Store) Ledgers() repository.InventoryLedgerRepository { return &ledgerRepo{store: s} }

// Requests repositorio de pedidos fuera de transacción.
func (s *Store) Requests() repository.StockRequestRepository { return &requestRepo{store: s} }

// Products catálogo.
func (s *Store) Products() repository.ProductRepository { return &productRepo{store: s} }

// Run ejecuta fn con el repositorio de libros atado a una transacción optimista.
func (s *Store) Run(ctx context.Context, fn func(ledgerRepo repository.InventoryLedgerRepository) error) error {
	t := s.begin()
	if err := fn(&ledgerRepo{store: s, tx: t}); err != nil {
		return err
	}
	return s.commit(ctx, t)
}

// RunReplenishment ejecuta fn con libros y pedidos atados a la misma transacción optimista.
func (s *Store) RunReplenishment(ctx context.Context, fn func(
	ledgerRepo repository.InventoryLedgerRepository,
	requestRepo repository.StockRequestRepository,
) error) error {
	t := s.begin()
	if err := fn(&ledgerRepo{store: s, tx: t}, &requestRepo{store: s, tx: t}); err != nil {
		return err
	}
	return s.commit(ctx, t)
}

// tx conjunto de lecturas (con la versión observada) y escrituras pendientes.
type tx struct {
	ledgerReads   map[string]int64
	requestReads  map[string]int64
	ledgerWrites  map[string]*entity.InventoryLedger
	requestWrites map[string]*entity.StockRequest
}

func (s *Store) begin() *tx {
	return &tx{
		ledgerReads:   make(map[string]int64),
		requestReads:  make(map[string]int64),
		ledgerWrites:  make(map[string]*entity.InventoryLedger),
		requestWrites: make(map[string]*entity.StockRequest),
	}
}

func (s *Store) commit(ctx context.Context, t *tx) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	hook := s.commitHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range t.ledgerReads {
		if currentLedgerVersion(s.ledgers, id) != v {
			return domain.ErrTransactionConflict
		}
	}
	for id, v := range t.requestReads {
		if currentRequestVersion(s.requests, id) != v {
			return domain.ErrTransactionConflict
		}
	}
	for id, l := range t.ledgerWrites {
		if currentLedgerVersion(s.ledgers, id) != l.Version-1 {
			return domain.ErrTransactionConflict
		}
	}
	for id, r := range t.requestWrites {
		if currentRequestVersion(s.requests, id) != r.Version-1 {
			return domain.ErrTransactionConflict
		}
	}
	for id, l := range t.ledgerWrites {
		s.ledgers[id] = l
	}
	for id, r := range t.requestWrites {
		s.requests[id] = r
	}
	return nil
}

func currentLedgerVersion(m map[string]*entity.InventoryLedger, id string) int64 {
	if l, ok := m[id]; ok {
		return l.Version
	}
	return 0
}

func currentRequestVersion(m map[string]*entity.StockRequest, id string) int64 {
	if r, ok := m[id]; ok {
		return r.Version
	}
	return 0
}

func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

func sortRequests(list []*entity.StockRequest, oldestFirst bool) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if oldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
