package replenishment_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/infrastructure/memory"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

var (
	storeActor     = entity.Actor{UserID: "u-tienda", StoreID: "tienda-1", Role: entity.RoleStore}
	otherStore     = entity.Actor{UserID: "u-otra", StoreID: "tienda-2", Role: entity.RoleStore}
	plantActor     = entity.Actor{UserID: "u-obrador", Role: entity.RolePlant}
	delivererActor = entity.Actor{UserID: "u-reparto", Role: entity.RoleDeliverer}
)

const lotDay = "2024-01-10"

// syncBuffer buffer seguro para escrituras concurrentes del logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []replenishment.StateChangedEvent
	err    error
}

func (p *recordingPublisher) PublishStateChanged(_ context.Context, evt replenishment.StateChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) transitions(requestID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.RequestID == requestID {
			out = append(out, e.From+">"+e.To)
		}
	}
	return out
}

type fakeNoteGenerator struct {
	last string
}

func (g *fakeNoteGenerator) GenerateDeliveryNote(req *entity.StockRequest) ([]byte, error) {
	g.last = req.ID
	return []byte("%PDF"), nil
}

type fixture struct {
	store     *memory.Store
	workflow  *replenishment.RequestWorkflow
	ledger    *inventory.LedgerUseCase
	publisher *recordingPublisher
	logs      *syncBuffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "pan", SKU: "PAN-001", Name: "Pan de masa madre", UnitMeasure: "unidad"})
	store.AddProduct(entity.Product{ID: "croissant", SKU: "BOL-002", Name: "Croissant", UnitMeasure: "unidad"})
	store.AddProduct(entity.Product{ID: "harina", SKU: "MP-010", Name: "Harina", UnitMeasure: "kg"})

	logs := &syncBuffer{}
	log := logger.New(logger.Config{Env: "test", Level: "debug", Out: logs})
	pub := &recordingPublisher{}

	wf := replenishment.NewRequestWorkflow(
		store,
		store.Requests(),
		store.Products(),
		replenishment.NewReservationCoordinator(store, log),
		replenishment.NewFulfillmentCoordinator(store, log),
		pub,
		log,
		3,
	)
	return &fixture{
		store:     store,
		workflow:  wf,
		ledger:    inventory.NewLedgerUseCase(store, store.Ledgers(), store.Products(), log, 3),
		publisher: pub,
		logs:      logs,
	}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dto.ParseDate(s)
	require.NoError(t, err)
	return d
}

// produce registra producción en el lote del día.
func (f *fixture) produce(t *testing.T, productID, day, quantity string) {
	t.Helper()
	_, err := f.ledger.RecordProduction(context.Background(), inventory.ProductionInput{
		ProductID:      productID,
		UserID:         plantActor.UserID,
		ProductionDate: date(t, day),
		Quantity:       qty(quantity),
	})
	require.NoError(t, err)
}

// acceptedRequest crea un pedido de la tienda por defecto y lo acepta.
func (f *fixture) acceptedRequest(t *testing.T, items map[string]string) *entity.StockRequest {
	t.Helper()
	ctx := context.Background()
	in := dto.CreateStockRequestRequest{}
	for id, q := range items {
		in.Items = append(in.Items, dto.LineItemRequest{ProductID: id, Quantity: qty(q)})
	}
	req, err := f.workflow.Create(ctx, storeActor, in)
	require.NoError(t, err)
	req, err = f.workflow.ChangeState(ctx, plantActor, req.ID, dto.ChangeStateRequest{State: entity.RequestStateAccepted})
	require.NoError(t, err)
	return req
}

func manifest(productID, day, quantity string) dto.FinalizePreparationRequest {
	return dto.FinalizePreparationRequest{DeliveryManifest: []dto.ManifestEntryRequest{{
		ProductID:      productID,
		LotAllocations: []dto.LotAllocationRequest{{ProductionDate: day, Quantity: qty(quantity)}},
	}}}
}

func (f *fixture) lot(t *testing.T, productID, day string) entity.Lot {
	t.Helper()
	ledger, err := f.store.Ledgers().Get(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, ledger)
	lot, err := ledger.FindLot(date(t, day))
	require.NoError(t, err)
	return *lot
}

func (f *fixture) movements(t *testing.T, productID, movementType string) []entity.Movement {
	t.Helper()
	all, err := f.ledger.ListMovements(context.Background(), productID, 1000, 0)
	require.NoError(t, err)
	var out []entity.Movement
	for _, m := range all {
		if m.Type == movementType {
			out = append(out, m)
		}
	}
	return out
}
