package replenishment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/infrastructure/memory"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

var errorsByName = map[string]error{
	"stock insuficiente":      domain.ErrInsufficientStock,
	"lote no encontrado":      domain.ErrLotNotFound,
	"transición no permitida": domain.ErrInvalidStateTransition,
	"validación":              domain.ErrInvalidInput,
}

type replenishmentTestContext struct {
	store    *memory.Store
	workflow *replenishment.RequestWorkflow
	ledger   *inventory.LedgerUseCase
	requests map[string]string // alias del escenario -> id
	err      error
	errs     []error
}

func (c *replenishmentTestContext) reset() {
	log := logger.Nop()
	c.store = memory.NewStore()
	c.store.AddProduct(entity.Product{ID: "pan", SKU: "PAN-001", Name: "Pan de masa madre", UnitMeasure: "unidad"})
	c.workflow = replenishment.NewRequestWorkflow(
		c.store, c.store.Requests(), c.store.Products(),
		replenishment.NewReservationCoordinator(c.store, log),
		replenishment.NewFulfillmentCoordinator(c.store, log),
		nil, log, 3,
	)
	c.ledger = inventory.NewLedgerUseCase(c.store, c.store.Ledgers(), c.store.Products(), log, 3)
	c.requests = make(map[string]string)
	c.err = nil
	c.errs = nil
}

func (c *replenishmentTestContext) unLoteDeConProducidas(productID, day string, produced int) error {
	_, err := c.ledger.RecordProductionFromRequest(context.Background(), plantActor.UserID, productID, dto.RecordProductionRequest{
		ProductionDate: day,
		Quantity:       decimal.NewFromInt(int64(produced)),
	})
	return err
}

func (c *replenishmentTestContext) unPedidoAceptado(alias string, quantity int, productID string) error {
	ctx := context.Background()
	req, err := c.workflow.Create(ctx, storeActor, dto.CreateStockRequestRequest{
		Items: []dto.LineItemRequest{{ProductID: productID, Quantity: decimal.NewFromInt(int64(quantity))}},
	})
	if err != nil {
		return err
	}
	if _, err := c.workflow.ChangeState(ctx, plantActor, req.ID, dto.ChangeStateRequest{State: entity.RequestStateAccepted}); err != nil {
		return err
	}
	c.requests[alias] = req.ID
	return nil
}

func (c *replenishmentTestContext) elObradorPrepara(alias string, quantity int, day string) error {
	req, ok := c.requests[alias]
	if !ok {
		return fmt.Errorf("pedido %q no definido", alias)
	}
	_, c.err = c.workflow.FinalizePreparation(context.Background(), plantActor, req, c.manifest(quantity, day))
	return nil
}

func (c *replenishmentTestContext) manifest(quantity int, day string) dto.FinalizePreparationRequest {
	return dto.FinalizePreparationRequest{DeliveryManifest: []dto.ManifestEntryRequest{{
		ProductID:      "pan",
		LotAllocations: []dto.LotAllocationRequest{{ProductionDate: day, Quantity: decimal.NewFromInt(int64(quantity))}},
	}}}
}

func (c *replenishmentTestContext) elObradorPreparaALaVez(a, b string, quantity int, day string) error {
	var calls int32
	var barrier sync.WaitGroup
	barrier.Add(2)
	c.store.SetCommitHook(func() {
		if atomic.AddInt32(&calls, 1) <= 2 {
			barrier.Done()
			barrier.Wait()
		}
	})
	defer c.store.SetCommitHook(nil)

	c.errs = make([]error, 2)
	var wg sync.WaitGroup
	for i, alias := range []string{a, b} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, c.errs[i] = c.workflow.FinalizePreparation(context.Background(), plantActor, id, c.manifest(quantity, day))
		}(i, c.requests[alias])
	}
	wg.Wait()
	return nil
}

func (c *replenishmentTestContext) laTiendaConfirmaLaEntrega(alias string) error {
	_, c.err = c.workflow.Deliver(context.Background(), storeActor, c.requests[alias])
	return nil
}

func (c *replenishmentTestContext) elObradorCambiaA(alias, state string) error {
	_, c.err = c.workflow.ChangeState(context.Background(), plantActor, c.requests[alias], dto.ChangeStateRequest{State: state})
	return nil
}

func (c *replenishmentTestContext) laOperacionTieneExito() error {
	if c.err != nil {
		return fmt.Errorf("se esperaba éxito, error: %w", c.err)
	}
	return nil
}

func (c *replenishmentTestContext) laOperacionFallaCon(name string) error {
	want, ok := errorsByName[name]
	if !ok {
		return fmt.Errorf("error desconocido %q", name)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("se esperaba %q, se obtuvo %v", name, c.err)
	}
	return nil
}

func (c *replenishmentTestContext) exactamenteUnaTieneExito(name string) error {
	want := errorsByName[name]
	var ok, failed int
	for _, err := range c.errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, want):
			failed++
		default:
			return fmt.Errorf("error inesperado: %w", err)
		}
	}
	if ok != 1 || failed != 1 {
		return fmt.Errorf("éxitos=%d fallos=%d", ok, failed)
	}
	return nil
}

func (c *replenishmentTestContext) elPedidoEsta(alias, state string) error {
	req, err := c.workflow.Get(context.Background(), plantActor, c.requests[alias])
	if err != nil {
		return err
	}
	if req.State != state {
		return fmt.Errorf("estado %q, se esperaba %q", req.State, state)
	}
	return nil
}

func (c *replenishmentTestContext) elLoteTiene(day, productID string, produced, reserved int) error {
	ledger, err := c.ledger.GetLedger(context.Background(), productID)
	if err != nil {
		return err
	}
	d, err := dto.ParseDate(day)
	if err != nil {
		return err
	}
	lot, err := ledger.FindLot(d)
	if err != nil {
		return err
	}
	if !lot.Produced.Equal(decimal.NewFromInt(int64(produced))) || !lot.Reserved.Equal(decimal.NewFromInt(int64(reserved))) {
		return fmt.Errorf("lote producido=%s reservado=%s", lot.Produced, lot.Reserved)
	}
	return nil
}

func (c *replenishmentTestContext) elDiarioTieneMovimientos(productID string, count int, movementType string, total int) error {
	movs, err := c.ledger.ListMovements(context.Background(), productID, 1000, 0)
	if err != nil {
		return err
	}
	var n int
	sum := decimal.Zero
	for _, m := range movs {
		if m.Type == movementType {
			n++
			sum = sum.Add(m.Quantity)
		}
	}
	if n != count || !sum.Equal(decimal.NewFromInt(int64(total))) {
		return fmt.Errorf("%d movimientos %q por %s", n, movementType, sum)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &replenishmentTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given
	ctx.Step(`^un lote de "([^"]*)" del "([^"]*)" con (\d+) producidas$`, tc.unLoteDeConProducidas)
	ctx.Step(`^un pedido aceptado "([^"]*)" de (\d+) "([^"]*)"$`, tc.unPedidoAceptado)

	// When
	ctx.Step(`^el obrador prepara "([^"]*)" con (\d+) del lote "([^"]*)"$`, tc.elObradorPrepara)
	ctx.Step(`^el obrador prepara a la vez "([^"]*)" y "([^"]*)" con (\d+) del lote "([^"]*)"$`, tc.elObradorPreparaALaVez)
	ctx.Step(`^la tienda confirma la entrega de "([^"]*)"$`, tc.laTiendaConfirmaLaEntrega)
	ctx.Step(`^el obrador cambia "([^"]*)" a "([^"]*)"$`, tc.elObradorCambiaA)

	// Then
	ctx.Step(`^la operación tiene éxito$`, tc.laOperacionTieneExito)
	ctx.Step(`^la operación falla con "([^"]*)"$`, tc.laOperacionFallaCon)
	ctx.Step(`^exactamente una preparación tiene éxito y la otra falla con "([^"]*)"$`, tc.exactamenteUnaTieneExito)
	ctx.Step(`^el pedido "([^"]*)" está "([^"]*)"$`, tc.elPedidoEsta)
	ctx.Step(`^el lote "([^"]*)" de "([^"]*)" tiene (\d+) producidas y (\d+) reservadas$`, tc.elLoteTiene)
	ctx.Step(`^el diario de "([^"]*)" tiene (\d+) movimientos "([^"]*)" por (\d+)$`, tc.elDiarioTieneMovimientos)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/replenishment.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
